package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nao1215/leakscan/internal/config"
	"github.com/nao1215/leakscan/internal/report"
	"github.com/nao1215/leakscan/internal/rules"
	"github.com/nao1215/leakscan/internal/scanner"
	"github.com/nao1215/leakscan/internal/source"
)

// ruleSelection names the rule sources of a run.
type ruleSelection struct {
	file           string
	gitleaks       bool
	gitleaksConfig string
}

// loadRules builds the active rule database: the rules file or the
// built-in rules, followed by any gitleaks rules.
func loadRules(sel ruleSelection) (*rules.Database, error) {
	var (
		base *rules.Database
		err  error
	)
	if sel.file != "" {
		base, err = rules.LoadFile(sel.file)
	} else {
		base, err = rules.Builtin()
	}
	if err != nil {
		return nil, err
	}

	dbs := []*rules.Database{base}
	if sel.gitleaks {
		gl, err := rules.FromGitleaks()
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, gl)
	}
	if sel.gitleaksConfig != "" {
		gl, err := rules.LoadGitleaksConfig(sel.gitleaksConfig)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, gl)
	}
	if len(dbs) == 1 {
		return base, nil
	}
	return rules.Merge(dbs...)
}

// NewRulesCmd creates the rules command.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the active rule database",
		Long: `Rules prints every rule a scan would use, in the order rules are applied.

Examples:
  # List built-in rules
  leakscan rules

  # Include gitleaks rules, as JSON
  leakscan rules --gitleaks --json`,
		Args: cobra.NoArgs,
		RunE: runRulesCmd,
	}

	cmd.Flags().BoolP(config.FlagJSON, "j", false, "Print rules as JSON")
	cmd.PersistentFlags().String(config.FlagRules, "", "Rule database file replacing the built-in rules")
	cmd.PersistentFlags().Bool(config.FlagGitleaks, false, "Add the gitleaks default rules")
	cmd.PersistentFlags().String(config.FlagGitleaksConfig, "", "Add the rules of a gitleaks TOML configuration")

	cmd.AddCommand(NewRulesTestCmd())

	return cmd
}

// NewRulesTestCmd creates the "rules test" command.
func NewRulesTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <file>",
		Short: "Run the active rules against a local file",
		Long: `Test scans one local file, or stdin with -, and lists every match with
the matched text masked. Nothing is fetched over the network.

Examples:
  leakscan rules test ./dist/app.js
  leakscan rules test --rules ./rules.yaml --count fixture.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runRulesTestCmd,
	}

	cmd.Flags().Bool("count", false, "Print only the number of matches")

	return cmd
}

func ruleSelectionFromFlags(cmd *cobra.Command) (ruleSelection, error) {
	flags := cmd.Flags()
	var (
		sel ruleSelection
		err error
	)
	if sel.file, err = flags.GetString(config.FlagRules); err != nil {
		return sel, err
	}
	if sel.gitleaks, err = flags.GetBool(config.FlagGitleaks); err != nil {
		return sel, err
	}
	if sel.gitleaksConfig, err = flags.GetString(config.FlagGitleaksConfig); err != nil {
		return sel, err
	}
	return sel, nil
}

func runRulesCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	asJSON, err := flags.GetBool(config.FlagJSON)
	if err != nil {
		return err
	}
	sel, err := ruleSelectionFromFlags(cmd)
	if err != nil {
		return err
	}

	db, err := loadRules(sel)
	if err != nil {
		return err
	}
	if asJSON {
		return writeRulesJSON(cmd.OutOrStdout(), db)
	}
	return writeRulesTable(cmd.OutOrStdout(), db)
}

func writeRulesJSON(w io.Writer, db *rules.Database) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(db.Definitions())
}

func writeRulesTable(w io.Writer, db *rules.Database) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tTITLE\tSEVERITY\tREGEX")
	for _, r := range db.Rules() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.Index, r.Title, r.Severity, r.PatternString())
	}
	return tw.Flush()
}

func runRulesTestCmd(cmd *cobra.Command, args []string) error {
	countOnly, err := cmd.Flags().GetBool("count")
	if err != nil {
		return err
	}
	sel, err := ruleSelectionFromFlags(cmd)
	if err != nil {
		return err
	}
	db, err := loadRules(sel)
	if err != nil {
		return err
	}

	var data []byte
	if args[0] == source.StdinMarker {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(filepath.Clean(args[0]))
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	text := string(data)

	out := cmd.OutOrStdout()
	if countOnly {
		fmt.Fprintln(out, scanner.Count(text, db))
		return nil
	}

	matches := scanner.Collect(text, db)
	if len(matches) > 0 {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tTITLE\tSEVERITY\tFIND")
		for _, m := range matches {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Index, m.Rule.Title, m.Rule.Severity, report.Mask(m.Find))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "%d matches\n", len(matches))
	return nil
}
