package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for leakscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leakscan",
		Short: "Find leaked secrets in files and web resources",
		Long: `leakscan searches local files and HTTP(S) resources for leaked secrets
such as cloud credentials, API tokens and private keys.

Locations are given as an argument or streamed one per line on stdin.
Matches are printed as they are found, optionally as JSON records.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
