package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/leakscan/internal/model"
)

//go:embed builtin.yaml
var builtinRules []byte

// Database is an ordered, immutable collection of rules.
// It is built once before scanning starts and only read afterwards,
// so it can be shared by any number of concurrent scans.
type Database struct {
	rules []model.Rule
}

// Definition is the serialised form of a rule in a YAML database.
type Definition struct {
	// Title is the rule name.
	Title string `yaml:"title" json:"title"`

	// Severity is a free-form severity string (e.g. "high").
	Severity string `yaml:"severity" json:"severity"`

	// Regex is the RE2 pattern source.
	Regex string `yaml:"regex" json:"regex"`
}

// document is the top-level YAML structure of a database file.
type document struct {
	Rules []Definition `yaml:"rules"`
}

// New compiles definitions into a database, assigning ordinals in order.
func New(defs []Definition) (*Database, error) {
	if len(defs) == 0 {
		return nil, ErrNoRules
	}

	compiled := make([]model.Rule, 0, len(defs))
	for i, def := range defs {
		title := strings.TrimSpace(def.Title)
		if title == "" {
			return nil, fmt.Errorf("rule %d: %w", i, ErrMissingTitle)
		}
		if def.Regex == "" {
			return nil, fmt.Errorf("rule %d (%s): %w", i, title, ErrEmptyPattern)
		}

		pattern, err := regexp.Compile(def.Regex)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w: %w", i, title, ErrInvalidPattern, err)
		}

		compiled = append(compiled, model.Rule{
			Title:    title,
			Severity: strings.TrimSpace(def.Severity),
			Pattern:  pattern,
			Index:    i,
		})
	}

	return &Database{rules: compiled}, nil
}

// Load reads a YAML rule database from r.
func Load(r io.Reader) (*Database, error) {
	var doc document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, ErrNoRules
		}
		return nil, fmt.Errorf("failed to decode rule database: %w", err)
	}
	return New(doc.Rules)
}

// LoadFile reads a YAML rule database from path.
func LoadFile(path string) (*Database, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided rule path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open rule database: %w", err)
	}
	defer f.Close()

	db, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// Builtin returns the embedded default rule database.
func Builtin() (*Database, error) {
	db, err := Load(bytes.NewReader(builtinRules))
	if err != nil {
		return nil, fmt.Errorf("builtin rules: %w", err)
	}
	return db, nil
}

// Merge concatenates databases in order and re-assigns ordinals so that
// they keep matching positions in the merged database. Nil entries are skipped.
func Merge(dbs ...*Database) (*Database, error) {
	var merged []model.Rule
	for _, db := range dbs {
		if db == nil {
			continue
		}
		for _, r := range db.rules {
			r.Index = len(merged)
			merged = append(merged, r)
		}
	}
	if len(merged) == 0 {
		return nil, ErrNoRules
	}
	return &Database{rules: merged}, nil
}

// Len returns the number of rules.
func (d *Database) Len() int {
	return len(d.rules)
}

// Rule returns the rule with ordinal i.
func (d *Database) Rule(i int) model.Rule {
	return d.rules[i]
}

// Rules returns a copy of the ordered rule list.
func (d *Database) Rules() []model.Rule {
	out := make([]model.Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Patterns returns every compiled pattern in database order.
func (d *Database) Patterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(d.rules))
	for i, r := range d.rules {
		out[i] = r.Pattern
	}
	return out
}

// Definitions returns the serialisable form of the database.
func (d *Database) Definitions() []Definition {
	out := make([]Definition, len(d.rules))
	for i, r := range d.rules {
		out[i] = Definition{Title: r.Title, Severity: r.Severity, Regex: r.PatternString()}
	}
	return out
}
