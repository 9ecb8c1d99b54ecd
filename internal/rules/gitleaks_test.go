package rules

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const testGitleaksConfig = `title = "test config"

[[rules]]
id = "zz-slack"
description = "Slack token"
regex = '''xox[baprs]-[0-9a-zA-Z]{10,48}'''

[[rules]]
id = "aa-aws"
description = "AWS access key"
regex = '''AKIA[0-9A-Z]{16}'''

[[rules]]
id = "mm-pem-files"
description = "PEM files"
path = '''\.pem$'''
`

// TestLoadGitleaksConfig tests importing a custom gitleaks configuration.
func TestLoadGitleaksConfig(t *testing.T) {
	t.Parallel()

	t.Run("imports content rules sorted by id", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "gitleaks.toml")
		if err := os.WriteFile(path, []byte(testGitleaksConfig), 0600); err != nil {
			t.Fatal(err)
		}

		db, err := LoadGitleaksConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if db.Len() != 2 {
			t.Fatalf("expected 2 content rules, got %d", db.Len())
		}
		if db.Rule(0).Title != "aa-aws" || db.Rule(1).Title != "zz-slack" {
			t.Errorf("expected rules ordered by id, got %q, %q", db.Rule(0).Title, db.Rule(1).Title)
		}
		if db.Rule(0).Severity != GitleaksSeverity {
			t.Errorf("expected severity %q, got %q", GitleaksSeverity, db.Rule(0).Severity)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadGitleaksConfig(filepath.Join(t.TempDir(), "none.toml")); err == nil {
			t.Fatal("expected error for missing config")
		}
	})
}

// TestFromGitleaks tests importing gitleaks' default rules.
func TestFromGitleaks(t *testing.T) {
	t.Parallel()

	db, err := FromGitleaks()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.Len() == 0 {
		t.Fatal("expected default gitleaks rules")
	}

	titles := make([]string, db.Len())
	for i, r := range db.Rules() {
		titles[i] = r.Title
	}
	if !slices.IsSorted(titles) {
		t.Error("expected gitleaks rules ordered by id")
	}
}
