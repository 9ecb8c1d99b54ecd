package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testRules is a one-rule database so expected output does not depend
// on the built-in rules.
const testRules = `rules:
  - title: Test Key
    severity: high
    regex: 'TESTKEY_[0-9A-F]{8}'
`

// testEnv holds the files shared by CLI tests.
type testEnv struct {
	dir    string
	rules  string
	config string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:    dir,
		rules:  filepath.Join(dir, "rules.yaml"),
		config: filepath.Join(dir, "config.yaml"),
	}
	writeTestFile(t, env.rules, testRules)
	writeTestFile(t, env.config, "")
	return env
}

// args prefixes the flags that keep a scan independent of the machine.
func (e testEnv) args(args ...string) []string {
	return append([]string{"scan", "--config", e.config, "--rules", e.rules}, args...)
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// runCLI executes the root command and returns what it printed.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func lines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
