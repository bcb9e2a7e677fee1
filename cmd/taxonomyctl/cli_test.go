package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// runCLI executes the root command with args and returns what it wrote to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	importReplace, tokenAdmin, ancestorsDeleted = false, false, false
	tokenGrants = nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))

	err := rootCmd.Execute()
	return stdout.String(), err
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
