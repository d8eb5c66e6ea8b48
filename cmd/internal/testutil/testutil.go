package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Setup writes the given files (relative path -> content) into a fresh
// temporary directory and returns its path.
func Setup(tb testing.TB, files map[string]string) string {
	tb.Helper()

	root := tb.TempDir()

	for relPath, content := range files {
		fullPath := filepath.Join(root, relPath)

		dir := filepath.Dir(fullPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			tb.Fatalf("creating directory %s: %v", dir, err)
		}

		if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
			tb.Fatalf("writing file %s: %v", fullPath, err)
		}
	}

	return root
}
