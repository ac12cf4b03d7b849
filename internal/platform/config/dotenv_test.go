package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	body := "DOTENV_FRESH=from-file\nDOTENV_SET=from-file\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTENV_SET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("DOTENV_FRESH") })

	if err := LoadEnvFiles(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	if got := New().MayString("DOTENV_FRESH", ""); got != "from-file" {
		t.Fatalf("DOTENV_FRESH = %q", got)
	}
	if got := New().MayString("DOTENV_SET", ""); got != "from-env" {
		t.Fatalf("DOTENV_SET = %q, want the existing value", got)
	}
}

func TestLoadEnvFiles_Unreadable(t *testing.T) {
	if err := LoadEnvFiles(t.TempDir()); err == nil {
		t.Fatal("expected an error reading a directory")
	}
}
