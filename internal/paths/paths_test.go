package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thoreinstein/confkeep/internal/errors"
)

func TestHome(t *testing.T) {
	got := Home()
	want, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("os.UserHomeDir() failed: %v", err)
	}
	if got != want {
		t.Errorf("Home() = %q, want %q", got, want)
	}
}

func TestResolveHome(t *testing.T) {
	got, err := ResolveHome()
	want, _ := os.UserHomeDir()

	if err != nil {
		if !errors.Is(err, ErrHomeDirNotFound) {
			t.Errorf("unexpected error type: %v", err)
		}
	} else if got != want {
		t.Errorf("ResolveHome() = %q, want %q", got, want)
	}
}

func TestConfigHome(t *testing.T) {
	got := ConfigHome()
	if got == "" {
		t.Error("ConfigHome() returned empty string")
	}
	if !filepath.IsAbs(got) {
		t.Errorf("ConfigHome() = %q, want absolute path", got)
	}
}

func TestSettingsFile(t *testing.T) {
	got := SettingsFile()
	want := filepath.Join(ConfigHome(), "confkeep", "config.yaml")
	if got != want {
		t.Errorf("SettingsFile() = %q, want %q", got, want)
	}
}

func TestDefaultLogFile(t *testing.T) {
	got := DefaultLogFile()
	if !strings.HasPrefix(got, StateHome()) {
		t.Errorf("DefaultLogFile() = %q, want under %q", got, StateHome())
	}
	if filepath.Base(got) != "confkeep.log" {
		t.Errorf("DefaultLogFile() base = %q", filepath.Base(got))
	}
}

func TestExpandHome(t *testing.T) {
	home := Home()
	if home == "" {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/app.yaml", filepath.Join(home, "app.yaml")},
		{"/etc/app.yaml", "/etc/app.yaml"},
		{"app.yaml", "app.yaml"},
		{"~other/app.yaml", "~other/app.yaml"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	if err := EnsureDir(dir, 0); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("EnsureDir() did not create a directory")
	}

	// Idempotent
	if err := EnsureDir(dir, 0o755); err != nil {
		t.Errorf("EnsureDir() second call error = %v", err)
	}
}
