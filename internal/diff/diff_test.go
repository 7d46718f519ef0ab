package diff

import (
	"strings"
	"testing"
)

func TestUnified(t *testing.T) {
	if got := Unified("a", "b", []byte("port: 1\n"), []byte("port: 1\n")); got != "" {
		t.Errorf("equal inputs gave %q", got)
	}

	got := Unified("app.yaml", "app.yaml (new)", []byte("port: 1\n"), []byte("port: 1\ndebug: false\n"))
	for _, want := range []string{"--- app.yaml\n", "+++ app.yaml (new)\n", "+debug: false\n", " port: 1\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("diff missing %q:\n%s", want, got)
		}
	}
}

func TestUnified_FromEmpty(t *testing.T) {
	got := Unified("/dev/null", "app.toml", nil, []byte("port = 1\n"))
	if !strings.Contains(got, "+port = 1\n") {
		t.Errorf("diff = %q", got)
	}
}
