package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestHolder(t *testing.T, content string) (*Holder, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	h, err := NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder() error: %v", err)
	}
	return h, path
}

func TestHolderGet(t *testing.T) {
	h, _ := newTestHolder(t, "server:\n  port: 9090\n")
	defer h.Stop()

	if got := h.Get().Server.Port; got != 9090 {
		t.Errorf("Get().Server.Port = %d, want 9090", got)
	}
}

func TestHolderReloadPicksUpModuleURL(t *testing.T) {
	h, path := newTestHolder(t, `
modules:
  llm_judge:
    url: http://old-judge:8003
`)
	defer h.Stop()

	if got := h.Get().Modules["llm_judge"].URL; got != "http://old-judge:8003" {
		t.Fatalf("initial llm_judge url = %q", got)
	}

	updated := `
modules:
  llm_judge:
    url: http://new-judge:8003
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	if got := h.Get().Modules["llm_judge"].URL; got != "http://new-judge:8003" {
		t.Errorf("llm_judge url after reload = %q, want http://new-judge:8003", got)
	}
}

func TestHolderReloadKeepsOldConfigOnError(t *testing.T) {
	h, path := newTestHolder(t, "server:\n  port: 9090\n")
	defer h.Stop()

	var reloadErrs int
	h.OnError(func(error) { reloadErrs++ })

	if err := os.WriteFile(path, []byte("a2a:\n  mode: teleport\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("Reload() should fail for an invalid config")
	}

	if got := h.Get().Server.Port; got != 9090 {
		t.Errorf("Server.Port after failed reload = %d, want 9090", got)
	}
	if reloadErrs != 1 {
		t.Errorf("OnError fired %d times, want 1", reloadErrs)
	}
}

func TestHolderOnChange(t *testing.T) {
	h, path := newTestHolder(t, "server:\n  port: 9090\n")
	defer h.Stop()

	var seen []int
	h.OnChange(func(cfg *Config) {
		seen = append(seen, cfg.Server.Port)
	})

	if err := os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	if len(seen) != 1 || seen[0] != 7070 {
		t.Errorf("OnChange saw %v, want [7070]", seen)
	}
}
