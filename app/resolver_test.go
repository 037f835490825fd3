package app_test

import (
	"context"
	"testing"

	"github.com/avinashfc/agentic-visionxtract/app"
	"github.com/avinashfc/agentic-visionxtract/core/registry"
	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/ports"
)

// echoSurface implements a single evaluate operation for tests.
type echoSurface struct {
	name string
}

func (s echoSurface) Module() string { return s.name }

func (s echoSurface) Operation(name string) (ports.Handler, bool) {
	if name != "evaluate" {
		return nil, false
	}
	return func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{"score": 1.0}, nil
	}, true
}

func (s echoSurface) Operations() []string { return []string{"evaluate"} }

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if err := reg.RegisterSurface(echoSurface{name: "llm_judge"}); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestResolveAutoPrefersLocalSurface(t *testing.T) {
	r := app.NewResolver(newTestRegistry(t))

	res, err := r.Resolve("llm_judge", call.ModeAuto, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != call.ModeInProcess {
		t.Errorf("mode = %q, want %q", res.Mode, call.ModeInProcess)
	}
	if res.Surface == nil {
		t.Error("resolution has no surface")
	}
}

func TestResolveAutoAddressOverrideWinsOverLocalSurface(t *testing.T) {
	reg := newTestRegistry(t)
	reg.SetAddress("llm_judge", "http://judge.internal:9000")
	r := app.NewResolver(reg)

	res, err := r.Resolve("llm_judge", call.ModeAuto, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != call.ModeHTTP {
		t.Errorf("mode = %q, want %q (override forces distributed dispatch)", res.Mode, call.ModeHTTP)
	}
	if res.BaseURL != "http://judge.internal:9000" {
		t.Errorf("base url = %q, want override address", res.BaseURL)
	}
}

func TestResolveAutoExplicitBaseURLForcesHTTP(t *testing.T) {
	r := app.NewResolver(newTestRegistry(t))

	res, err := r.Resolve("llm_judge", call.ModeAuto, "http://localhost:9999")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != call.ModeHTTP || res.BaseURL != "http://localhost:9999" {
		t.Errorf("got %q %q, want http dispatch to the given address", res.Mode, res.BaseURL)
	}
}

func TestResolveAutoFallsBackToDefaultAddress(t *testing.T) {
	r := app.NewResolver(registry.New())

	tests := []struct {
		module string
		want   string
	}{
		{"llm_judge", "http://localhost:8003"},
		{"ocr", "http://localhost:8002"},
		{"face_extraction", "http://localhost:8001"},
		{"something_else", "http://localhost:8000"},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			res, err := r.Resolve(tt.module, call.ModeAuto, "")
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if res.Mode != call.ModeHTTP {
				t.Errorf("mode = %q, want %q", res.Mode, call.ModeHTTP)
			}
			if res.BaseURL != tt.want {
				t.Errorf("base url = %q, want %q", res.BaseURL, tt.want)
			}
		})
	}
}

func TestResolveExplicitInProcess(t *testing.T) {
	r := app.NewResolver(newTestRegistry(t))

	res, err := r.Resolve("llm_judge", call.ModeInProcess, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Mode != call.ModeInProcess {
		t.Errorf("mode = %q, want %q", res.Mode, call.ModeInProcess)
	}
}

func TestResolveExplicitInProcessWithoutSurfaceFails(t *testing.T) {
	r := app.NewResolver(newTestRegistry(t))

	_, err := r.Resolve("face_extraction", call.ModeInProcess, "")
	if call.KindOf(err) != call.KindConfiguration {
		t.Errorf("kind = %q, want %q (never a silent fallback to http)", call.KindOf(err), call.KindConfiguration)
	}
}

func TestResolveExplicitHTTP(t *testing.T) {
	reg := newTestRegistry(t)
	reg.SetAddress("ocr", "http://ocr.internal:8002")
	r := app.NewResolver(reg)

	tests := []struct {
		name    string
		module  string
		baseURL string
		want    string
	}{
		{"explicit address wins", "ocr", "http://elsewhere:1234", "http://elsewhere:1234"},
		{"configured address", "ocr", "", "http://ocr.internal:8002"},
		{"default derivation", "llm_judge", "", "http://localhost:8003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.module, call.ModeHTTP, tt.baseURL)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if res.Mode != call.ModeHTTP || res.BaseURL != tt.want {
				t.Errorf("got %q %q, want http %q", res.Mode, res.BaseURL, tt.want)
			}
		})
	}
}

func TestResolveUnknownMode(t *testing.T) {
	r := app.NewResolver(newTestRegistry(t))

	_, err := r.Resolve("llm_judge", call.Mode("carrier_pigeon"), "")
	if call.KindOf(err) != call.KindConfiguration {
		t.Errorf("kind = %q, want %q", call.KindOf(err), call.KindConfiguration)
	}
}
