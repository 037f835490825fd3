package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/avinashfc/agentic-visionxtract/ports"
)

// stubSurface is a minimal surface for registry tests.
type stubSurface struct {
	name string
	ops  []string
}

func (s stubSurface) Module() string { return s.name }

func (s stubSurface) Operation(name string) (ports.Handler, bool) {
	for _, op := range s.ops {
		if op == name {
			return func(ctx context.Context, payload map[string]any) (map[string]any, error) {
				return payload, nil
			}, true
		}
	}
	return nil, false
}

func (s stubSurface) Operations() []string { return s.ops }

func TestRegisterSurface(t *testing.T) {
	r := New()

	if err := r.RegisterSurface(stubSurface{name: "llm_judge", ops: []string{"evaluate"}}); err != nil {
		t.Fatalf("RegisterSurface: %v", err)
	}

	if _, ok := r.Surface("llm_judge"); !ok {
		t.Error("registered surface not found")
	}
	if _, ok := r.Surface("ocr"); ok {
		t.Error("unregistered module reported as found")
	}
}

func TestRegisterSurfaceDuplicate(t *testing.T) {
	r := New()

	if err := r.RegisterSurface(stubSurface{name: "ocr"}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := r.RegisterSurface(stubSurface{name: "ocr"}); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestRegisterSurfaceEmptyName(t *testing.T) {
	r := New()
	if err := r.RegisterSurface(stubSurface{name: ""}); err == nil {
		t.Error("empty module name should fail")
	}
}

func TestAddress(t *testing.T) {
	r := New()

	if _, ok := r.Address("llm_judge"); ok {
		t.Error("unset address reported as found")
	}

	r.SetAddress("llm_judge", "http://judge.internal:9000")
	addr, ok := r.Address("llm_judge")
	if !ok || addr != "http://judge.internal:9000" {
		t.Errorf("Address = %q, %v; want configured address", addr, ok)
	}

	// Empty address is treated as unset.
	r.SetAddress("ocr", "")
	if _, ok := r.Address("ocr"); ok {
		t.Error("empty address reported as found")
	}
}

func TestDefaultAddress(t *testing.T) {
	r := New()

	tests := []struct {
		module string
		want   string
	}{
		{"llm_judge", "http://localhost:8003"},
		{"ocr", "http://localhost:8002"},
		{"face_extraction", "http://localhost:8001"},
		{"unknown_module", "http://localhost:8000"},
	}

	for _, tt := range tests {
		if got := r.DefaultAddress(tt.module); got != tt.want {
			t.Errorf("DefaultAddress(%q) = %q, want %q", tt.module, got, tt.want)
		}
	}

	// Deployment port overrides win over the well-known table.
	r.SetPort("llm_judge", 9103)
	if got := r.DefaultAddress("llm_judge"); got != "http://localhost:9103" {
		t.Errorf("DefaultAddress with override = %q, want http://localhost:9103", got)
	}
}

func TestModules(t *testing.T) {
	r := New()
	r.SetAddress("face_extraction", "http://faces:8001")
	if err := r.RegisterSurface(stubSurface{name: "ocr"}); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterSurface(stubSurface{name: "llm_judge"}); err != nil {
		t.Fatal(err)
	}

	want := []string{"face_extraction", "llm_judge", "ocr"}
	if got := r.Modules(); !reflect.DeepEqual(got, want) {
		t.Errorf("Modules() = %v, want %v", got, want)
	}
}

func TestSurfacesSorted(t *testing.T) {
	r := New()
	for _, name := range []string{"ocr", "llm_judge"} {
		if err := r.RegisterSurface(stubSurface{name: name}); err != nil {
			t.Fatal(err)
		}
	}

	surfaces := r.Surfaces()
	if len(surfaces) != 2 {
		t.Fatalf("Surfaces() returned %d, want 2", len(surfaces))
	}
	if surfaces[0].Module() != "llm_judge" || surfaces[1].Module() != "ocr" {
		t.Errorf("Surfaces() not sorted: %s, %s", surfaces[0].Module(), surfaces[1].Module())
	}
}
