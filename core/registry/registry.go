// Package registry manages module registration and lookup.
// It maps module names to locally registered capability surfaces and to
// configured network addresses, and provides the deterministic default
// address used when neither is configured.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/avinashfc/agentic-visionxtract/ports"
)

// wellKnownPorts is the fixed module-name-to-port mapping used to derive
// default addresses. Stable across restarts within a deployment.
var wellKnownPorts = map[string]int{
	"llm_judge":       8003,
	"ocr":             8002,
	"face_extraction": 8001,
}

// fallbackPort is used for module names outside the well-known table.
const fallbackPort = 8000

// Registry maps module names to dispatch targets. It is populated at
// startup and read-only afterwards; lookups are safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// locally registered capability surfaces, by module name
	surfaces map[string]ports.Surface

	// configured base addresses, by module name
	addresses map[string]string

	// per-deployment port overrides for default address derivation
	ports map[string]int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		surfaces:  make(map[string]ports.Surface),
		addresses: make(map[string]string),
		ports:     make(map[string]int),
	}
}

// RegisterSurface registers a local capability surface. Module names must
// be unique within a deployment; a duplicate registration is an error.
func (r *Registry) RegisterSurface(s ports.Surface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Module()
	if name == "" {
		return fmt.Errorf("surface has empty module name")
	}
	if _, exists := r.surfaces[name]; exists {
		return fmt.Errorf("module %q already registered", name)
	}

	r.surfaces[name] = s
	return nil
}

// SetAddress records a configured base address for a module. An address
// forces HTTP resolution in auto mode, even when a local surface exists.
func (r *Registry) SetAddress(module, baseURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses[module] = baseURL
}

// SetPort records a per-deployment port override for default address
// derivation.
func (r *Registry) SetPort(module string, port int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ports[module] = port
}

// Surface returns the locally registered surface for a module, if any.
// Absence is not an error; it means the in-process path is unavailable.
func (r *Registry) Surface(module string) (ports.Surface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surfaces[module]
	return s, ok
}

// Address returns the configured base address for a module, if any.
func (r *Registry) Address(module string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.addresses[module]
	return addr, ok && addr != ""
}

// DefaultAddress derives the default base address for a module from the
// deterministic module-name-to-port mapping.
func (r *Registry) DefaultAddress(module string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	port, ok := r.ports[module]
	if !ok {
		port, ok = wellKnownPorts[module]
	}
	if !ok {
		port = fallbackPort
	}
	return fmt.Sprintf("http://localhost:%d", port)
}

// Surfaces returns all registered surfaces sorted by module name.
func (r *Registry) Surfaces() []ports.Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ports.Surface, 0, len(r.surfaces))
	for _, s := range r.surfaces {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Module() < out[j].Module()
	})
	return out
}

// Modules returns the names of all modules known to the registry, from
// either a local surface or a configured address, sorted.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.surfaces)+len(r.addresses))
	for name := range r.surfaces {
		seen[name] = true
	}
	for name, addr := range r.addresses {
		if addr != "" {
			seen[name] = true
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
