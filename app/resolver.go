// Package app provides the orchestration layer: mode resolution and the
// unified module client that hides whether a call is dispatched
// in-process or over HTTP.
package app

import (
	"github.com/avinashfc/agentic-visionxtract/core/registry"
	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/ports"
)

// Resolution is the concrete dispatch target chosen for a client
// session. Immutable once resolved; a session never changes mode.
type Resolution struct {
	Mode call.Mode

	// Surface is set when Mode is ModeInProcess.
	Surface ports.Surface

	// BaseURL is set when Mode is ModeHTTP.
	BaseURL string
}

// Resolver turns a requested mode plus a module name into one concrete,
// resolved mode. Resolution is synchronous and happens once per client
// session; it never falls back after the fact.
type Resolver struct {
	registry *registry.Registry
}

// NewResolver creates a resolver over the capability registry.
func NewResolver(reg *registry.Registry) *Resolver {
	return &Resolver{registry: reg}
}

// Resolve picks the dispatch target for a module. An explicit mode is
// honored verbatim: if it cannot be satisfied, resolution fails with a
// configuration error rather than silently switching paths. In auto
// mode, a configured address override wins over a local surface, so a
// deployment can force distributed dispatch even when local code is
// present.
func (r *Resolver) Resolve(module string, requested call.Mode, baseURL string) (Resolution, error) {
	switch requested {
	case call.ModeInProcess:
		surface, ok := r.registry.Surface(module)
		if !ok {
			return Resolution{}, call.NewFailure(call.KindConfiguration,
				"in_process mode requested but module %q has no local surface", module)
		}
		return Resolution{Mode: call.ModeInProcess, Surface: surface}, nil

	case call.ModeHTTP:
		return Resolution{Mode: call.ModeHTTP, BaseURL: r.httpAddress(module, baseURL)}, nil

	case call.ModeAuto:
		// Topology configuration first: an address override forces HTTP.
		if baseURL != "" {
			return Resolution{Mode: call.ModeHTTP, BaseURL: baseURL}, nil
		}
		if addr, ok := r.registry.Address(module); ok {
			return Resolution{Mode: call.ModeHTTP, BaseURL: addr}, nil
		}
		if surface, ok := r.registry.Surface(module); ok {
			return Resolution{Mode: call.ModeInProcess, Surface: surface}, nil
		}
		return Resolution{Mode: call.ModeHTTP, BaseURL: r.registry.DefaultAddress(module)}, nil

	default:
		return Resolution{}, call.NewFailure(call.KindConfiguration,
			"unknown communication mode %q for module %q", requested, module)
	}
}

// httpAddress picks the base address for HTTP dispatch: an explicit
// override, then the configured address, then the deterministic default.
func (r *Resolver) httpAddress(module, baseURL string) string {
	if baseURL != "" {
		return baseURL
	}
	if addr, ok := r.registry.Address(module); ok {
		return addr
	}
	return r.registry.DefaultAddress(module)
}
