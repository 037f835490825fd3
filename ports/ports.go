// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/ and modules/.
package ports

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers (correlation IDs, evaluation IDs).
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Capability Ports
// -----------------------------------------------------------------------------

// Handler executes a single named operation. The payload is structured
// key-value data so it can cross the in-process/HTTP boundary without
// semantic loss. A returned error of type *call.Failure carries its kind
// through to the caller; any other error is reported as an application
// failure.
type Handler func(ctx context.Context, payload map[string]any) (map[string]any, error)

// Surface is the set of named operations a module exposes in-process.
// Discovery must be side-effect free: Operation reports found/not-found
// without instantiating anything.
type Surface interface {
	// Module returns the module name this surface serves.
	Module() string

	// Operation looks up a named operation.
	Operation(name string) (Handler, bool)

	// Operations lists the operation names this surface exposes.
	Operations() []string
}

// Invoker executes calls against a resolved target. Both the in-process
// and the HTTP implementations satisfy this; the unified client routes
// to whichever one resolution selected.
type Invoker interface {
	// Invoke executes an operation and returns its result. Failures are
	// returned as *call.Failure errors.
	Invoke(ctx context.Context, operation string, payload map[string]any) (map[string]any, error)

	// Close releases any transport resource the invoker holds. It must
	// be safe to call on every exit path, including after a failed or
	// cancelled Invoke.
	Close() error
}
