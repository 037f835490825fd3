// Package local provides the in-process invoker. It dispatches calls
// directly to a registered capability surface within the caller's own
// goroutine, with no transport in between.
package local

import (
	"context"
	"errors"

	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/ports"
)

// Invoker dispatches calls to a resolved local surface. It holds no
// state across calls; any blocking is the invoked operation's own.
type Invoker struct {
	surface ports.Surface
}

// New creates an invoker bound to a resolved surface.
func New(surface ports.Surface) *Invoker {
	return &Invoker{surface: surface}
}

// Invoke looks up the operation on the surface and runs it synchronously.
func (i *Invoker) Invoke(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	handler, ok := i.surface.Operation(operation)
	if !ok {
		return nil, call.NewFailure(call.KindOperationNotFound,
			"module %q has no operation %q", i.surface.Module(), operation)
	}

	result, err := handler(ctx, payload)
	if err != nil {
		// A failure raised by the operation keeps its kind; anything
		// else is an application failure, same as a remote module
		// reporting one.
		var f *call.Failure
		if errors.As(err, &f) {
			return nil, f
		}
		return nil, call.WrapFailure(call.KindApplication, err,
			"operation %q failed", operation)
	}

	return result, nil
}

// Close is a no-op; the in-process path holds no transport resource.
func (i *Invoker) Close() error {
	return nil
}

// Ensure interface compliance.
var _ ports.Invoker = (*Invoker)(nil)
