// Package remote provides the HTTP invoker. It serializes a call into a
// JSON request, sends it to the resolved base address, and translates
// transport and application outcomes into the shared failure taxonomy.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/ports"
)

// DefaultTimeout bounds a call's network round trip when no timeout is
// configured.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response body is read back.
const maxErrorBody = 4 << 10

// Config configures the remote invoker.
type Config struct {
	// Module is the target module name; it determines the URL path.
	Module string

	// BaseURL is the resolved base address (scheme://host:port).
	BaseURL string

	// Timeout bounds each call's round trip. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Headers are added to every request.
	Headers map[string]string
}

// Invoker sends calls to a networked module. The underlying HTTP session
// is created lazily on first use and reused until Close. No retries:
// retry policy belongs to the caller.
type Invoker struct {
	cfg Config

	once       sync.Once
	httpClient *http.Client
}

// New creates a remote invoker. No connection is opened until the first
// Invoke.
func New(cfg Config) *Invoker {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Invoker{cfg: cfg}
}

// client returns the lazily created HTTP client.
func (i *Invoker) client() *http.Client {
	i.once.Do(func() {
		i.httpClient = &http.Client{Timeout: i.cfg.Timeout}
	})
	return i.httpClient
}

// Invoke POSTs the payload to /api/<module-kebab>/<operation> on the
// resolved base address and decodes the response.
func (i *Invoker) Invoke(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	url := i.operationURL(operation)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, call.WrapFailure(call.KindTransport, err,
				"marshal payload for %s", url)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, call.WrapFailure(call.KindTransport, err, "build request for %s", url)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := call.CorrelationID(ctx); id != "" {
		req.Header.Set(call.CorrelationHeader, id)
	}
	for k, v := range i.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := i.client().Do(req)
	if err != nil {
		return nil, transportFailure(err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, i.decodeFailure(resp)
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, call.WrapFailure(call.KindMalformedResponse, err,
			"response from %s is not a valid result", url)
	}
	return result, nil
}

// Close releases the transport session. Safe to call before first use
// and after failed calls.
func (i *Invoker) Close() error {
	if i.httpClient != nil {
		i.httpClient.CloseIdleConnections()
	}
	return nil
}

// operationURL builds the wire path for an operation.
func (i *Invoker) operationURL(operation string) string {
	base := strings.TrimSuffix(i.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/api/%s/%s", base, call.PathSegment(i.cfg.Module), operation)
}

// decodeFailure translates a non-2xx response. A well-formed error body
// carries the remote module's own kind and message through unchanged;
// anything else is reported as an application failure with the status.
func (i *Invoker) decodeFailure(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb call.ErrorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error.Kind != "" {
		return &call.Failure{
			Kind:    call.Kind(eb.Error.Kind),
			Message: eb.Error.Message,
		}
	}

	return call.NewFailure(call.KindApplication, "module %q returned status %d: %s",
		i.cfg.Module, resp.StatusCode, strings.TrimSpace(string(data)))
}

// transportFailure classifies a round-trip error. Timeouts and
// cancellations are still transport failures; the message distinguishes
// them for operators.
func transportFailure(err error, url string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return call.WrapFailure(call.KindTransport, err, "timeout calling %s", url)
	case errors.Is(err, context.Canceled):
		return call.WrapFailure(call.KindTransport, err, "call to %s cancelled", url)
	default:
		return call.WrapFailure(call.KindTransport, err, "could not reach %s", url)
	}
}

// Ensure interface compliance.
var _ ports.Invoker = (*Invoker)(nil)
