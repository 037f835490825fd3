package app

import (
	"context"
	"sync"
	"time"

	"github.com/avinashfc/agentic-visionxtract/adapters/local"
	"github.com/avinashfc/agentic-visionxtract/adapters/metrics"
	"github.com/avinashfc/agentic-visionxtract/adapters/remote"
	"github.com/avinashfc/agentic-visionxtract/core/registry"
	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/ports"
	"github.com/rs/zerolog"
)

// ClientDeps contains dependencies for ModuleClient.
type ClientDeps struct {
	Registry *registry.Registry
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  *metrics.Collector // optional
	Logger   zerolog.Logger
}

// ClientConfig configures a module client.
type ClientConfig struct {
	// Module is the target module name.
	Module string

	// Mode is the requested communication mode. Defaults to auto.
	Mode call.Mode

	// BaseURL is an explicit address override. When set it forces HTTP
	// dispatch, even in auto mode.
	BaseURL string

	// Timeout bounds each HTTP round trip. In-process calls are not
	// subject to it.
	Timeout time.Duration
}

// ModuleClient is the single entry point for calling another module.
// Construction is cheap: no resolution happens and no connection opens
// until the caller enters a session scope with Open.
type ModuleClient struct {
	deps     ClientDeps
	cfg      ClientConfig
	resolver *Resolver
}

// NewModuleClient creates a client for a target module.
func NewModuleClient(deps ClientDeps, cfg ClientConfig) *ModuleClient {
	if cfg.Mode == "" {
		cfg.Mode = call.ModeAuto
	}
	return &ModuleClient{
		deps:     deps,
		cfg:      cfg,
		resolver: NewResolver(deps.Registry),
	}
}

// Open resolves the communication mode exactly once and returns a ready
// session. Every call issued through the session uses the resolved mode;
// there is no mid-session fallback. The caller must Close the session on
// every exit path.
//
// A single Open per client instance at a time is assumed; callers that
// need concurrent call chains should open independent sessions.
func (c *ModuleClient) Open(ctx context.Context) (*Session, error) {
	res, err := c.resolver.Resolve(c.cfg.Module, c.cfg.Mode, c.cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	var invoker ports.Invoker
	switch res.Mode {
	case call.ModeInProcess:
		invoker = local.New(res.Surface)
	case call.ModeHTTP:
		// The transport session itself is established lazily by the
		// invoker on first call.
		invoker = remote.New(remote.Config{
			Module:  c.cfg.Module,
			BaseURL: res.BaseURL,
			Timeout: c.cfg.Timeout,
		})
	}

	if c.deps.Metrics != nil {
		c.deps.Metrics.SessionsResolved.WithLabelValues(c.cfg.Module, string(res.Mode)).Inc()
	}

	evt := c.deps.Logger.Info().
		Str("module", c.cfg.Module).
		Str("mode", string(res.Mode))
	if res.Mode == call.ModeHTTP {
		evt = evt.Str("base_url", res.BaseURL)
	}
	evt.Msg("module client session opened")

	return &Session{
		module:  c.cfg.Module,
		mode:    res.Mode,
		baseURL: res.BaseURL,
		invoker: invoker,
		clock:   c.deps.Clock,
		idGen:   c.deps.IDGen,
		metrics: c.deps.Metrics,
		logger:  c.deps.Logger,
	}, nil
}

// Call opens a session, invokes one operation, and closes the session.
// Convenience for one-shot calls; the session is released on every path.
func (c *ModuleClient) Call(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	session, err := c.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return session.Invoke(ctx, operation, payload)
}

// Session is an open client scope with a resolved mode and, for HTTP,
// a reusable transport. Safe for sequential reuse; the resolved state is
// read-only.
type Session struct {
	module  string
	mode    call.Mode
	baseURL string
	invoker ports.Invoker

	clock   ports.Clock
	idGen   ports.IDGenerator
	metrics *metrics.Collector
	logger  zerolog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Mode returns the resolved communication mode for this session.
func (s *Session) Mode() call.Mode {
	return s.mode
}

// BaseURL returns the resolved base address, or empty for in-process.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Invoke routes one call through the resolved invoker. Failures come
// back as *call.Failure errors in the shared taxonomy; the caller cannot
// tell which backing path produced them.
func (s *Session) Invoke(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	if call.CorrelationID(ctx) == "" && s.idGen != nil {
		ctx = call.WithCorrelationID(ctx, s.idGen.New())
	}

	if s.metrics != nil {
		s.metrics.CallsInFlight.Inc()
		defer s.metrics.CallsInFlight.Dec()
	}

	var start time.Time
	if s.clock != nil {
		start = s.clock.Now()
	}

	result, err := s.invoker.Invoke(ctx, operation, payload)

	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
			if kind := call.KindOf(err); kind != "" {
				s.metrics.CallFailures.WithLabelValues(s.module, string(kind)).Inc()
			}
		}
		s.metrics.CallsTotal.WithLabelValues(s.module, operation, string(s.mode), status).Inc()
		if s.clock != nil {
			s.metrics.CallDuration.WithLabelValues(s.module, operation, string(s.mode)).
				Observe(s.clock.Now().Sub(start).Seconds())
		}
	}

	if err != nil {
		s.logger.Warn().
			Str("module", s.module).
			Str("operation", operation).
			Str("mode", string(s.mode)).
			Str("correlation_id", call.CorrelationID(ctx)).
			Err(err).
			Msg("module call failed")
		return nil, err
	}

	s.logger.Debug().
		Str("module", s.module).
		Str("operation", operation).
		Str("mode", string(s.mode)).
		Str("correlation_id", call.CorrelationID(ctx)).
		Msg("module call completed")
	return result, nil
}

// Close releases the transport resource. Idempotent: the release runs
// exactly once no matter how many exit paths reach it, including after
// a failed or cancelled Invoke.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.invoker.Close()
	})
	return s.closeErr
}
