package driver

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/autoqliq/autoqliq/internal/domain/apperr"
	"github.com/autoqliq/autoqliq/pkg/logger"
	"github.com/autoqliq/autoqliq/pkg/ratelimit"
	"github.com/autoqliq/autoqliq/pkg/resilience"
)

// LifecycleManager is the only thing in this module allowed to call a
// Factory. It limits how fast driver creations start with a token-bucket
// limiter (a browser-process spin-up storm is a real resource hazard when
// several scheduled runs start at once); the limiter caps the start rate,
// not the number of creations in flight at one time. It also trips a
// circuit breaker open when the backend is repeatedly failing to produce a
// working driver, so a wedged
// backend doesn't get hammered by every subsequent Acquire. It never
// retries a failed Acquire itself — that decision belongs to the caller.
type LifecycleManager struct {
	factory Factory
	limiter ratelimit.RateLimiter
	breaker *resilience.CircuitBreaker
	log     logger.Logger
}

// LifecycleConfig tunes the limiter and breaker. Zero values fall back to
// conservative defaults.
type LifecycleConfig struct {
	MaxConcurrentCreations int
	BreakerMaxFailures     uint32
	BreakerOpenTimeout     time.Duration
}

func NewLifecycleManager(factory Factory, cfg LifecycleConfig, log logger.Logger) *LifecycleManager {
	if cfg.MaxConcurrentCreations <= 0 {
		cfg.MaxConcurrentCreations = 4
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}
	breakerCfg := resilience.DefaultCircuitBreakerConfig("driver-acquire")
	breakerCfg.Timeout = cfg.BreakerOpenTimeout
	breakerCfg.Interval = 0
	breakerCfg.MaxRequests = 1
	breakerCfg.MinRequests = cfg.BreakerMaxFailures
	breakerCfg.FailureRatio = 1.0
	breakerCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		if log != nil {
			log.Warn("driver acquire circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		}
	}
	return &LifecycleManager{
		factory: factory,
		limiter: ratelimit.NewTokenBucketLimiter(cfg.MaxConcurrentCreations, cfg.MaxConcurrentCreations),
		breaker: resilience.NewCircuitBreaker(breakerCfg),
		log:     log,
	}
}

// Handle wraps an acquired Driver with a Release that is safe to call more
// than once — guaranteeing release on every exit path (normal return,
// early error return, or deferred cleanup after a recovered panic) reduces
// to "always defer handle.Release(ctx) right after a successful Acquire."
type Handle struct {
	Driver   Driver
	mu       sync.Mutex
	released bool
}

func (h *Handle) Release(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	h.released = true
	return h.Driver.Quit(ctx)
}

// Acquire creates a fresh driver handle. The handle is never shared between
// runs — each call to Acquire yields a handle for exactly one caller.
func (m *LifecycleManager) Acquire(ctx context.Context, opts Options) (*Handle, error) {
	if !opts.BrowserType.Valid() {
		return nil, &apperr.ConfigError{Key: "browser_type", Message: "unknown browser type " + string(opts.BrowserType)}
	}
	if err := m.waitForSlot(ctx); err != nil {
		return nil, &apperr.WebDriverError{Operation: "acquire", DriverType: string(opts.BrowserType), Message: "waiting for a creation slot", Cause: err}
	}
	result, err := m.breaker.Execute(func() (interface{}, error) {
		return m.factory.Create(ctx, opts)
	})
	if err != nil {
		return nil, &apperr.WebDriverError{Operation: "acquire", DriverType: string(opts.BrowserType), Message: "could not create driver", Cause: err}
	}
	return &Handle{Driver: result.(Driver)}, nil
}

// waitForSlot blocks until the token-bucket limiter admits a creation, or
// ctx is done.
func (m *LifecycleManager) waitForSlot(ctx context.Context) error {
	for {
		ok, err := m.limiter.Allow(ctx, "driver-acquire")
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// WithDriver acquires a handle, runs fn, and releases the handle
// unconditionally — including when fn panics, so callers get the release
// guarantee without having to remember the defer themselves.
func (m *LifecycleManager) WithDriver(ctx context.Context, opts Options, fn func(d Driver) error) (err error) {
	h, err := m.Acquire(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		releaseErr := h.Release(ctx)
		if err == nil {
			err = releaseErr
		} else if m.log != nil && releaseErr != nil {
			m.log.Error("driver release failed after action error", "error", releaseErr)
		}
	}()
	return fn(h.Driver)
}
