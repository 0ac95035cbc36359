package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

const portalThrottlePrefix = "login:portal:"

type attemptCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// LoginThrottle counts failed logins per key within a window. Counter errors
// are logged and the attempt is let through.
type LoginThrottle struct {
	counter     attemptCounter
	maxAttempts int
	window      time.Duration
	metrics     *MetricsService
	logger      *zap.Logger
}

func NewLoginThrottle(counter attemptCounter, maxAttempts int, window time.Duration, metrics *MetricsService, logger *zap.Logger) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginThrottle{counter: counter, maxAttempts: maxAttempts, window: window, metrics: metrics, logger: logger}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.counter != nil
}

// Allow returns TOO_MANY_ATTEMPTS once key has used up its failures.
func (t *LoginThrottle) Allow(ctx context.Context, key string) error {
	if !t.enabled() {
		return nil
	}
	n, err := t.counter.Count(ctx, portalThrottlePrefix+key)
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return nil
	}
	if n >= int64(t.maxAttempts) {
		t.metrics.RecordLoginThrottled()
		return appErrors.Clone(appErrors.ErrTooManyAttempts, "too many failed attempts, try again later")
	}
	return nil
}

func (t *LoginThrottle) Fail(ctx context.Context, key string) {
	if !t.enabled() {
		return
	}
	if _, err := t.counter.Incr(ctx, portalThrottlePrefix+key, t.window); err != nil {
		t.logger.Warn("login throttle record failed", zap.Error(err))
	}
}

func (t *LoginThrottle) Reset(ctx context.Context, key string) {
	if !t.enabled() {
		return
	}
	if err := t.counter.Delete(ctx, portalThrottlePrefix+key); err != nil {
		t.logger.Warn("login throttle reset failed", zap.Error(err))
	}
}
