package auth

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/NHSDigital/eps-prescription-tracker-ui-sub000/internal/metrics"
)

const (
	DefaultIdleTimeout   = 15 * time.Minute
	DefaultRefreshWindow = 60 * time.Second
)

type options struct {
	nowTime       func() time.Time
	logger        zerolog.Logger
	metrics       *metrics.Metrics
	idleTimeout   time.Duration
	refreshWindow time.Duration
}

// Option configures an Authenticator or an Arbitrator. Options that do not apply to a
// component are ignored by it.
type Option func(*options)

func defaultOptions() options {
	return options{
		nowTime:       time.Now,
		logger:        log.Logger,
		idleTimeout:   DefaultIdleTimeout,
		refreshWindow: DefaultRefreshWindow,
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(o *options) {
		o.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithIdleTimeout sets how long a session may go without a request before it is evicted.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

// WithRefreshWindow sets how close to expiry an upstream token is refreshed.
func WithRefreshWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.refreshWindow = d
		}
	}
}
