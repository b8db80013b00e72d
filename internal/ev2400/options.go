package ev2400

import (
	"log/slog"
	"time"
)

const (
	DefaultTimeout   = 2 * time.Second
	DefaultGraceWait = 25 * time.Millisecond

	defaultQueueSize = 16
)

type config struct {
	timeout   time.Duration
	graceWait time.Duration
	queueSize int
	logger    *slog.Logger
	trace     bool
}

func defaultConfig() config {
	return config{
		timeout:   DefaultTimeout,
		graceWait: DefaultGraceWait,
		queueSize: defaultQueueSize,
		logger:    slog.Default(),
	}
}

// Option configures an EV2400.
type Option func(*config)

// WithTimeout sets how long a request waits for its response.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithGraceWait sets how long a fire-and-forget command waits for a stray
// reply before returning. Zero disables the wait.
func WithGraceWait(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.graceWait = d
		}
	}
}

// WithQueueSize sets how many inbound packets may wait for a reader.
func WithQueueSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithLogger sets the logger for dropped packets and protocol warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTrace logs every packet sent and received at debug level.
func WithTrace(enabled bool) Option {
	return func(c *config) {
		c.trace = enabled
	}
}
