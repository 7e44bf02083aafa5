package wmiq

import (
	"log/slog"

	"github.com/roach88/wmiq/wbem"
)

// Connection executes queries on one provider session.
//
// The connection does not serialize access to the session. Running queries
// from several goroutines is valid only when the session supports
// concurrent cursors.
type Connection struct {
	svc    wbem.Services
	logger *slog.Logger
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for debug records. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConnection wraps an already initialized session.
func NewConnection(svc wbem.Services, opts ...Option) *Connection {
	c := &Connection{
		svc:    svc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Services returns the wrapped session.
func (c *Connection) Services() wbem.Services {
	return c.svc
}
