package execclipboard

import (
	"time"

	"go.uber.org/zap"
)

// Option ExecClipboard option
type Option func(c *ExecClipboard)

// WithCommands with clipboard command candidates option, tried in order
func WithCommands(commands ...Command) Option {
	return func(c *ExecClipboard) {
		if len(commands) > 0 {
			c.Commands = commands
		}
	}
}

// WithLookPath with executable lookup option
func WithLookPath(fn func(string) (string, error)) Option {
	return func(c *ExecClipboard) {
		if fn != nil {
			c.lookPath = fn
		}
	}
}

// WithGetenv with environment lookup option
func WithGetenv(fn func(string) string) Option {
	return func(c *ExecClipboard) {
		if fn != nil {
			c.getenv = fn
		}
	}
}

// WithWaitDelay with pipe wait delay option
func WithWaitDelay(delay time.Duration) Option {
	return func(c *ExecClipboard) {
		if delay > 0 {
			c.WaitDelay = delay
		}
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(c *ExecClipboard) {
		if logger != nil {
			c.Logger = logger
		}
	}
}
