package gifencoder

import (
	"image/color"
	"time"

	"go.uber.org/zap"
)

// Option GIFEncoder option
type Option func(e *GIFEncoder)

// WithWorkers with worker concurrency option
func WithWorkers(workers int) Option {
	return func(e *GIFEncoder) {
		if workers > 0 {
			e.Workers = workers
		}
	}
}

// WithQuality with palette sampling stride option, lower is better
func WithQuality(quality int) Option {
	return func(e *GIFEncoder) {
		if quality > 0 {
			e.Quality = quality
		}
	}
}

// WithDelay with frame delay option
func WithDelay(delay time.Duration) Option {
	return func(e *GIFEncoder) {
		if delay >= 0 {
			e.Delay = delay
		}
	}
}

// WithTransparent with transparent color option
func WithTransparent(c color.RGBA) Option {
	return func(e *GIFEncoder) {
		e.Transparent = c
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(e *GIFEncoder) {
		if logger != nil {
			e.Logger = logger
		}
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(e *GIFEncoder) {
		e.Debug = debug
	}
}
