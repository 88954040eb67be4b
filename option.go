package maskgif

import (
	"time"

	"go.uber.org/zap"
)

// Option App option
type Option func(app *App)

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(app *App) {
		if logger != nil {
			app.Logger = logger
		}
	}
}

// WithSearcher with image searcher option
func WithSearcher(searcher Searcher) Option {
	return func(app *App) {
		app.Searcher = searcher
	}
}

// WithLoader with source image loader option
func WithLoader(loader Loader) Option {
	return func(app *App) {
		app.Loader = loader
	}
}

// WithMask with mask loader option
func WithMask(mask MaskLoader) Option {
	return func(app *App) {
		app.Mask = mask
	}
}

// WithProcessor with compositing processor option
func WithProcessor(processor Processor) Option {
	return func(app *App) {
		app.Processor = processor
	}
}

// WithEncoder with encoder option
func WithEncoder(encoder Encoder) Option {
	return func(app *App) {
		app.Encoder = encoder
	}
}

// WithStorages with download storages option
func WithStorages(storages ...Storage) Option {
	return func(app *App) {
		app.Storages = append(app.Storages, storages...)
	}
}

// WithClipboard with clipboard option
func WithClipboard(clipboard Clipboard) Option {
	return func(app *App) {
		app.Clipboard = clipboard
	}
}

// WithLoadTimeout with proxy load timeout option
func WithLoadTimeout(timeout time.Duration) Option {
	return func(app *App) {
		if timeout > 0 {
			app.LoadTimeout = timeout
		}
	}
}

// WithEncodeTimeout with encode timeout option
func WithEncodeTimeout(timeout time.Duration) Option {
	return func(app *App) {
		if timeout > 0 {
			app.EncodeTimeout = timeout
		}
	}
}

// WithSaveTimeout with storage save timeout option
func WithSaveTimeout(timeout time.Duration) Option {
	return func(app *App) {
		if timeout > 0 {
			app.SaveTimeout = timeout
		}
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(app *App) {
		app.Debug = debug
	}
}
