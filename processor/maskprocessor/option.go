package maskprocessor

import (
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// Option MaskProcessor option
type Option func(p *MaskProcessor)

// WithMaxWidth with surface width limit option
func WithMaxWidth(width int) Option {
	return func(p *MaskProcessor) {
		if width > 0 {
			p.MaxWidth = width
		}
	}
}

// WithScaler with resampling kernel option, defaults to CatmullRom
func WithScaler(scaler draw.Scaler) Option {
	return func(p *MaskProcessor) {
		if scaler != nil {
			p.scaler = scaler
		}
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(p *MaskProcessor) {
		if logger != nil {
			p.Logger = logger
		}
	}
}

// WithDebug with debug option
func WithDebug(debug bool) Option {
	return func(p *MaskProcessor) {
		p.Debug = debug
	}
}
