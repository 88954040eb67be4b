package maskloader

import (
	"net/http"

	"go.uber.org/zap"
)

// Option MaskLoader option
type Option func(m *MaskLoader)

// WithPath with mask file path or URL option
func WithPath(path string) Option {
	return func(m *MaskLoader) {
		m.Path = path
	}
}

// WithTransport with custom http.RoundTripper transport option
func WithTransport(transport http.RoundTripper) Option {
	return func(m *MaskLoader) {
		if transport != nil {
			m.Transport = transport
		}
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(m *MaskLoader) {
		if logger != nil {
			m.Logger = logger
		}
	}
}
