package prometheusmetrics

import "go.uber.org/zap"

// Option PrometheusMetrics option
type Option func(s *PrometheusMetrics)

// WithHost with server address option
func WithHost(address string) Option {
	return func(s *PrometheusMetrics) {
		s.Host = address
	}
}

// WithPort with port option
func WithPort(port int) Option {
	return func(s *PrometheusMetrics) {
		s.Port = port
	}
}

// WithAddr with address and port option, overrides WithHost and WithPort
func WithAddr(addr string) Option {
	return func(s *PrometheusMetrics) {
		s.Addr = addr
	}
}

// WithPath with path option
func WithPath(path string) Option {
	return func(s *PrometheusMetrics) {
		if path != "" {
			s.Path = path
		}
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(s *PrometheusMetrics) {
		if logger != nil {
			s.Logger = logger
		}
	}
}
