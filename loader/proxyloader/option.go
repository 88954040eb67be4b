package proxyloader

import (
	"crypto/tls"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Option ProxyLoader option
type Option func(h *ProxyLoader)

// WithTransport with custom http.RoundTripper transport option
func WithTransport(transport http.RoundTripper) Option {
	return func(h *ProxyLoader) {
		if transport != nil {
			h.Transport = transport
		}
	}
}

// WithInsecureSkipVerifyTransport with insecure HTTPs option
func WithInsecureSkipVerifyTransport(enable bool) Option {
	return func(h *ProxyLoader) {
		if enable {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
			h.Transport = transport
		}
	}
}

// WithProxyURL with relay prefix option
func WithProxyURL(proxyURL string) Option {
	return func(h *ProxyLoader) {
		h.ProxyURL = proxyURL
	}
}

// WithDirect with direct loading option, used only when the relay prefix is empty
func WithDirect(enable bool) Option {
	return func(h *ProxyLoader) {
		h.Direct = enable
	}
}

// WithOverrideHeader with override request header option
func WithOverrideHeader(name, value string) Option {
	return func(h *ProxyLoader) {
		h.OverrideHeaders[name] = value
	}
}

// WithAllowedSources with allowed source hosts option, accepts comma separated globs
func WithAllowedSources(hosts ...string) Option {
	return func(h *ProxyLoader) {
		for _, raw := range hosts {
			for _, host := range strings.Split(raw, ",") {
				if host = strings.TrimSpace(host); host != "" {
					h.AllowedSources = append(h.AllowedSources, host)
				}
			}
		}
	}
}

// WithAccept with accepted content types option, accepts comma separated globs
func WithAccept(contentTypes string) Option {
	return func(h *ProxyLoader) {
		if contentTypes == "" {
			return
		}
		var accepts []string
		for _, v := range strings.Split(contentTypes, ",") {
			if v = parseContentType(v); v != "" {
				accepts = append(accepts, v)
			}
		}
		h.Accept = accepts
	}
}

// WithMaxAllowedSize with maximum response body size option
func WithMaxAllowedSize(maxAllowedSize int) Option {
	return func(h *ProxyLoader) {
		if maxAllowedSize > 0 {
			h.MaxAllowedSize = maxAllowedSize
		}
	}
}

// WithLogger with logger option
func WithLogger(logger *zap.Logger) Option {
	return func(h *ProxyLoader) {
		if logger != nil {
			h.Logger = logger
		}
	}
}
