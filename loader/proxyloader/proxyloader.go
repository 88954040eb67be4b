package proxyloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/maskgif/maskgif"
	"go.uber.org/zap"

	// extra decoders registered for imaging.Decode
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultProxyURL public CORS relay, the target URL is appended query escaped
const DefaultProxyURL = "https://corsproxy.io/?url="

// ProxyLoader loads remote images through a relay endpoint
type ProxyLoader struct {
	// The Transport used to request images.
	// If nil, http.DefaultTransport is used.
	Transport http.RoundTripper

	// ProxyURL relay prefix, target URL is appended query escaped.
	// An empty prefix refuses every load unless Direct is set.
	ProxyURL string

	// Direct loads images from their source when ProxyURL is empty
	Direct bool

	OverrideHeaders map[string]string

	// AllowedSources list of host names allowed to load from,
	// supports glob patterns such as *.e621.net
	AllowedSources []string

	// Accept accepted response content types, supports glob patterns such as image/*
	Accept []string

	MaxAllowedSize int

	Logger *zap.Logger
}

// New creates ProxyLoader
func New(options ...Option) *ProxyLoader {
	h := &ProxyLoader{
		ProxyURL:        DefaultProxyURL,
		OverrideHeaders: map[string]string{},
		Accept:          []string{"image/*", "application/octet-stream"},
		Logger:          zap.NewNop(),
	}
	for _, option := range options {
		option(h)
	}
	if h.ProxyURL == "" && h.Direct {
		h.Logger.Warn("proxy url empty, loading images directly")
	}
	return h
}

// ProxiedURL returns the relay URL for image
func (h *ProxyLoader) ProxiedURL(imageURL string) string {
	if h.ProxyURL == "" {
		return imageURL
	}
	return h.ProxyURL + url.QueryEscape(imageURL)
}

// Load implements maskgif.Loader interface
func (h *ProxyLoader) Load(ctx context.Context, imageURL string) (image.Image, error) {
	buf, err := h.Get(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, maskgif.ErrProxyLoad.WithDetail(fmt.Sprintf("decode: %s", err.Error()))
	}
	return img, nil
}

// Get fetches raw image bytes through the relay
func (h *ProxyLoader) Get(ctx context.Context, imageURL string) ([]byte, error) {
	u, err := url.Parse(imageURL)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return nil, maskgif.ErrProxyLoad.WithDetail("invalid url " + imageURL)
	}
	if !h.isURLAllowed(u) {
		return nil, maskgif.ErrProxyLoad.WithDetail("source not allowed " + u.Host)
	}
	if h.ProxyURL == "" && !h.Direct {
		return nil, maskgif.ErrProxyLoad.WithDetail("proxy url missing")
	}
	target := h.ProxiedURL(imageURL)
	h.Logger.Debug("proxy load", zap.String("url", target))
	req, err := h.newRequest(ctx, target)
	if err != nil {
		return nil, maskgif.ErrProxyLoad.WithDetail(err.Error())
	}
	client := &http.Client{Transport: h.Transport}
	resp, err := client.Do(req)
	if err != nil {
		return nil, wrapErr(ctx, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, maskgif.ErrProxyLoad.WithDetail(fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}
	if contentType := resp.Header.Get("Content-Type"); contentType != "" && !validateContentType(contentType, h.Accept) {
		return nil, maskgif.ErrProxyLoad.WithDetail("unexpected content type " + contentType)
	}
	var body io.Reader = resp.Body
	if h.MaxAllowedSize > 0 {
		if resp.ContentLength > int64(h.MaxAllowedSize) {
			return nil, maskgif.ErrProxyLoad.WithDetail("maximum size exceeded")
		}
		body = io.LimitReader(resp.Body, int64(h.MaxAllowedSize)+1)
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		return nil, wrapErr(ctx, err)
	}
	if h.MaxAllowedSize > 0 && len(buf) > h.MaxAllowedSize {
		return nil, maskgif.ErrProxyLoad.WithDetail("maximum size exceeded")
	}
	if len(buf) == 0 {
		return nil, maskgif.ErrProxyLoad.WithDetail("empty body")
	}
	return buf, nil
}

func (h *ProxyLoader) newRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "maskgif/"+maskgif.Version)
	req.Header.Set("Accept", strings.Join(h.Accept, ","))
	for key, value := range h.OverrideHeaders {
		req.Header.Set(key, value)
	}
	return req, nil
}

func (h *ProxyLoader) isURLAllowed(u *url.URL) bool {
	if len(h.AllowedSources) == 0 {
		return true
	}
	for _, source := range h.AllowedSources {
		if matched, e := path.Match(source, u.Host); matched && e == nil {
			return true
		}
	}
	return false
}

func wrapErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return maskgif.ErrProxyTimeout
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return maskgif.ErrProxyLoad.WithDetail(err.Error())
}

func parseContentType(contentType string) string {
	idx := strings.Index(contentType, ";")
	if idx == -1 {
		idx = len(contentType)
	}
	return strings.TrimSpace(strings.ToLower(contentType[0:idx]))
}

func validateContentType(contentType string, accepts []string) bool {
	if len(accepts) == 0 {
		return true
	}
	contentType = parseContentType(contentType)
	for _, accept := range accepts {
		if ok, err := path.Match(accept, contentType); ok && err == nil {
			return true
		}
	}
	return false
}
