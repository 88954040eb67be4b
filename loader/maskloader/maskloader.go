package maskloader

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/maskgif/maskgif"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultMaskPath default mask asset location
const DefaultMaskPath = "src/image.png"

// MaskLoader loads the mask asset once and shares it across runs.
// Concurrent callers are collapsed into a single load.
type MaskLoader struct {
	// Path file path or http(s) URL of the mask asset
	Path      string
	Transport http.RoundTripper
	Logger    *zap.Logger

	sf     singleflight.Group
	loaded atomic.Bool
	l      sync.RWMutex
	mask   image.Image
}

// New creates MaskLoader
func New(options ...Option) *MaskLoader {
	m := &MaskLoader{
		Path:   DefaultMaskPath,
		Logger: zap.NewNop(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Loaded reports whether the mask is ready
func (m *MaskLoader) Loaded() bool {
	return m.loaded.Load()
}

// EnsureLoaded implements maskgif.MaskLoader interface.
// Returns the cached mask when already loaded, otherwise loads it,
// a failed load is retried on the next call.
func (m *MaskLoader) EnsureLoaded(ctx context.Context) (image.Image, error) {
	if m.loaded.Load() {
		m.l.RLock()
		defer m.l.RUnlock()
		return m.mask, nil
	}
	ch := m.sf.DoChan("mask", func() (interface{}, error) {
		if m.loaded.Load() {
			m.l.RLock()
			defer m.l.RUnlock()
			return m.mask, nil
		}
		// detached from the caller so a canceled run does not poison waiters
		img, err := m.load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		m.l.Lock()
		m.mask = img
		m.l.Unlock()
		m.loaded.Store(true)
		m.Logger.Debug("mask loaded",
			zap.String("path", m.Path),
			zap.Int("width", img.Bounds().Dx()),
			zap.Int("height", img.Bounds().Dy()))
		return img, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *MaskLoader) load(ctx context.Context) (image.Image, error) {
	if m.Path == "" {
		return nil, maskgif.ErrMaskLoad.WithDetail("path not configured")
	}
	r, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = r.Close()
	}()
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, maskgif.ErrMaskLoad.WithDetail(err.Error())
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, maskgif.ErrMaskLoad.WithDetail("empty image")
	}
	return img, nil
}

func (m *MaskLoader) open(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(m.Path, "http://") && !strings.HasPrefix(m.Path, "https://") {
		f, err := os.Open(m.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, maskgif.ErrMaskLoad.WithDetail("not found " + m.Path)
			}
			return nil, maskgif.ErrMaskLoad.WithDetail(err.Error())
		}
		return f, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.Path, nil)
	if err != nil {
		return nil, maskgif.ErrMaskLoad.WithDetail(err.Error())
	}
	client := &http.Client{Transport: m.Transport}
	resp, err := client.Do(req)
	if err != nil {
		return nil, maskgif.ErrMaskLoad.WithDetail(err.Error())
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, maskgif.ErrMaskLoad.WithDetail(resp.Status)
	}
	return resp.Body, nil
}
