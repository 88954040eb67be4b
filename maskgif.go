package maskgif

import (
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maskgif/maskgif/metrics/instrumentation"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Version maskgif version
const Version = "1.0.0"

// Searcher finds one random post matching the query
type Searcher interface {
	Search(ctx context.Context, q Query) (*Post, error)
}

// Loader loads remote image into a drawable image
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// MaskLoader loads and caches the overlay mask
type MaskLoader interface {
	EnsureLoaded(ctx context.Context) (image.Image, error)
	Loaded() bool
}

// Processor composites source image and mask onto a new surface
type Processor interface {
	Process(ctx context.Context, src, mask image.Image, post *Post) (*Surface, error)
}

// Encoder encodes a single frame into an animated image
type Encoder interface {
	Encode(ctx context.Context, frame *image.RGBA) (*Blob, error)
}

// Storage load and save encoded results
type Storage interface {
	Get(ctx context.Context, key string) (*Blob, error)
	Put(ctx context.Context, key string, blob *Blob) error
	Stat(ctx context.Context, key string) (*Stat, error)
}

// Clipboard writes encoded results to the system clipboard
type Clipboard interface {
	Write(ctx context.Context, blob *Blob) error
}

// App masked GIF pipeline
type App struct {
	Searcher      Searcher
	Loader        Loader
	Mask          MaskLoader
	Processor     Processor
	Encoder       Encoder
	Storages      []Storage
	Clipboard     Clipboard
	LoadTimeout   time.Duration
	EncodeTimeout time.Duration
	SaveTimeout   time.Duration
	Logger        *zap.Logger
	Debug         bool

	sema    *semaphore.Weighted
	running atomic.Bool
	l       sync.RWMutex
	result  *Result
}

// run state owned exclusively by the active pipeline
type run struct {
	query    Query
	post     *Post
	source   image.Image
	mask     image.Image
	surface  *Surface
	warnings []string
}

// New create new App
func New(options ...Option) *App {
	app := &App{
		Logger:        zap.NewNop(),
		LoadTimeout:   time.Second * 25,
		EncodeTimeout: time.Second * 60,
		SaveTimeout:   time.Second * 20,
	}
	for _, option := range options {
		option(app)
	}
	app.sema = semaphore.NewWeighted(1)
	if app.Debug {
		app.debugLog()
	}
	return app
}

// Startup App startup lifecycle, preloads the mask
func (app *App) Startup(ctx context.Context) error {
	if app.Mask == nil {
		return nil
	}
	if _, err := app.Mask.EnsureLoaded(ctx); err != nil {
		// generation reports the failure again on every run
		app.Logger.Error("mask", zap.Error(err))
		return nil
	}
	app.Logger.Info("mask ready")
	return nil
}

// Shutdown App shutdown lifecycle
func (app *App) Shutdown(_ context.Context) error {
	app.setResult(nil)
	return nil
}

// Busy reports whether a pipeline run is in progress
func (app *App) Busy() bool {
	return app.running.Load()
}

// Result returns the last encoded result, nil if none
func (app *App) Result() *Result {
	app.l.RLock()
	defer app.l.RUnlock()
	return app.result
}

func (app *App) setResult(res *Result) {
	app.l.Lock()
	app.result = res
	app.l.Unlock()
}

// Generate runs one fetch, composite and encode pipeline.
// Returns ErrBusy without side effects if another run is active.
func (app *App) Generate(ctx context.Context, q Query) (*Result, error) {
	if !app.sema.TryAcquire(1) {
		if app.Debug {
			app.Logger.Debug("busy", zap.String("query", q.String()))
		}
		return nil, ErrBusy
	}
	app.running.Store(true)
	defer func() {
		app.running.Store(false)
		app.sema.Release(1)
	}()
	app.setResult(nil)

	var start = time.Now()
	r := &run{query: q}
	res, err := app.do(ctx, r)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			app.Logger.Debug("generate canceled", zap.String("query", q.String()))
		} else {
			app.Logger.Warn("generate", zap.String("query", q.String()), zap.Error(err))
		}
		instrumentation.ObserveRun(instrumentation.StatusOf(err), time.Since(start))
		return nil, err
	}
	app.setResult(res)
	instrumentation.ObserveRun(instrumentation.StatusOf(nil), time.Since(start))
	app.Logger.Info("generated",
		zap.String("post", res.PostID()),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Int64("size", res.Blob.Size()),
		zap.Duration("duration", time.Since(start)),
	)
	return res, nil
}

func (app *App) do(ctx context.Context, r *run) (res *Result, err error) {
	if err = app.stage("mask", func() (e error) {
		r.mask, e = app.ensureMask(ctx)
		return
	}); err != nil {
		return
	}
	if err = app.stage("search", func() (e error) {
		r.post, e = app.search(ctx, r.query)
		return
	}); err != nil {
		return
	}
	if r.post.Animated() {
		r.warnings = append(r.warnings, "animated source, first frame only")
		app.Logger.Warn("animated source", zap.Int64("post", r.post.ID))
	}
	if err = app.stage("load", func() (e error) {
		r.source, e = app.load(ctx, r.post)
		return
	}); err != nil {
		return
	}
	if err = app.stage("composite", func() (e error) {
		r.surface, e = app.composite(ctx, r)
		return
	}); err != nil {
		return
	}
	var blob *Blob
	if err = app.stage("encode", func() (e error) {
		blob, e = app.encode(ctx, r.surface)
		return
	}); err != nil {
		return
	}
	return &Result{
		Post:      r.post,
		Width:     r.surface.Width(),
		Height:    r.surface.Height(),
		Keyed:     r.surface.Keyed,
		Warnings:  r.warnings,
		CreatedAt: time.Now(),
		Blob:      blob,
		Surface:   r.surface,
	}, nil
}

func (app *App) stage(name string, fn func() error) error {
	timer := instrumentation.NewStageTimer(name)
	err := fn()
	timer.ObserveDuration(err)
	if app.Debug {
		app.Logger.Debug(name, zap.Duration("duration", timer.Elapsed()), zap.Error(err))
	}
	return err
}

func (app *App) ensureMask(ctx context.Context) (image.Image, error) {
	if app.Mask == nil {
		return nil, ErrMaskLoad.WithDetail("mask source not set")
	}
	mask, err := app.Mask.EnsureLoaded(ctx)
	if err != nil {
		if errors.Is(err, ErrMaskLoad) {
			return nil, err
		}
		return nil, ErrMaskLoad.WithDetail(err.Error())
	}
	return mask, nil
}

func (app *App) search(ctx context.Context, q Query) (*Post, error) {
	if app.Searcher == nil {
		return nil, ErrAPI.WithDetail("searcher not configured")
	}
	post, err := app.Searcher.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if err = post.Validate(); err != nil {
		return nil, err
	}
	return post, nil
}

func (app *App) load(ctx context.Context, post *Post) (image.Image, error) {
	if app.Loader == nil {
		return nil, ErrProxyLoad.WithDetail("loader not configured")
	}
	var cancel func()
	if app.LoadTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, app.LoadTimeout)
		defer cancel()
	}
	img, err := app.Loader.Load(ctx, post.URL)
	if err == nil && (img == nil || img.Bounds().Empty()) {
		err = ErrProxyLoad.WithDetail("empty image")
	}
	if err == nil {
		return img, nil
	}
	if errors.Is(err, ErrProxyTimeout) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, ErrProxyTimeout.WithDetail(fmt.Sprintf("post %d", post.ID))
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}
	if errors.Is(err, ErrProxyLoad) {
		return nil, err
	}
	return nil, ErrProxyLoad.WithDetail(fmt.Sprintf("post %d: %s", post.ID, err.Error()))
}

func (app *App) composite(ctx context.Context, r *run) (*Surface, error) {
	if app.Mask == nil || !app.Mask.Loaded() || r.mask == nil || r.mask.Bounds().Empty() {
		return nil, ErrMaskNotReady
	}
	if app.Processor == nil {
		return nil, ErrInternal.WithDetail("processor not configured")
	}
	return app.Processor.Process(ctx, r.source, r.mask, r.post)
}

func (app *App) debugLog() {
	if !app.Debug {
		return
	}
	var storages []string
	for _, v := range app.Storages {
		storages = append(storages, getType(v))
	}
	app.Logger.Debug("maskgif",
		zap.String("version", Version),
		zap.Duration("load_timeout", app.LoadTimeout),
		zap.Duration("encode_timeout", app.EncodeTimeout),
		zap.Duration("save_timeout", app.SaveTimeout),
		zap.String("searcher", getType(app.Searcher)),
		zap.String("loader", getType(app.Loader)),
		zap.String("processor", getType(app.Processor)),
		zap.String("encoder", getType(app.Encoder)),
		zap.String("clipboard", getType(app.Clipboard)),
		zap.Strings("storages", storages),
	)
}

func getType(v interface{}) string {
	if v == nil {
		return ""
	}
	if t := reflect.TypeOf(v); t.Kind() == reflect.Ptr {
		return t.Elem().Name()
	} else {
		return t.Name()
	}
}
