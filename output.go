package maskgif

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Download a result prepared for saving
type Download struct {
	Filename string
	Blob     *Blob
	Result   *Result
}

// Copy writes the last result to the clipboard
func (app *App) Copy(ctx context.Context) error {
	res := app.Result()
	if res == nil || isEmpty(res.Blob) {
		return ErrNoResult
	}
	if app.Clipboard == nil {
		return ErrClipboardUnsupported
	}
	if err := app.Clipboard.Write(ctx, res.Blob); err != nil {
		app.Logger.Warn("copy", zap.String("post", res.PostID()), zap.Error(err))
		var e Error
		if errors.As(err, &e) {
			return e
		}
		return ErrCopy.WithDetail(err.Error())
	}
	app.Logger.Info("copied", zap.String("post", res.PostID()))
	return nil
}

// Download names the last result and saves it to the configured storages
func (app *App) Download(ctx context.Context) (*Download, error) {
	res := app.Result()
	if res == nil || isEmpty(res.Blob) {
		return nil, ErrNoResult
	}
	d := &Download{
		Filename: res.Filename(time.Now()),
		Blob:     res.Blob,
		Result:   res,
	}
	if err := app.save(ctx, d.Filename, res.Blob); err != nil {
		return d, ErrDownload.WithDetail(err.Error())
	}
	app.Logger.Info("download", zap.String("filename", d.Filename), zap.Int("storages", len(app.Storages)))
	return d, nil
}

// Saved loads a previously downloaded result from the storages
func (app *App) Saved(ctx context.Context, key string) (blob *Blob, err error) {
	if key == "" {
		return nil, ErrInvalid
	}
	err = ErrNoResult
	for _, storage := range app.Storages {
		b, e := storage.Get(ctx, key)
		if e == nil && !isEmpty(b) {
			return b, nil
		}
		if e != nil {
			err = e
		}
	}
	return nil, err
}

// SavedStat stats a previously downloaded result without reading it
func (app *App) SavedStat(ctx context.Context, key string) (stat *Stat, err error) {
	if key == "" {
		return nil, ErrInvalid
	}
	err = ErrNoResult
	for _, storage := range app.Storages {
		s, e := storage.Stat(ctx, key)
		if e == nil && s != nil {
			return s, nil
		}
		if e != nil {
			err = e
		}
	}
	return nil, err
}

func (app *App) save(ctx context.Context, key string, blob *Blob) error {
	if len(app.Storages) == 0 {
		return nil
	}
	// saves outlive the request that triggered them
	ctx = context.WithoutCancel(ctx)
	var cancel func()
	if app.SaveTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, app.SaveTimeout)
		defer cancel()
	}
	var wg sync.WaitGroup
	var l sync.Mutex
	var errs []error
	for _, storage := range app.Storages {
		wg.Add(1)
		go func(storage Storage) {
			defer wg.Done()
			if err := storage.Put(ctx, key, blob); err != nil {
				app.Logger.Warn("save", zap.String("key", key), zap.String("storage", getType(storage)), zap.Error(err))
				l.Lock()
				errs = append(errs, err)
				l.Unlock()
			} else if app.Debug {
				app.Logger.Debug("saved", zap.String("key", key), zap.String("storage", getType(storage)))
			}
		}(storage)
	}
	wg.Wait()
	return errors.Join(errs...)
}
