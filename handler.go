package maskgif

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const filePathPrefix = "/file/"

// ServeHTTP implements http.Handler for maskgif operations
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.EscapedPath()
	switch {
	case path == "/" || path == "":
		if !isRead(r) {
			resError(w, r, NewErrorFromStatusCode(http.StatusMethodNotAllowed))
			return
		}
		resJSON(w, json.RawMessage(fmt.Sprintf(
			`{"maskgif":{"version":"%s","busy":%t}}`, Version, app.Busy(),
		)))
	case path == "/generate":
		if !isRead(r) && r.Method != http.MethodPost {
			resError(w, r, NewErrorFromStatusCode(http.StatusMethodNotAllowed))
			return
		}
		app.handleGenerate(w, r)
	case path == "/result":
		if !isRead(r) {
			resError(w, r, NewErrorFromStatusCode(http.StatusMethodNotAllowed))
			return
		}
		res := app.Result()
		if res == nil {
			resError(w, r, ErrNoResult)
			return
		}
		resJSON(w, res)
	case path == "/preview":
		if !isRead(r) {
			resError(w, r, NewErrorFromStatusCode(http.StatusMethodNotAllowed))
			return
		}
		app.handlePreview(w, r)
	case path == "/download":
		if !isRead(r) {
			resError(w, r, NewErrorFromStatusCode(http.StatusMethodNotAllowed))
			return
		}
		app.handleDownload(w, r)
	case path == "/copy":
		if r.Method != http.MethodPost {
			resError(w, r, NewErrorFromStatusCode(http.StatusMethodNotAllowed))
			return
		}
		if err := app.Copy(r.Context()); err != nil {
			resError(w, r, err)
			return
		}
		resJSON(w, json.RawMessage(`{"copied":true}`))
	case strings.HasPrefix(path, filePathPrefix):
		if !isRead(r) {
			resError(w, r, NewErrorFromStatusCode(http.StatusMethodNotAllowed))
			return
		}
		key := strings.TrimPrefix(path, filePathPrefix)
		if r.Method == http.MethodHead {
			app.headSaved(w, r, key)
			return
		}
		blob, err := app.Saved(r.Context(), key)
		if err != nil {
			resError(w, r, err)
			return
		}
		app.writeBlob(w, r, blob)
	default:
		resError(w, r, NewErrorFromStatusCode(http.StatusNotFound))
	}
}

func (app *App) handleGenerate(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		resError(w, r, err)
		return
	}
	res, err := app.Generate(r.Context(), q)
	if err != nil {
		resError(w, r, err)
		return
	}
	setResultHeaders(w, res)
	app.writeBlob(w, r, res.Blob)
}

func (app *App) handlePreview(w http.ResponseWriter, r *http.Request) {
	res := app.Result()
	if res == nil || res.Surface == nil {
		resError(w, r, ErrNoResult)
		return
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, res.Surface.Frame(), imaging.PNG); err != nil {
		resError(w, r, ErrInternal.WithDetail(err.Error()))
		return
	}
	blob := NewBlobFromBytes(buf.Bytes())
	setResultHeaders(w, res)
	app.writeBlob(w, r, blob)
}

func (app *App) handleDownload(w http.ResponseWriter, r *http.Request) {
	d, err := app.Download(r.Context())
	if d == nil {
		resError(w, r, err)
		return
	}
	if err != nil {
		// the file is still served, only saving failed
		w.Header().Set("X-Warning", WrapError(err).Message)
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": d.Filename,
	}))
	setResultHeaders(w, d.Result)
	app.writeBlob(w, r, d.Blob)
}

func (app *App) headSaved(w http.ResponseWriter, r *http.Request, key string) {
	stat, err := app.SavedStat(r.Context(), key)
	if err != nil {
		resError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size, 10))
	if !stat.ModifiedTime.IsZero() {
		w.Header().Set("Last-Modified", stat.ModifiedTime.UTC().Format(http.TimeFormat))
	}
	if stat.ETag != "" {
		w.Header().Set("ETag", stat.ETag)
	}
	w.WriteHeader(http.StatusOK)
}

func (app *App) writeBlob(w http.ResponseWriter, r *http.Request, blob *Blob) {
	reader, size, err := blob.NewReader()
	if err != nil {
		resError(w, r, err)
		return
	}
	defer func() {
		_ = reader.Close()
	}()
	w.Header().Set("Content-Type", blob.ContentType())
	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		if _, err := io.Copy(w, reader); err != nil && app.Debug {
			app.Logger.Debug("write body", zap.Error(err))
		}
	}
}

func parseQuery(r *http.Request) (q Query, err error) {
	values := r.URL.Query()
	if r.Method == http.MethodPost {
		if err = r.ParseForm(); err != nil {
			return q, ErrInvalid.WithDetail(err.Error())
		}
		values = r.Form
	}
	q.Tags = values.Get("tags")
	q.Rating, err = ParseRating(values.Get("rating"))
	return
}

func setResultHeaders(w http.ResponseWriter, res *Result) {
	if res == nil {
		return
	}
	w.Header().Set("X-Post-Id", res.PostID())
	for _, warning := range res.Warnings {
		w.Header().Add("X-Warning", warning)
	}
}

func isRead(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

func resError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(r.Context().Err(), context.Canceled) {
		return
	}
	e := WrapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code)
	if r.Method != http.MethodHead {
		buf, _ := json.Marshal(e)
		_, _ = w.Write(buf)
	}
}

func resJSON(w http.ResponseWriter, v interface{}) {
	buf, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	_, _ = w.Write(buf)
}
