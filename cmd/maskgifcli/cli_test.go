package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maskgif/maskgif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	api, images *httptest.Server
	mask        string
	query       string
}

func newFixture(t *testing.T, posts string) *fixture {
	f := &fixture{}
	src := encodePNG(t, 300, 200, color.NRGBA{R: 200, A: 255})
	f.images = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(src)
	}))
	f.api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.query = r.URL.Query().Get("tags")
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, posts)
	}))
	t.Cleanup(f.api.Close)
	t.Cleanup(f.images.Close)
	f.mask = filepath.Join(t.TempDir(), "mask.png")
	require.NoError(t, os.WriteFile(f.mask, encodePNG(t, 30, 20, color.NRGBA{A: 128}), 0644))
	return f
}

func (f *fixture) args(extra ...string) []string {
	return append([]string{
		"generate",
		"--api-url", f.api.URL,
		"--proxy-url", f.images.URL + "/?url=",
		"--mask", f.mask,
	}, extra...)
}

const onePost = `{"posts":[{"id":42,"file":{"url":"https://static1.e621.net/data/a.png","ext":"png","width":300,"height":200}}]}`

func TestRunGenerate(t *testing.T) {
	f := newFixture(t, onePost)
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run(f.args("--output", dir, "-r", "q", "fox", "solo"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "order:random rating:questionable fox solo", f.query)

	fields := strings.Split(strings.TrimSpace(stdout.String()), "\t")
	require.Len(t, fields, 3)
	assert.Equal(t, "42", fields[1])
	assert.Equal(t, "300x200", fields[2])
	assert.True(t, strings.HasPrefix(filepath.Base(fields[0]), "e621-masked-42-"))

	buf, err := os.ReadFile(fields[0])
	require.NoError(t, err)
	g, err := gif.DecodeAll(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Len(t, g.Image, 1)
	assert.Equal(t, image.Rect(0, 0, 300, 200), g.Image[0].Bounds())
}

func TestRunGenerateStdout(t *testing.T) {
	f := newFixture(t, onePost)
	var stdout, stderr bytes.Buffer
	code := run(f.args("-o", "-"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.True(t, bytes.HasPrefix(stdout.Bytes(), []byte("GIF89a")))
}

func TestRunGenerateNoResults(t *testing.T) {
	f := newFixture(t, `{"posts":[]}`)
	var stdout, stderr bytes.Buffer
	code := run(f.args("-o", t.TempDir(), "nonexistent_tag_zzz"), &stdout, &stderr)
	assert.Equal(t, 3, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), maskgif.ErrNoResults.Message)
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--version"}, &stdout, &stderr))
	assert.Equal(t, maskgif.Version, strings.TrimSpace(stdout.String()))
}

func TestRunInvalidRating(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.NotEqual(t, 0, run([]string{"generate", "-r", "general"}, &stdout, &stderr))
	assert.NotEmpty(t, stderr.String())
}
