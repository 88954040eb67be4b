package maskgif

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"
)

// Blob abstraction for encoded image bytes and attributes
type Blob struct {
	buf  []byte
	once sync.Once

	contentType string

	Stat *Stat
}

// Stat blob stat attributes
type Stat struct {
	ModifiedTime time.Time
	ETag         string
	Size         int64
}

var jpegHeader = []byte("\xFF\xD8\xFF")
var gifHeader = []byte("\x47\x49\x46")
var webpHeader = []byte("\x57\x45\x42\x50")
var pngHeader = []byte("\x89\x50\x4E\x47")

// NewBlobFromBytes creates Blob from bytes
func NewBlobFromBytes(buf []byte) *Blob {
	return &Blob{buf: buf}
}

// NewEmptyBlob creates an empty Blob
func NewEmptyBlob() *Blob {
	return &Blob{}
}

func (b *Blob) sniffOnce() {
	b.once.Do(func() {
		if b.contentType != "" {
			return
		}
		switch {
		case len(b.buf) == 0:
			b.contentType = "application/octet-stream"
		case bytes.HasPrefix(b.buf, gifHeader):
			b.contentType = "image/gif"
		case bytes.HasPrefix(b.buf, pngHeader):
			b.contentType = "image/png"
		case bytes.HasPrefix(b.buf, jpegHeader):
			b.contentType = "image/jpeg"
		case len(b.buf) > 12 && bytes.Equal(b.buf[8:12], webpHeader):
			b.contentType = "image/webp"
		default:
			b.contentType = http.DetectContentType(b.buf)
		}
	})
}

// IsEmpty check if blob is empty
func (b *Blob) IsEmpty() bool {
	return b == nil || len(b.buf) == 0
}

// ContentType returns content type sniffed from the blob header
func (b *Blob) ContentType() string {
	b.sniffOnce()
	return b.contentType
}

// SetContentType overrides the sniffed content type
func (b *Blob) SetContentType(contentType string) {
	b.sniffOnce()
	b.contentType = contentType
}

// Size returns blob size in bytes
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.buf))
}

// ReadAll reads all bytes from Blob
func (b *Blob) ReadAll() ([]byte, error) {
	if b.IsEmpty() {
		return nil, ErrNoResult
	}
	return b.buf, nil
}

// NewReader creates new io.ReadCloser of the blob bytes
func (b *Blob) NewReader() (io.ReadCloser, int64, error) {
	if b.IsEmpty() {
		return nil, 0, ErrNoResult
	}
	return io.NopCloser(bytes.NewReader(b.buf)), int64(len(b.buf)), nil
}

func isEmpty(b *Blob) bool {
	return b == nil || b.IsEmpty()
}
