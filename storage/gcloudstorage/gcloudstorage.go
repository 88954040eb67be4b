package gcloudstorage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/maskgif/maskgif"
	mgstorage "github.com/maskgif/maskgif/storage"
)

// GCloudStorage Google Cloud Storage implements maskgif.Storage interface
type GCloudStorage struct {
	BaseDir    string
	PathPrefix string
	ACL        string
	SafeChars  string
	Expiration time.Duration
	Bucket     string

	client     *storage.Client
	escapeByte func(c byte) bool
}

// New creates GCloudStorage
func New(client *storage.Client, bucket string, options ...Option) *GCloudStorage {
	s := &GCloudStorage{client: client, Bucket: bucket, PathPrefix: "/"}
	for _, option := range options {
		option(s)
	}
	s.escapeByte = mgstorage.SafeChars(s.SafeChars)
	return s
}

// Path transforms and validates key for storage path
func (s *GCloudStorage) Path(key string) (string, bool) {
	key = "/" + mgstorage.Normalize(key, s.escapeByte)
	if !strings.HasPrefix(key, s.PathPrefix) {
		return "", false
	}
	joinedPath := filepath.Join(s.BaseDir, strings.TrimPrefix(key, s.PathPrefix))
	// Google cloud paths don't need to start with "/"
	return strings.Trim(joinedPath, "/"), true
}

// Get implements maskgif.Storage interface
func (s *GCloudStorage) Get(ctx context.Context, key string) (*maskgif.Blob, error) {
	defer mgstorage.Observe("gcloud", "get", time.Now())
	attrs, err := s.attrs(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.Expiration > 0 && time.Since(attrs.Updated) > s.Expiration {
		return nil, maskgif.ErrExpired
	}
	reader, err := s.client.Bucket(s.Bucket).Object(attrs.Name).NewReader(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer func() {
		_ = reader.Close()
	}()
	buf, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	blob := maskgif.NewBlobFromBytes(buf)
	if attrs.ContentType != "" {
		blob.SetContentType(attrs.ContentType)
	}
	blob.Stat = stat(attrs)
	return blob, nil
}

// Put implements maskgif.Storage interface
func (s *GCloudStorage) Put(ctx context.Context, key string, blob *maskgif.Blob) (err error) {
	defer mgstorage.Observe("gcloud", "put", time.Now())
	key, ok := s.Path(key)
	if !ok {
		return maskgif.ErrPass
	}
	reader, _, err := blob.NewReader()
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()
	writer := s.client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	if s.ACL != "" {
		writer.PredefinedACL = s.ACL
	}
	writer.ContentType = blob.ContentType()
	if _, err := io.Copy(writer, reader); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// Delete removes the object of key
func (s *GCloudStorage) Delete(ctx context.Context, key string) error {
	key, ok := s.Path(key)
	if !ok {
		return maskgif.ErrPass
	}
	return wrapErr(s.client.Bucket(s.Bucket).Object(key).Delete(ctx))
}

// Stat implements maskgif.Storage interface
func (s *GCloudStorage) Stat(ctx context.Context, key string) (*maskgif.Stat, error) {
	attrs, err := s.attrs(ctx, key)
	if err != nil {
		return nil, err
	}
	return stat(attrs), nil
}

func (s *GCloudStorage) attrs(ctx context.Context, key string) (*storage.ObjectAttrs, error) {
	key, ok := s.Path(key)
	if !ok {
		return nil, maskgif.ErrPass
	}
	attrs, err := s.client.Bucket(s.Bucket).Object(key).Attrs(ctx)
	if err != nil {
		return nil, wrapErr(err)
	}
	return attrs, nil
}

func stat(attrs *storage.ObjectAttrs) *maskgif.Stat {
	return &maskgif.Stat{
		Size:         attrs.Size,
		ETag:         attrs.Etag,
		ModifiedTime: attrs.Updated,
	}
}

func wrapErr(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return maskgif.ErrNotFound
	}
	return err
}
