package s3storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/storage"
)

// S3Storage AWS S3 Storage implements maskgif.Storage interface
type S3Storage struct {
	Client *s3.Client
	Bucket string

	BaseDir        string
	PathPrefix     string
	ACL            string
	StorageClass   string
	SafeChars      string
	Expiration     time.Duration
	Endpoint       string
	ForcePathStyle bool

	escapeByte func(c byte) bool
}

// New creates S3Storage
func New(cfg aws.Config, bucket string, options ...Option) *S3Storage {
	baseDir := "/"
	if idx := strings.Index(bucket, "/"); idx > -1 {
		baseDir = bucket[idx:]
		bucket = bucket[:idx]
	}
	s := &S3Storage{
		Bucket: bucket,

		BaseDir:      baseDir,
		PathPrefix:   "/",
		ACL:          string(types.ObjectCannedACLPublicRead),
		StorageClass: string(types.StorageClassStandard),
	}
	for _, option := range options {
		option(s)
	}
	// https://docs.aws.amazon.com/AmazonS3/latest/userguide/object-keys.html#object-key-guidelines-safe-characters
	s.escapeByte = storage.SafeChars("!\"()*" + s.SafeChars)
	s.Client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
		o.UsePathStyle = s.ForcePathStyle
	})
	return s
}

// Path transforms and validates key for storage path
func (s *S3Storage) Path(key string) (string, bool) {
	key = "/" + storage.Normalize(key, s.escapeByte)
	if !strings.HasPrefix(key, s.PathPrefix) {
		return "", false
	}
	return filepath.Join(s.BaseDir, strings.TrimPrefix(key, s.PathPrefix)), true
}

// Get implements maskgif.Storage interface
func (s *S3Storage) Get(ctx context.Context, key string) (*maskgif.Blob, error) {
	defer storage.Observe("s3", "get", time.Now())
	key, ok := s.Path(key)
	if !ok {
		return nil, maskgif.ErrPass
	}
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	defer func() {
		_ = out.Body.Close()
	}()
	stat := &maskgif.Stat{
		ETag: aws.ToString(out.ETag),
		Size: aws.ToInt64(out.ContentLength),
	}
	if out.LastModified != nil {
		stat.ModifiedTime = *out.LastModified
		if s.Expiration > 0 && time.Since(*out.LastModified) > s.Expiration {
			return nil, maskgif.ErrExpired
		}
	}
	buf, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	blob := maskgif.NewBlobFromBytes(buf)
	if out.ContentType != nil {
		blob.SetContentType(*out.ContentType)
	}
	blob.Stat = stat
	return blob, nil
}

// Put implements maskgif.Storage interface
func (s *S3Storage) Put(ctx context.Context, key string, blob *maskgif.Blob) error {
	defer storage.Observe("s3", "put", time.Now())
	key, ok := s.Path(key)
	if !ok {
		return maskgif.ErrPass
	}
	buf, err := blob.ReadAll()
	if err != nil {
		return err
	}
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		ACL:           types.ObjectCannedACL(s.ACL),
		Body:          bytes.NewReader(buf),
		Bucket:        aws.String(s.Bucket),
		ContentType:   aws.String(blob.ContentType()),
		ContentLength: aws.Int64(int64(len(buf))),
		Key:           aws.String(key),
		StorageClass:  types.StorageClass(s.StorageClass),
	})
	return err
}

// Delete removes the object of key
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	key, ok := s.Path(key)
	if !ok {
		return maskgif.ErrPass
	}
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// Stat implements maskgif.Storage interface
func (s *S3Storage) Stat(ctx context.Context, key string) (*maskgif.Stat, error) {
	key, ok := s.Path(key)
	if !ok {
		return nil, maskgif.ErrPass
	}
	head, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	stat := &maskgif.Stat{
		ETag: aws.ToString(head.ETag),
		Size: aws.ToInt64(head.ContentLength),
	}
	if head.LastModified != nil {
		stat.ModifiedTime = *head.LastModified
	}
	return stat, nil
}

func wrapErr(err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return maskgif.ErrNotFound
	}
	return err
}
