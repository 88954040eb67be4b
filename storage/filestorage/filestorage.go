package filestorage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/storage"
)

var dotFileRegex = regexp.MustCompile("/\\.")

// FileStorage saves results under a local directory
type FileStorage struct {
	BaseDir         string
	PathPrefix      string
	Blacklists      []*regexp.Regexp
	MkdirPermission os.FileMode
	WritePermission os.FileMode
	SaveErrIfExists bool
	SafeChars       string
	Expiration      time.Duration

	escapeByte func(c byte) bool
}

// New creates FileStorage
func New(baseDir string, options ...Option) *FileStorage {
	s := &FileStorage{
		BaseDir:         baseDir,
		PathPrefix:      "/",
		Blacklists:      []*regexp.Regexp{dotFileRegex},
		MkdirPermission: 0755,
		WritePermission: 0666,
	}
	for _, option := range options {
		option(s)
	}
	s.escapeByte = storage.SafeChars(s.SafeChars)
	return s
}

// Path returns the file path of key, false if key is not handled
func (s *FileStorage) Path(key string) (string, bool) {
	key = "/" + storage.Normalize(key, s.escapeByte)
	for _, blacklist := range s.Blacklists {
		if blacklist.MatchString(key) {
			return "", false
		}
	}
	if !strings.HasPrefix(key, s.PathPrefix) {
		return "", false
	}
	return filepath.Join(s.BaseDir, strings.TrimPrefix(key, s.PathPrefix)), true
}

// Get implements maskgif.Storage interface
func (s *FileStorage) Get(_ context.Context, key string) (*maskgif.Blob, error) {
	defer storage.Observe("file", "get", time.Now())
	p, ok := s.Path(key)
	if !ok {
		return nil, maskgif.ErrPass
	}
	stats, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, maskgif.ErrNotFound
		}
		return nil, err
	}
	if s.Expiration > 0 && time.Since(stats.ModTime()) > s.Expiration {
		return nil, maskgif.ErrExpired
	}
	buf, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	blob := maskgif.NewBlobFromBytes(buf)
	blob.Stat = &maskgif.Stat{
		Size:         stats.Size(),
		ModifiedTime: stats.ModTime(),
	}
	return blob, nil
}

// Put implements maskgif.Storage interface
func (s *FileStorage) Put(_ context.Context, key string, blob *maskgif.Blob) (err error) {
	defer storage.Observe("file", "put", time.Now())
	p, ok := s.Path(key)
	if !ok {
		return maskgif.ErrPass
	}
	buf, err := blob.ReadAll()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(p), s.MkdirPermission); err != nil {
		return
	}
	flag := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if s.SaveErrIfExists {
		flag = os.O_RDWR | os.O_CREATE | os.O_EXCL
	}
	w, err := os.OpenFile(p, flag, s.WritePermission)
	if err != nil {
		return
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = w.Write(buf)
	return
}

// Stat implements maskgif.Storage interface
func (s *FileStorage) Stat(_ context.Context, key string) (*maskgif.Stat, error) {
	p, ok := s.Path(key)
	if !ok {
		return nil, maskgif.ErrPass
	}
	stats, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, maskgif.ErrNotFound
		}
		return nil, err
	}
	return &maskgif.Stat{
		Size:         stats.Size(),
		ModifiedTime: stats.ModTime(),
	}, nil
}
