package filestorage

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/maskgif/maskgif/storage"
)

// Option FileStorage option
type Option func(h *FileStorage)

// WithPathPrefix with key prefix option
func WithPathPrefix(prefix string) Option {
	return func(s *FileStorage) {
		if prefix != "" {
			s.PathPrefix = storage.PathPrefix(prefix)
		}
	}
}

// WithBlacklist with key blacklist option
func WithBlacklist(blacklist *regexp.Regexp) Option {
	return func(s *FileStorage) {
		if blacklist != nil {
			s.Blacklists = append(s.Blacklists, blacklist)
		}
	}
}

// WithMkdirPermission with octal directory permission option
func WithMkdirPermission(perm string) Option {
	return func(h *FileStorage) {
		if perm != "" {
			if fm, err := strconv.ParseUint(perm, 0, 32); err == nil {
				h.MkdirPermission = os.FileMode(fm)
			}
		}
	}
}

// WithWritePermission with octal file permission option
func WithWritePermission(perm string) Option {
	return func(h *FileStorage) {
		if perm != "" {
			if fm, err := strconv.ParseUint(perm, 0, 32); err == nil {
				h.WritePermission = os.FileMode(fm)
			}
		}
	}
}

// WithSaveErrIfExists with fail on existing file option
func WithSaveErrIfExists(saveErrIfExists bool) Option {
	return func(h *FileStorage) {
		h.SaveErrIfExists = saveErrIfExists
	}
}

// WithSafeChars with unescaped chars option
func WithSafeChars(chars string) Option {
	return func(h *FileStorage) {
		if chars != "" {
			h.SafeChars = chars
		}
	}
}

// WithExpiration with object expiration option
func WithExpiration(exp time.Duration) Option {
	return func(h *FileStorage) {
		if exp > 0 {
			h.Expiration = exp
		}
	}
}
