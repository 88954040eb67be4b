package maskgif

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalid syntactic invalid query error
	ErrInvalid = NewError("invalid", http.StatusBadRequest)
	// ErrBusy pipeline already running error
	ErrBusy = NewError("busy", http.StatusTooManyRequests)
	// ErrTimeout timeout error
	ErrTimeout = NewError("timeout", http.StatusRequestTimeout)
	// ErrInternal internal error
	ErrInternal = NewError("internal error", http.StatusInternalServerError)

	// ErrMaskLoad mask asset missing, corrupt or not configured
	ErrMaskLoad = NewError("mask load failed", http.StatusInternalServerError)
	// ErrMaskNotReady mask not loaded at composite time
	ErrMaskNotReady = NewError("mask not ready", http.StatusServiceUnavailable)

	// ErrAPI image search API error
	ErrAPI = NewError("api error", http.StatusBadGateway)
	// ErrNoResults image search returned no posts
	ErrNoResults = NewError("no results", http.StatusNotFound)
	// ErrUnsupportedFormat post file format unsupported or missing URL
	ErrUnsupportedFormat = NewError("unsupported format", http.StatusNotAcceptable)

	// ErrProxyTimeout proxy image load timeout
	ErrProxyTimeout = NewError("proxy timeout", http.StatusGatewayTimeout)
	// ErrProxyLoad proxy image load failed
	ErrProxyLoad = NewError("proxy load failed", http.StatusBadGateway)

	// ErrEncodeSetup encoder could not be started
	ErrEncodeSetup = NewError("encode setup failed", http.StatusInternalServerError)
	// ErrEncode encoder reported failure
	ErrEncode = NewError("encode failed", http.StatusInternalServerError)
	// ErrEncodeTimeout encoder did not finish in time
	ErrEncodeTimeout = NewError("encode timeout", http.StatusGatewayTimeout)

	// ErrNoResult no encoded result available for output actions
	ErrNoResult = NewError("no result", http.StatusNotFound)
	// ErrClipboardUnsupported clipboard write capability absent
	ErrClipboardUnsupported = NewError("clipboard unsupported", http.StatusNotImplemented)
	// ErrClipboardPermissionDenied clipboard write not allowed
	ErrClipboardPermissionDenied = NewError("clipboard permission denied", http.StatusForbidden)
	// ErrCopy generic clipboard copy error
	ErrCopy = NewError("copy failed", http.StatusInternalServerError)
	// ErrDownload download could not be produced or saved
	ErrDownload = NewError("download failed", http.StatusInternalServerError)

	// ErrNotFound storage key not found
	ErrNotFound = NewError("not found", http.StatusNotFound)
	// ErrExpired storage object expired
	ErrExpired = NewError("expired", http.StatusGone)
	// ErrPass storage does not handle the key
	ErrPass = NewError("pass", http.StatusBadRequest)
)

const errPrefix = "maskgif:"

var errMsgRegexp = regexp.MustCompile(fmt.Sprintf("^%s ([0-9]+) (.*)$", errPrefix))

// Error maskgif error convention
type Error struct {
	Message string `json:"message,omitempty"`
	Code    int    `json:"status,omitempty"`

	kind string
}

type timeoutErr interface {
	Timeout() bool
}

// Error implements error
func (e Error) Error() string {
	return fmt.Sprintf("%s %d %s", errPrefix, e.Code, e.Message)
}

// Timeout indicates if error is timeout
func (e Error) Timeout() bool {
	return e.Code == http.StatusRequestTimeout || e.Code == http.StatusGatewayTimeout
}

// Kind returns the sentinel message the error derives from
func (e Error) Kind() string {
	if e.kind != "" {
		return e.kind
	}
	return e.Message
}

// Is matches errors of the same kind regardless of detail
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind() == t.Kind()
}

// WithDetail returns a copy of the error kind carrying detail message
func (e Error) WithDetail(detail string) Error {
	if detail == "" {
		return e
	}
	return Error{
		Message: e.Kind() + ": " + detail,
		Code:    e.Code,
		kind:    e.Kind(),
	}
}

// NewError creates maskgif Error from message and status code
func NewError(msg string, code int) Error {
	return Error{Message: msg, Code: code}
}

// NewErrorFromStatusCode creates maskgif Error solely from status code
func NewErrorFromStatusCode(code int) Error {
	return NewError(http.StatusText(code), code)
}

// WrapError wraps Go error into maskgif Error
func WrapError(err error) Error {
	if err == nil {
		return ErrInternal
	}
	var e Error
	if errors.As(err, &e) {
		return e
	}
	if e, ok := err.(timeoutErr); ok {
		if e.Timeout() {
			return ErrTimeout
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if msg := err.Error(); errMsgRegexp.MatchString(msg) {
		if match := errMsgRegexp.FindStringSubmatch(msg); len(match) == 3 {
			code, _ := strconv.Atoi(match[1])
			return NewError(match[2], code)
		}
	}
	msg := strings.Replace(err.Error(), "\n", "", -1)
	return NewError(msg, http.StatusInternalServerError)
}
