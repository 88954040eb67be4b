package maskgif

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	var err error
	var e Error

	assert.Equal(t, WrapError(nil), ErrInternal)

	assert.Equal(t, ErrBusy, WrapError(ErrBusy))

	err = NewError("errorrrr", 167)
	assert.Equal(t, WrapError(errors.New(err.Error())), err)

	assert.Equal(t, ErrTimeout, WrapError(context.DeadlineExceeded))

	assert.Equal(t, true, ErrTimeout.Timeout())
	assert.Equal(t, true, ErrProxyTimeout.Timeout())
	assert.Equal(t, false, ErrProxyLoad.Timeout())

	assert.Equal(t, ErrTimeout, WrapError(&url.Error{Err: context.DeadlineExceeded}))

	err = errors.New("asdfsdfsaf")
	e = WrapError(err)
	assert.Equal(t, 500, e.Code)
	assert.Contains(t, e.Error(), err.Error())

	e = NewErrorFromStatusCode(403)
	assert.Equal(t, 403, e.Code)
	assert.Contains(t, e.Error(), http.StatusText(403))

	err = &net.DNSError{IsTimeout: true}
	assert.Equal(t, ErrTimeout, WrapError(err))
}

func TestError_WithDetail(t *testing.T) {
	e := ErrUnsupportedFormat.WithDetail("webm")
	assert.Equal(t, "unsupported format: webm", e.Message)
	assert.Equal(t, "maskgif: 406 unsupported format: webm", e.Error())
	assert.True(t, errors.Is(e, ErrUnsupportedFormat))
	assert.False(t, errors.Is(e, ErrProxyLoad))
	assert.Equal(t, "unsupported format", e.Kind())

	// detail on detail keeps the sentinel kind
	e = e.WithDetail("mp4")
	assert.Equal(t, "unsupported format: mp4", e.Message)
	assert.ErrorIs(t, e, ErrUnsupportedFormat)

	assert.Equal(t, ErrCopy, ErrCopy.WithDetail(""))

	wrapped := WrapError(ErrProxyTimeout.WithDetail("post 1"))
	assert.ErrorIs(t, wrapped, ErrProxyTimeout)
	assert.Equal(t, http.StatusGatewayTimeout, wrapped.Code)
}
