package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/maskgif/maskgif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testApp struct {
	StartupCnt  int
	ShutdownCnt int
	busy        bool
}

func (app *testApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "" && r.URL.Path != "/generate" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte("foo"))
}

func (app *testApp) Startup(ctx context.Context) error {
	app.StartupCnt++
	return nil
}

func (app *testApp) Shutdown(ctx context.Context) error {
	app.ShutdownCnt++
	return nil
}

func (app *testApp) Busy() bool {
	return app.busy
}

func boomMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Foo", "Bar")
		if strings.Contains(r.URL.String(), "boom") {
			panic("booooom")
		}
		next.ServeHTTP(w, r)
	})
}

func TestServer_Run(t *testing.T) {
	ctx, done := context.WithCancel(context.Background())
	app := &testApp{}
	s := New(app,
		WithDebug(true),
		WithAddr(":0"),
		WithStartupTimeout(time.Millisecond),
		WithShutdownTimeout(time.Millisecond),
		WithMetrics(nil),
		WithLogger(zap.NewExample()))
	go func() {
		time.Sleep(time.Millisecond)
		done()
	}()
	s.RunContext(ctx)
	assert.Equal(t, 1, app.StartupCnt)
	assert.Equal(t, 1, app.ShutdownCnt)
}

func TestServer(t *testing.T) {
	s := New(&testApp{},
		WithAccessLog(true),
		WithMiddleware(boomMiddleware),
		WithCORS(true),
	)

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/favicon.ico", nil))
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, w.Header().Get("Vary"))
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "https://example.com/favicon.ico", nil))
	assert.Equal(t, 405, w.Code)

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/healthcheck", nil))
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/generate?tags=fox", nil))
	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, w.Header().Get("Vary"))
	assert.Equal(t, "foo", w.Body.String())

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/generate?boom", nil))
	assert.Equal(t, 500, w.Code)
	assert.NotEmpty(t, w.Header().Get("Vary"))
	assert.Equal(t, "Bar", w.Header().Get("X-Foo"))
	assert.Equal(t, `{"message":"booooom","status":500}`, w.Body.String())
}

func TestServer_CORSExposedHeaders(t *testing.T) {
	s := New(&testApp{}, WithCORS(true))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com/generate", nil)
	r.Header.Set("Origin", "https://foo.com")
	s.Handler.ServeHTTP(w, r)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Post-Id")
}

func TestServer_Health(t *testing.T) {
	app := &testApp{busy: true}
	s := New(app)
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/health", nil))
	assert.Equal(t, 200, w.Code)
	var stats HealthStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.True(t, stats.Busy)
	assert.Greater(t, stats.Goroutines, 0)
	assert.Greater(t, stats.NumberOfCPUs, 0)
}

func TestServerErrorLog(t *testing.T) {
	expectLogged := []string{"panic", "server", "server"}
	var logged []string
	logger := zap.NewExample(zap.Hooks(func(entry zapcore.Entry) error {
		logged = append(logged, entry.Message)
		return nil
	}))
	s := New(&testApp{},
		WithAccessLog(true),
		WithDebug(true),
		WithLogger(logger),
		WithMiddleware(boomMiddleware),
		WithCORS(true),
	)

	ts := httptest.NewServer(s.Handler)
	ts.Config = &s.Server
	defer ts.Close()

	w, err := http.Get(ts.URL + "/generate?boom")
	assert.NoError(t, err)
	assert.Equal(t, 500, w.StatusCode)
	assert.NotEmpty(t, w.Header.Get("Vary"))
	assert.Equal(t, "Bar", w.Header.Get("X-Foo"))
	resp, err := io.ReadAll(w.Body)
	assert.NoError(t, err)
	assert.Equal(t, `{"message":"booooom","status":500}`, string(resp))

	_, err = ts.Config.ErrorLog.Writer().Write([]byte("http: TLS handshake error from 172.16.0.3:42672: EOF"))
	assert.NoError(t, err)
	_, err = ts.Config.ErrorLog.Writer().Write([]byte("foobar"))
	assert.NoError(t, err)

	assert.Equal(t, expectLogged, logged)
}

func TestServerAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := New(&testApp{}, WithAccessLog(true), WithLogger(zap.New(core)))

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/healthcheck", nil))
	assert.Equal(t, 0, logs.Len())

	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "https://example.com/nope", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.7")
	s.Handler.ServeHTTP(w, r)
	entries := logs.FilterMessage("access").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(404), fields["status"])
	assert.Equal(t, "/nope", fields["uri"])
	assert.Equal(t, "198.51.100.7", fields["ip"])
}

func TestWithStripQueryString(t *testing.T) {
	s := New(&testApp{},
		WithAddr("https://example.com:1667"), WithPort(1234))
	assert.Equal(t, "https://example.com:1667", s.Addr)

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/?a=1&b=2", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s = New(&testApp{},
		WithStripQueryString(true), WithAddress("https://foo.com"), WithPort(1234))
	assert.Equal(t, "https://foo.com:1234", s.Addr)

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/?a=1&b=2", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com/", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWithPathPrefix(t *testing.T) {
	s := New(&testApp{})

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s = New(&testApp{}, WithPathPrefix("/maskgif"))

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/maskgif", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/maskgif/healthcheck", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWithSentry(t *testing.T) {
	s := New(&testApp{}, WithSentry("https://12345@sentry.com/123"))
	assert.Equal(t, "https://12345@sentry.com/123", s.SentryDsn)
	assert.True(t, s.sentryInitialized)

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "https://example.com/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s = New(&testApp{}, WithSentry("not a dsn"))
	assert.False(t, s.sentryInitialized)
}

func TestIsNil(t *testing.T) {
	t.Run("nil interface", func(t *testing.T) {
		var i interface{}
		assert.True(t, isNil(i))
	})

	t.Run("nil pointer", func(t *testing.T) {
		var p *testApp
		assert.True(t, isNil(p))
	})

	t.Run("nil slice", func(t *testing.T) {
		var s []string
		assert.False(t, isNil(s))
	})

	t.Run("nil function", func(t *testing.T) {
		var f func()
		assert.False(t, isNil(f))
	})

	t.Run("non-nil values", func(t *testing.T) {
		assert.False(t, isNil("string"))
		assert.False(t, isNil(42))
		assert.False(t, isNil(&testApp{}))
	})

	t.Run("interface holding nil pointer", func(t *testing.T) {
		var m Metrics = (*testMetrics)(nil)
		assert.True(t, isNil(m))
	})
}

func TestServerStartup(t *testing.T) {
	app := &testApp{}
	metrics := &testMetrics{}
	s := New(app, WithMetrics(metrics), WithStartupTimeout(time.Second))
	s.startup(context.Background())
	assert.Equal(t, 1, app.StartupCnt)
	assert.Equal(t, 1, metrics.StartupCnt)
}

func TestServerShutdown(t *testing.T) {
	t.Run("successful shutdown", func(t *testing.T) {
		app := &testApp{}
		s := New(app, WithShutdownTimeout(time.Second))
		s.shutdown(context.Background())
		assert.Equal(t, 1, app.ShutdownCnt)
	})

	t.Run("shutdown with metrics", func(t *testing.T) {
		app := &testApp{}
		metrics := &testMetrics{}
		s := New(app, WithMetrics(metrics), WithShutdownTimeout(time.Second))
		s.shutdown(context.Background())
		assert.Equal(t, 1, app.ShutdownCnt)
		assert.Equal(t, 1, metrics.ShutdownCnt)
	})
}

func TestServerOptions(t *testing.T) {
	app := &testApp{}

	t.Run("WithAddr", func(t *testing.T) {
		s := New(app, WithAddr("localhost:8080"))
		assert.Equal(t, "localhost:8080", s.Addr)
	})

	t.Run("WithAddress and WithPort", func(t *testing.T) {
		s := New(app, WithAddress("localhost"), WithPort(9090))
		assert.Equal(t, "localhost", s.Address)
		assert.Equal(t, 9090, s.Port)
		assert.Equal(t, "localhost:9090", s.Addr)
	})

	t.Run("default port", func(t *testing.T) {
		s := New(app, WithPort(0))
		assert.Equal(t, ":8000", s.Addr)
	})

	t.Run("WithCertFile and WithKeyFile", func(t *testing.T) {
		s := New(app, WithCertFile("cert.pem"), WithKeyFile("key.pem"))
		assert.Equal(t, "cert.pem", s.CertFile)
		assert.Equal(t, "key.pem", s.KeyFile)
	})

	t.Run("WithLogger", func(t *testing.T) {
		logger := zap.NewExample()
		s := New(app, WithLogger(logger))
		assert.Equal(t, logger, s.Logger)
	})

	t.Run("WithLogger nil", func(t *testing.T) {
		s := New(app, WithLogger(nil))
		assert.NotNil(t, s.Logger)
	})

	t.Run("WithDebug", func(t *testing.T) {
		s := New(app, WithDebug(true))
		assert.True(t, s.Debug)
	})

	t.Run("WithStartupTimeout", func(t *testing.T) {
		s := New(app, WithStartupTimeout(5*time.Second))
		assert.Equal(t, 5*time.Second, s.StartupTimeout)
		s = New(app, WithStartupTimeout(0))
		assert.Equal(t, time.Second*10, s.StartupTimeout)
	})

	t.Run("WithShutdownTimeout", func(t *testing.T) {
		s := New(app, WithShutdownTimeout(15*time.Second))
		assert.Equal(t, 15*time.Second, s.ShutdownTimeout)
		s = New(app, WithShutdownTimeout(0))
		assert.Equal(t, time.Second*10, s.ShutdownTimeout)
	})

	t.Run("WithMiddleware", func(t *testing.T) {
		s := New(app, WithMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Test", "middleware")
				next.ServeHTTP(w, r)
			})
		}))
		w := httptest.NewRecorder()
		s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "middleware", w.Header().Get("X-Test"))
	})

	t.Run("WithMiddleware nil", func(t *testing.T) {
		s := New(app, WithMiddleware(nil))
		assert.NotNil(t, s.Handler)
	})
}

func TestServerErrorLogWriter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	writer := &serverErrorLogWriter{Logger: zap.New(core)}

	tests := []struct {
		name  string
		msg   string
		level zapcore.Level
	}{
		{"TLS handshake error", "http: TLS handshake error from 172.16.0.3:42672: EOF\n", zapcore.DebugLevel},
		{"URL query semicolon error", "http: URL query contains semicolon, which is deprecated\n", zapcore.DebugLevel},
		{"other server error", "some other server error\n", zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			n, err := writer.Write([]byte(tt.msg))
			assert.NoError(t, err)
			assert.Equal(t, len(tt.msg), n)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, "server", entries[0].Message)
			assert.Equal(t, tt.level, entries[0].Level)
		})
	}
}

func TestServerWithMetrics(t *testing.T) {
	app := &testApp{}
	metrics := &testMetrics{}

	s := New(app, WithMetrics(metrics))
	assert.Equal(t, metrics, s.Metrics)

	s = New(app, WithMetrics(nil))
	assert.True(t, isNil(s.Metrics))

	s = New(app, WithMetrics(metrics))
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, 1, metrics.HandleCnt)
}

type testMetrics struct {
	StartupCnt  int
	ShutdownCnt int
	HandleCnt   int
}

func (m *testMetrics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HandleCnt++
		next.ServeHTTP(w, r)
	})
}

func (m *testMetrics) Startup(ctx context.Context) error {
	m.StartupCnt++
	return nil
}

func (m *testMetrics) Shutdown(ctx context.Context) error {
	m.ShutdownCnt++
	return nil
}

func TestHandlerFunctions(t *testing.T) {
	t.Run("isNoopRequest", func(t *testing.T) {
		assert.True(t, isNoopRequest(httptest.NewRequest(http.MethodGet, "/healthcheck", nil)))
		assert.True(t, isNoopRequest(httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)))
		assert.False(t, isNoopRequest(httptest.NewRequest(http.MethodGet, "/generate", nil)))
		assert.False(t, isNoopRequest(httptest.NewRequest(http.MethodPost, "/healthcheck", nil)))
	})

	t.Run("handleOk", func(t *testing.T) {
		w := httptest.NewRecorder()
		handleOk(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestPanicHandler(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := New(&testApp{}, WithLogger(zap.New(core)))

	t.Run("panic with error", func(t *testing.T) {
		logs.TakeAll()
		handler := s.panicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(fmt.Errorf("test error"))
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, jsonStr(maskgif.NewError("test error", 500)), w.Body.String())
		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "panic", entries[0].Message)
	})

	t.Run("panic with string", func(t *testing.T) {
		logs.TakeAll()
		handler := s.panicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("string panic")
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "string panic")
		assert.Len(t, logs.All(), 1)
	})

	t.Run("no panic", func(t *testing.T) {
		logs.TakeAll()
		handler := s.panicHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("success"))
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "success", w.Body.String())
		assert.Len(t, logs.All(), 0)
	})
}

func jsonStr(v interface{}) string {
	buf, _ := json.Marshal(v)
	return string(buf)
}
