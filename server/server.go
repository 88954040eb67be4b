package server

import (
	"context"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service is the application served by Server
type Service interface {
	http.Handler
	Startup(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Metrics represents metrics Startup and Shutdown lifecycle and Handle middleware
type Metrics interface {
	Handle(next http.Handler) http.Handler
	Startup(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Server wraps the Service with additional http and app lifecycle handling
type Server struct {
	http.Server
	App               Service
	Address           string
	Port              int
	CertFile          string
	KeyFile           string
	PathPrefix        string
	SentryDsn         string
	StartupTimeout    time.Duration
	ShutdownTimeout   time.Duration
	Logger            *zap.Logger
	Debug             bool
	AccessLog         bool
	CORS              bool
	StripQueryString  bool
	Metrics           Metrics
	middlewares       []Middleware
	sentryInitialized bool
}

// New creates new Server
func New(app Service, options ...Option) *Server {
	s := &Server{}
	s.App = app
	s.Port = 8000
	s.MaxHeaderBytes = 1 << 20
	s.StartupTimeout = time.Second * 10
	s.ShutdownTimeout = time.Second * 10
	s.Logger = zap.NewNop()

	for _, option := range options {
		option(s)
	}
	if s.Addr == "" {
		s.Addr = s.Address + ":" + strconv.Itoa(s.Port)
	}

	s.Handler = pathHandler(http.MethodGet, map[string]http.HandlerFunc{
		"/favicon.ico": handleOk,
		"/healthcheck": handleOk,
		"/health":      s.handleHealth,
	})(s.App)
	for _, middleware := range s.middlewares {
		s.Handler = middleware(s.Handler)
	}
	if s.StripQueryString {
		s.Handler = stripQueryStringHandler(s.Handler)
	}
	if s.PathPrefix != "" {
		s.Handler = http.StripPrefix(s.PathPrefix, s.Handler)
	}
	if s.CORS {
		s.Handler = corsHandler(s.Handler)
	}
	if s.AccessLog {
		s.Handler = s.accessLogHandler(s.Handler)
	}
	if !isNil(s.Metrics) {
		s.Handler = s.Metrics.Handle(s.Handler)
	}
	if s.SentryDsn != "" {
		s.initSentry()
		if s.sentryInitialized {
			// repanic so panicHandler still writes the error response
			s.Handler = sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(s.Handler)
		}
	}
	s.Handler = s.panicHandler(s.Handler)
	s.ErrorLog = newServerErrorLog(s.Logger)
	return s
}

func (s *Server) initSentry() {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:   s.SentryDsn,
		Debug: s.Debug,
	}); err != nil {
		s.Logger.Warn("sentry init", zap.Error(err))
		return
	}
	core, err := zapsentry.NewCore(zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
	}, zapsentry.NewSentryClientFromClient(sentry.CurrentHub().Client()))
	if err != nil {
		s.Logger.Warn("sentry core", zap.Error(err))
		return
	}
	s.Logger = zapsentry.AttachCoreToLogger(core, s.Logger)
	s.sentryInitialized = true
}

// Run server that terminates on SIGINT, SIGTERM signals
func (s *Server) Run() {
	ctx, cancel := signalContext()
	defer cancel()
	s.RunContext(ctx)
}

// RunContext run server with context
func (s *Server) RunContext(ctx context.Context) {
	s.startup(ctx)

	go func() {
		if err := s.listenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal("listen", zap.Error(err))
		}
	}()
	s.Logger.Info("listen", zap.String("addr", s.Addr))
	<-ctx.Done()

	s.shutdown(context.Background())
}

func (s *Server) startup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.StartupTimeout)
	defer cancel()
	if err := s.App.Startup(ctx); err != nil {
		s.Logger.Fatal("app-startup", zap.Error(err))
	}
	if !isNil(s.Metrics) {
		if err := s.Metrics.Startup(ctx); err != nil {
			s.Logger.Fatal("metrics-startup", zap.Error(err))
		}
	}
}

func (s *Server) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.ShutdownTimeout)
	defer cancel()
	s.Logger.Info("shutdown")
	if err := s.Shutdown(ctx); err != nil {
		s.Logger.Error("server-shutdown", zap.Error(err))
	}
	if !isNil(s.Metrics) {
		if err := s.Metrics.Shutdown(ctx); err != nil {
			s.Logger.Error("metrics-shutdown", zap.Error(err))
		}
	}
	if err := s.App.Shutdown(ctx); err != nil {
		s.Logger.Error("app-shutdown", zap.Error(err))
	}
	if s.sentryInitialized {
		sentry.Flush(time.Second * 2)
	}
}

func (s *Server) listenAndServe() error {
	if s.CertFile != "" && s.KeyFile != "" {
		return s.ListenAndServeTLS(s.CertFile, s.KeyFile)
	}
	return s.ListenAndServe()
}

func isNil(c interface{}) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
