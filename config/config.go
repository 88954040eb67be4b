package config

import (
	"flag"
	"fmt"
	"runtime"
	"time"

	"github.com/maskgif/maskgif"
	"github.com/maskgif/maskgif/metrics/prometheusmetrics"
	"github.com/maskgif/maskgif/server"
	"github.com/peterbourgon/ff/v3"
	"go.uber.org/zap"
)

// NewApp creates maskgif App from flags and config options
func NewApp(fs *flag.FlagSet, cb Callback, options ...Option) *maskgif.App {
	var (
		loadTimeout = fs.Duration("load-timeout", time.Second*25,
			"Timeout for loading the source image through the CORS proxy")
		encodeTimeout = fs.Duration("encode-timeout", time.Second*60,
			"Timeout for GIF encoding")
		saveTimeout = fs.Duration("save-timeout", time.Second*20,
			"Timeout for saving downloads to storages")
	)
	var appOptions, logger, isDebug = applyOptions(fs, cb, options...)
	return maskgif.New(append(
		appOptions,
		maskgif.WithLoadTimeout(*loadTimeout),
		maskgif.WithEncodeTimeout(*encodeTimeout),
		maskgif.WithSaveTimeout(*saveTimeout),
		maskgif.WithLogger(logger),
		maskgif.WithDebug(isDebug),
	)...)
}

// DefaultOptions config options every server and command line run includes
func DefaultOptions() []Option {
	return []Option{
		withFileStorage,
		withClipboard,
		withGIFEncoder,
		withMaskProcessor,
		withProxyLoader,
		withE621Searcher,
	}
}

// ParseCallback returns the Callback that parses args from flags,
// environment variables and config file
func ParseCallback(fs *flag.FlagSet, args []string, debug *bool) Callback {
	return func() (logger *zap.Logger, isDebug bool) {
		var err error
		if err = ff.Parse(fs, args,
			ff.WithEnvVars(),
			ff.WithConfigFileFlag("config"),
			ff.WithIgnoreUndefined(true),
			ff.WithAllowMissingConfigFile(true),
			ff.WithConfigFileParser(ff.EnvParser),
		); err != nil {
			panic(err)
		}
		if *debug {
			if logger, err = zap.NewDevelopment(); err != nil {
				panic(err)
			}
		} else {
			if logger, err = zap.NewProduction(); err != nil {
				panic(err)
			}
		}
		return logger, *debug
	}
}

// CreateServer creates maskgif http server from args and config options
func CreateServer(args []string, options ...Option) (srv *server.Server) {
	var (
		fs     = flag.NewFlagSet("maskgif", flag.ExitOnError)
		logger *zap.Logger
		app    *maskgif.App

		debug        = fs.Bool("debug", false, "Debug mode")
		version      = fs.Bool("version", false, "maskgif version")
		port         = fs.Int("port", 8000, "Server port")
		bind         = fs.String("bind", "", "Server address and port to bind, overrides -port")
		goMaxProcess = fs.Int("gomaxprocs", 0, "GOMAXPROCS")

		_ = fs.String("config", ".env", "Retrieve configuration from the given file")

		serverAddress = fs.String("server-address", "",
			"Server address")
		serverPathPrefix = fs.String("server-path-prefix", "",
			"Server path prefix")
		serverCORS = fs.Bool("server-cors", false,
			"Enable CORS")
		serverStripQueryString = fs.Bool("server-strip-query-string", false,
			"Enable strip query string redirection")
		serverAccessLog = fs.Bool("server-access-log", false,
			"Enable server access log")
		serverStartupTimeout = fs.Duration("server-startup-timeout", time.Second*10,
			"Server startup timeout, bounds mask preloading")
		serverShutdownTimeout = fs.Duration("server-shutdown-timeout", time.Second*10,
			"Server graceful shutdown timeout")
		serverCertFile = fs.String("server-cert-file", "",
			"Server TLS certificate file. Enable TLS only if both cert and key files present")
		serverKeyFile = fs.String("server-key-file", "",
			"Server TLS key file")

		sentryDsn = fs.String("sentry-dsn", "",
			"Sentry DSN. Report errors to Sentry only if this value present")

		prometheusBind = fs.String("prometheus-bind", "",
			"Specify address and port to enable Prometheus metrics, e.g. :5000, prom:7000")
		prometheusPath = fs.String("prometheus-path", "/",
			"Prometheus metrics path")
	)

	cb := ParseCallback(fs, args, debug)
	app = NewApp(fs, func() (l *zap.Logger, isDebug bool) {
		l, isDebug = cb()
		logger = l
		return
	}, append(DefaultOptions(), options...)...)

	if *version {
		fmt.Println(maskgif.Version)
		return
	}

	if *goMaxProcess > 0 {
		logger.Debug("GOMAXPROCS", zap.Int("count", *goMaxProcess))
		runtime.GOMAXPROCS(*goMaxProcess)
	}

	var metrics server.Metrics
	if *prometheusBind != "" {
		metrics = prometheusmetrics.New(
			prometheusmetrics.WithAddr(*prometheusBind),
			prometheusmetrics.WithPath(*prometheusPath),
			prometheusmetrics.WithLogger(logger),
		)
	}

	serverOptions := []server.Option{
		server.WithAddress(*serverAddress),
		server.WithPort(*port),
		server.WithPathPrefix(*serverPathPrefix),
		server.WithCORS(*serverCORS),
		server.WithStripQueryString(*serverStripQueryString),
		server.WithAccessLog(*serverAccessLog),
		server.WithStartupTimeout(*serverStartupTimeout),
		server.WithShutdownTimeout(*serverShutdownTimeout),
		server.WithCertFile(*serverCertFile),
		server.WithKeyFile(*serverKeyFile),
		server.WithSentry(*sentryDsn),
		server.WithMetrics(metrics),
		server.WithLogger(logger),
		server.WithDebug(*debug),
	}
	if *bind != "" {
		serverOptions = append(serverOptions, server.WithAddr(*bind))
	}
	return server.New(app, serverOptions...)
}
