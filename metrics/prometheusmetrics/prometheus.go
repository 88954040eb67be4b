package prometheusmetrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var httpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "A histogram of latencies for requests",
	},
	[]string{"code", "method"},
)

var httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "http_requests_in_flight",
	Help: "Number of requests currently served",
})

func init() {
	prometheus.MustRegister(httpRequestDuration, httpRequestsInFlight)
}

// PrometheusMetrics serves collected metrics on a dedicated listener
type PrometheusMetrics struct {
	http.Server

	Host   string
	Port   int
	Path   string
	Logger *zap.Logger
}

// New create new metrics PrometheusMetrics
func New(options ...Option) *PrometheusMetrics {
	s := &PrometheusMetrics{
		Port:   9000,
		Path:   "/metrics",
		Logger: zap.NewNop(),
	}
	for _, option := range options {
		option(s)
	}

	if s.Addr == "" {
		s.Addr = s.Host + ":" + strconv.Itoa(s.Port)
	}

	mux := http.NewServeMux()
	mux.Handle(s.Path, promhttp.Handler())
	if s.Path != "/" {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, s.Path, http.StatusPermanentRedirect)
		})
	}
	s.Handler = mux
	return s
}

// Startup starts the metrics listener in background
func (s *PrometheusMetrics) Startup(_ context.Context) error {
	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Fatal("prometheus listen", zap.Error(err))
		}
	}()
	s.Logger.Info("prometheus listen", zap.String("addr", s.Addr), zap.String("path", s.Path))
	return nil
}

// Shutdown stops the metrics listener
func (s *PrometheusMetrics) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

// Handle prometheus http middleware
func (s *PrometheusMetrics) Handle(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(httpRequestsInFlight,
		promhttp.InstrumentHandlerDuration(httpRequestDuration, next))
}
