package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/maskgif/maskgif"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Middleware wraps a http.Handler
type Middleware func(http.Handler) http.Handler

func pathHandler(method string, pathHandlers map[string]http.HandlerFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if handler, ok := pathHandlers[r.URL.Path]; ok {
				if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				handler(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleOk(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := GetHealthStats()
	if b, ok := s.App.(interface{ Busy() bool }); ok {
		stats.Busy = b.Busy()
	}
	resJSON(w, stats)
}

func isNoopRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && (r.URL.Path == "/healthcheck" || r.URL.Path == "/favicon.ico")
}

func (s *Server) panicHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err, ok := rec.(error)
				if !ok {
					err = errors.New(fmt.Sprint(rec))
				}
				if errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				s.Logger.Error("panic", zap.Error(err))
				e := maskgif.NewError(err.Error(), http.StatusInternalServerError)
				w.WriteHeader(e.Code)
				resJSON(w, e)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func stripQueryStringHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" && r.Method == http.MethodGet {
			r.URL.RawQuery = ""
			http.Redirect(w, r, r.URL.String(), http.StatusTemporaryRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func corsHandler(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		ExposedHeaders: []string{"Content-Disposition", "X-Post-Id", "X-Warning"},
	}).Handler(next)
}

type statusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLogHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isNoopRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		wr := &statusRecorder{
			ResponseWriter: w,
			Status:         http.StatusOK,
		}
		next.ServeHTTP(wr, r)
		s.Logger.Info("access",
			zap.Int("status", wr.Status),
			zap.String("method", r.Method),
			zap.String("uri", r.URL.RequestURI()),
			zap.String("ip", RealIP(r)),
			zap.String("user_agent", r.UserAgent()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type serverErrorLogWriter struct {
	Logger *zap.Logger
}

func (s *serverErrorLogWriter) Write(p []byte) (int, error) {
	m := strings.TrimSpace(string(p))
	if strings.HasPrefix(m, "http: TLS handshake error") ||
		strings.HasPrefix(m, "http: URL query contains semicolon") {
		s.Logger.Debug("server", zap.String("log", m))
	} else {
		s.Logger.Warn("server", zap.String("log", m))
	}
	return len(p), nil
}

func newServerErrorLog(logger *zap.Logger) *log.Logger {
	return log.New(&serverErrorLogWriter{logger}, "", 0)
}

func resJSON(w http.ResponseWriter, v interface{}) {
	buf, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	_, _ = w.Write(buf)
}
