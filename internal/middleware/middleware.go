package middleware

import (
	"compress/gzip"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayjaytrn/URLMapper/internal/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type ctxKey string

// RequestIDKey is the context key holding the request id.
const RequestIDKey ctxKey = "request_id"

type (
	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}

	responseData struct {
		status int
		size   int
	}

	gzipWriter struct {
		http.ResponseWriter
		gz          *gzip.Writer
		wroteHeader bool
	}

	Middleware func(http.Handler, *zap.SugaredLogger) http.Handler
)

// Conveyor wraps h with middlewares; the last one runs first.
func Conveyor(h http.Handler, sugar *zap.SugaredLogger, middlewares ...Middleware) http.Handler {
	for _, middleware := range middlewares {
		h = middleware(h, sugar)
	}
	return h
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithRequestID reuses the client's X-Request-ID or assigns a new uuid.
func WithRequestID(h http.Handler, _ *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		h.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), RequestIDKey, id)))
	})
}

func WithLogging(h http.Handler, sugar *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rd := &responseData{}
		lw := loggingResponseWriter{
			ResponseWriter: w,
			responseData:   rd,
		}
		h.ServeHTTP(&lw, r)

		sugar.Infow("request served",
			"uri", r.RequestURI,
			"method", r.Method,
			"status", rd.statusCode(),
			"duration", time.Since(start),
			"size", rd.size,
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}

// WithMetrics records every request under its chi route pattern.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(h http.Handler, _ *zap.SugaredLogger) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rd := &responseData{}
			h.ServeHTTP(&loggingResponseWriter{ResponseWriter: w, responseData: rd}, r)

			// the pattern is only known once chi has routed the request
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, rd.statusCode(), time.Since(start))
		})
	}
}

// WriteWithCompression gzips JSON, HTML and plain text responses for clients that accept it.
func WriteWithCompression(h http.Handler, sugar *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !headerContains(r.Header, "Accept-Encoding", "gzip") {
			h.ServeHTTP(w, r)
			return
		}

		gw := &gzipWriter{ResponseWriter: w}
		defer func() {
			if err := gw.Close(); err != nil {
				sugar.Errorw("failed to close gzip writer", "error", err)
			}
		}()
		h.ServeHTTP(gw, r)
	})
}

// ReadWithCompression transparently unpacks gzip request bodies.
func ReadWithCompression(h http.Handler, sugar *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !headerContains(r.Header, "Content-Encoding", "gzip") {
			h.ServeHTTP(w, r)
			return
		}

		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			sugar.Errorw("failed to create gzip reader", "error", err)
			http.Error(w, "malformed gzip body", http.StatusBadRequest)
			return
		}
		defer gz.Close()

		newReq := r.Clone(r.Context())
		newReq.Body = gz
		newReq.ContentLength = -1
		newReq.Header.Del("Content-Encoding")

		h.ServeHTTP(w, newReq)
	})
}

func headerContains(h http.Header, key, token string) bool {
	for _, v := range h.Values(key) {
		for _, part := range strings.Split(v, ",") {
			name, _, _ := strings.Cut(strings.TrimSpace(part), ";")
			if strings.EqualFold(name, token) {
				return true
			}
		}
	}
	return false
}

func compressible(contentType string) bool {
	for _, prefix := range []string{"application/json", "text/html", "text/plain"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

func (w *gzipWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	bodyAllowed := statusCode != http.StatusNoContent && statusCode != http.StatusNotModified
	if bodyAllowed && compressible(w.Header().Get("Content-Type")) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		w.Header().Del("Content-Length")
		w.gz, _ = gzip.NewWriterLevel(w.ResponseWriter, gzip.BestSpeed)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.gz == nil {
		return w.ResponseWriter.Write(b)
	}
	return w.gz.Write(b)
}

func (w *gzipWriter) Close() error {
	if w.gz == nil {
		return nil
	}
	return w.gz.Close()
}

func (rd *responseData) statusCode() int {
	if rd.status == 0 {
		return http.StatusOK
	}
	return rd.status
}

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	if r.responseData.status == 0 {
		r.responseData.status = http.StatusOK
	}
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	if r.responseData.status == 0 {
		r.responseData.status = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}
