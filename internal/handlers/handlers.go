package handlers

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jayjaytrn/URLMapper/config"
	"github.com/jayjaytrn/URLMapper/internal/metrics"
	"github.com/jayjaytrn/URLMapper/internal/middleware"
	"github.com/jayjaytrn/URLMapper/internal/shortener"
	"github.com/jayjaytrn/URLMapper/internal/types"
)

const (
	msgMustBeJSON   = "Request must be JSON"
	msgMissingURL   = "Missing longurl"
	msgNotFound     = "URL not found"
	msgCollision    = "Failed to create short URL due to collision"
	msgAlreadyExist = "URL already exists"
	msgInternal     = "Internal server error"
	msgEnterURL     = "Please enter a URL"
	msgNoSuchURL    = "URL does not exist"
)

// maxBodyBytes caps API request bodies.
const maxBodyBytes = 64 << 10

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Handler serves both the HTML form and the JSON API on top of a shortener.Service.
type Handler struct {
	Config  *config.Config
	Service *shortener.Service
	Logger  *zap.SugaredLogger
}

// NewRouter wires every route behind the shared middleware conveyor.
func NewRouter(h *Handler, logger *zap.SugaredLogger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return middleware.Conveyor(next, logger,
			middleware.WithLogging,
			middleware.WithMetrics(m),
			middleware.WriteWithCompression,
			middleware.ReadWithCompression,
			middleware.WithRequestID,
		)
	})

	r.Get(`/`, h.Index)
	r.Post(`/`, h.ShortenForm)
	r.Post(`/delete/{id:[0-9]+}`, h.DeleteForm)
	r.Get(`/ping`, h.Ping)
	r.Method(http.MethodGet, `/metrics`, m.Handler())

	r.Post(`/api/urls`, h.CreateURL)
	r.Get(`/api/urls`, h.ListURLs)
	r.Get(`/api/urls/{id:[0-9]+}`, h.GetURL)
	r.Put(`/api/urls/{id:[0-9]+}`, h.UpdateURL)
	r.Delete(`/api/urls/{id:[0-9]+}`, h.DeleteURL)

	r.Get(`/{code}`, h.Resolve)

	return r
}

// Ping reports whether the storage answers.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Ping(r.Context()); err != nil {
		h.Logger.Errorw("storage ping failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// baseURL returns the configured public address, or the one the client used.
func (h *Handler) baseURL(r *http.Request) string {
	if h.Config != nil && h.Config.BaseURL != "" {
		return strings.TrimSuffix(h.Config.BaseURL, "/") + "/"
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/"
}

// idParam is only called on routes whose pattern restricts id to digits.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// decodeURLRequest reads a JSON body carrying a longurl field. The body must hold exactly one JSON value.
func decodeURLRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !isJSON(mediaType) {
		return "", &types.MalformedInputError{Err: errors.New("content type is not JSON")}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var req types.URLRequest
	if err = dec.Decode(&req); err != nil {
		return "", &types.MalformedInputError{Err: err}
	}
	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON body")
		}
		return "", &types.MalformedInputError{Err: err}
	}
	if req.LongURL == nil || *req.LongURL == "" {
		return "", &types.ValidationError{Field: "longurl"}
	}
	return *req.LongURL, nil
}

func isJSON(mediaType string) bool {
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

// writeServiceError maps the typed errors of the service onto API responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		malformed  *types.MalformedInputError
		validation *types.ValidationError
		notFound   *types.NotFoundError
		conflict   *types.ConflictError
	)
	switch {
	case errors.As(err, &malformed):
		writeError(w, http.StatusBadRequest, msgMustBeJSON)
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, msgMissingURL)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.As(err, &conflict):
		h.Logger.Errorw("short code space exhausted", "error", err)
		writeError(w, http.StatusInternalServerError, msgCollision)
	default:
		h.Logger.Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
