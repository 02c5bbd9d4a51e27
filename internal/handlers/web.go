package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jayjaytrn/URLMapper/internal/types"
)

type indexPage struct {
	Error    string
	ShortURL string
	URLs     []types.MappingView
}

// Index renders the form together with every stored mapping.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, indexPage{})
}

// ShortenForm handles the form submission on POST /.
func (h *Handler) ShortenForm(w http.ResponseWriter, r *http.Request) {
	mapping, _, err := h.Service.Shorten(r.Context(), r.FormValue("longurl"))
	if err != nil {
		var (
			validation *types.ValidationError
			conflict   *types.ConflictError
		)
		switch {
		case errors.As(err, &validation):
			h.renderIndex(w, r, http.StatusOK, indexPage{Error: msgEnterURL})
		case errors.As(err, &conflict):
			h.Logger.Errorw("short code space exhausted", "error", err)
			h.renderIndex(w, r, http.StatusInternalServerError, indexPage{Error: msgCollision})
		default:
			h.Logger.Errorw("failed to shorten URL", "error", err)
			http.Error(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}

	h.renderIndex(w, r, http.StatusOK, indexPage{ShortURL: h.baseURL(r) + mapping.ShortCode})
}

// DeleteForm handles POST /delete/{id}. Unknown ids are ignored.
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	if id, ok := idParam(r); ok {
		err := h.Service.Delete(r.Context(), id)
		var notFound *types.NotFoundError
		if err != nil && !errors.As(err, &notFound) {
			h.Logger.Errorw("failed to delete URL", "id", id, "error", err)
			http.Error(w, msgInternal, http.StatusInternalServerError)
			return
		}
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Resolve redirects a short code to its long URL.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	longURL, err := h.Service.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		var notFound *types.NotFoundError
		if !errors.As(err, &notFound) {
			h.Logger.Errorw("failed to resolve short code", "error", err)
			http.Error(w, msgInternal, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, msgNoSuchURL)
		return
	}
	http.Redirect(w, r, longURL, http.StatusFound)
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, status int, page indexPage) {
	urls, err := h.Service.List(r.Context(), h.baseURL(r))
	if err != nil {
		h.Logger.Errorw("failed to list URLs", "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}
	page.URLs = urls

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err = indexTemplate.Execute(w, page); err != nil {
		h.Logger.Errorw("failed to render index", "error", err)
	}
}
