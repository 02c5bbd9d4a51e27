package handlers

import (
	"net/http"

	"github.com/jayjaytrn/URLMapper/internal/shortener"
)

// CreateURL handles POST /api/urls. An already shortened URL is returned with 200 and a message.
func (h *Handler) CreateURL(w http.ResponseWriter, r *http.Request) {
	longURL, err := decodeURLRequest(w, r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	mapping, created, err := h.Service.Shorten(r.Context(), longURL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	view := shortener.View(mapping, h.baseURL(r))
	if !created {
		view.Message = msgAlreadyExist
		writeJSON(w, http.StatusOK, view)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// ListURLs handles GET /api/urls.
func (h *Handler) ListURLs(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.List(r.Context(), h.baseURL(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GetURL handles GET /api/urls/{id}.
func (h *Handler) GetURL(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	mapping, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shortener.View(mapping, h.baseURL(r)))
}

// UpdateURL handles PUT /api/urls/{id}. The short code is kept.
func (h *Handler) UpdateURL(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	longURL, err := decodeURLRequest(w, r)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	mapping, err := h.Service.Update(r.Context(), id, longURL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shortener.View(mapping, h.baseURL(r)))
}

// DeleteURL handles DELETE /api/urls/{id}.
func (h *Handler) DeleteURL(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
