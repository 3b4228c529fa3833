// users.go — обработчики /api/users/profile.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/videostream/internal/api/errors"
	"github.com/bigkaa/videostream/internal/api/middleware"
)

// GetProfile — GET /api/users/profile.
func (h *APIHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.profiles.Get(r.Context(), middleware.SubjectFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "get_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserProfile(u))
}

// UpdateProfile — PUT /api/users/profile.
// Тело разбирается в map: фильтрация полей выполняется в ProfileService.
func (h *APIHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeJSON(w, r, &fields); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	u, err := h.profiles.Update(r.Context(), middleware.SubjectFromContext(r.Context()), fields)
	if err != nil {
		h.writeServiceError(w, r, "update_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserProfile(u))
}
