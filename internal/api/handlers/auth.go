// auth.go — обработчики /api/auth, делегированные identity provider.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/videostream/internal/api/errors"
	"github.com/bigkaa/videostream/internal/api/middleware"
)

// credentialsRequest — тело signup/login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: тело запроса, не логируется
}

// SignUp — POST /api/auth/signup.
func (h *APIHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	user, session, err := h.auth.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "signup", err)
		return
	}

	msg := "Please check your email to confirm your account"
	if session != nil {
		msg = "Signup successful"
	}
	writeJSON(w, http.StatusCreated, SignUpResponse{Message: msg, User: user, Session: session})
}

// Login — POST /api/auth/login.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Message: "Login successful", Session: session, User: session.User})
}

// Logout — POST /api/auth/logout (Bearer).
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		h.writeServiceError(w, r, "logout", err)
		return
	}
	writeJSON(w, http.StatusOK, Message{Message: "Logout successful"})
}

// Me — GET /api/auth/me (Bearer).
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Me(r.Context(), middleware.TokenFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{User: user})
}

// ResetPassword — POST /api/auth/reset-password.
func (h *APIHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Email); err != nil {
		h.writeServiceError(w, r, "reset_password", err)
		return
	}
	writeJSON(w, http.StatusOK, Message{Message: "Password reset instructions sent to email"})
}

// UpdatePassword — POST /api/auth/update-password (Bearer).
func (h *APIHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"` //nolint:gosec // G117: тело запроса, не логируется
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	if err := h.auth.UpdatePassword(r.Context(), middleware.TokenFromContext(r.Context()), req.Password); err != nil {
		h.writeServiceError(w, r, "update_password", err)
		return
	}
	writeJSON(w, http.StatusOK, Message{Message: "Password updated successfully"})
}
