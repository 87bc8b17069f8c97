package api

import (
	"net/http"

	"github.com/mocamara/se-atlas/internal/auth"
	"github.com/mocamara/se-atlas/internal/core/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	u, ok := h.creds.Authenticate(req.Username, req.Password)
	if !ok {
		http.Error(w, "incorrect username or password", http.StatusUnauthorized)
		return
	}

	sess := h.sessions.Create(u)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.InfoContext(r.Context(), "login", "user", u.Name, "role", string(u.Role))
	writeJSON(w, http.StatusOK, sessionResponse{Username: u.Name, Role: string(u.Role)})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	h.sessions.Delete(sess.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.InfoContext(r.Context(), "logout", "user", sess.User)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Username: sess.User, Role: string(sess.Role)})
}

func sessionOr401(w http.ResponseWriter, r *http.Request) (*auth.Session, bool) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return nil, false
	}
	return sess, true
}
