package httpapi

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/service"
)

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

// requireAuth accepts the bearer token of the current session and puts the
// signed-in user on the request context as the actor.
func (a *API) requireAuth(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
				return
			}
			user, err := a.service.Authenticate(r.Context(), token)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, user.Role) {
				writeError(w, http.StatusForbidden, errors.New("forbidden role"))
				return
			}
			next.ServeHTTP(w, r.WithContext(service.WithActor(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authorization) < len("Bearer ") || !strings.EqualFold(authorization[:len("Bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authorization[len("Bearer "):])
	return token, token != ""
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeServiceError(w, domain.NewValidationError("username", "username and password are required"))
		return
	}

	if !a.service.Login(r.Context(), req.Username, req.Password) {
		writeError(w, http.StatusUnauthorized, errors.New("invalid username or password"))
		return
	}
	sess, ok := a.service.Session()
	if !ok {
		writeError(w, http.StatusUnauthorized, service.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: sess.User})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.service.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := service.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, service.ErrNoSession)
		return
	}
	sess, _ := a.service.Session()
	writeJSON(w, http.StatusOK, map[string]any{
		"user":          user,
		"expires_at":    sess.ExpiresAt,
		"last_activity": sess.LastActivity,
	})
}
