package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"musiccatalog/m/domain"
	"musiccatalog/m/internal/repository"
)

type contextKey string

const userContextKey contextKey = "current_user"

func WithUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the user resolved by LoadUser. ok is false for
// anonymous requests.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userContextKey).(domain.User)
	return u, ok
}

type Middleware struct {
	sessions SessionManager
	users    repository.UserRepository
	logger   *slog.Logger
	loginURL string
}

func NewMiddleware(sessions SessionManager, users repository.UserRepository, logger *slog.Logger) *Middleware {
	return &Middleware{sessions: sessions, users: users, logger: logger, loginURL: "/login"}
}

// LoadUser resolves the session on every request and stores the current user
// in the request context. Session store failures degrade to anonymous.
func (m *Middleware) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok, err := m.sessions.Resolve(r)
		if err != nil {
			m.logger.Error("resolve session", "err", err)
		}
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := m.users.FindByID(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				m.logger.Error("load session user", "user_id", userID, "err", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireUser redirects anonymous requests to the login page instead of
// running next.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, m.loginURL, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
