package accounts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/varnwear/storefront/internal/domain"
)

type identityContextKey struct{}

// IdentityFrom returns the authenticated caller placed in the context by
// RequireUser or RequireAdmin.
func IdentityFrom(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*domain.Identity)
	return identity, ok
}

// Auth resolves bearer tokens to identities and guards handlers. Every
// workflow call downstream receives the identity explicitly instead of
// reading ambient session state.
type Auth struct {
	sessions *SessionStore
	logger   *slog.Logger
}

func NewAuth(sessions *SessionStore, logger *slog.Logger) *Auth {
	return &Auth{
		sessions: sessions,
		logger:   logger,
	}
}

func (a *Auth) identity(r *http.Request) (*domain.Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, nil
	}
	return a.sessions.Get(r.Context(), token)
}

func (a *Auth) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.identity(r)
		if err != nil {
			a.logger.Error("failed to resolve session", "error", err)
			writeAuthFail(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if identity == nil || identity.Admin {
			writeAuthFail(w, http.StatusUnauthorized, "User not logged in")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next(w, r.WithContext(ctx))
	}
}

func (a *Auth) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.identity(r)
		if err != nil {
			a.logger.Error("failed to resolve session", "error", err)
			writeAuthFail(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if identity == nil || !identity.Admin {
			writeAuthFail(w, http.StatusUnauthorized, "Admin access required")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next(w, r.WithContext(ctx))
	}
}

func writeAuthFail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
