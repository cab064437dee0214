package auth

import (
	"context"
	"net/http"

	"github.com/fjod/go_shop/internal/domain"
)

type contextKey struct{}

// WithAdmin returns a copy of ctx carrying admin.
func WithAdmin(ctx context.Context, admin *domain.Admin) context.Context {
	return context.WithValue(ctx, contextKey{}, admin)
}

// AdminFromContext returns the admin attached by RequireAdmin, if any.
func AdminFromContext(ctx context.Context) (*domain.Admin, bool) {
	admin, ok := ctx.Value(contextKey{}).(*domain.Admin)
	return admin, ok
}

// RequireAdmin rejects requests without a valid admin token. onError writes
// the response for a failed authentication.
func RequireAdmin(a *Authenticator, onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := a.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}
