package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/web"
)

// Principal is the authenticated caller as seen by handlers and services.
type Principal struct {
	UserID   uuid.UUID
	AuthID   string
	Email    string
	FullName string
	Role     Role
}

// Can reports whether the principal holds capability c.
func (p *Principal) Can(c Capability) bool {
	return p != nil && p.Role.Can(c)
}

type TokenVerifier interface {
	Verify(raw string) (*Claims, error)
}

// PrincipalResolver maps verified claims to a stored user, creating the row
// when the identity provider knows the user but the webhook has not synced it yet.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, c *Claims) (*Principal, error)
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

// Middleware gates routes on an authenticated principal and, optionally, a capability.
type Middleware struct {
	verifier TokenVerifier
	resolver PrincipalResolver
	logger   *zap.SugaredLogger
}

func NewMiddleware(v TokenVerifier, r PrincipalResolver, logger *zap.SugaredLogger) *Middleware {
	return &Middleware{verifier: v, resolver: r, logger: logger}
}

// RequireUser admits any authenticated user.
func (m *Middleware) RequireUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.authenticate(r)
		if err != nil {
			m.logger.Debugw("authentication failed", "path", r.URL.Path, "err", err)
			web.WriteError(w, m.logger, err, "authentication failed")
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Require admits authenticated users whose role carries capability c.
func (m *Middleware) Require(c Capability, next http.HandlerFunc) http.Handler {
	return m.RequireUser(func(w http.ResponseWriter, r *http.Request) {
		p, _ := FromContext(r.Context())
		if !p.Can(c) {
			m.logger.Infow("capability denied", "user_id", p.UserID, "role", p.Role, "capability", c)
			web.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
			return
		}
		next(w, r)
	})
}

func (m *Middleware) authenticate(r *http.Request) (*Principal, error) {
	raw, ok := BearerToken(r)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	claims, err := m.verifier.Verify(raw)
	if err != nil {
		return nil, err
	}
	return m.resolver.ResolvePrincipal(r.Context(), claims)
}
