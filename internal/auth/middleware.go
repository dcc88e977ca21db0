package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/finsupport/triage-service/internal/session"
	apperrors "github.com/finsupport/triage-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated operator and their triage session.
type Principal struct {
	OperatorID string
	Session    *session.Session
}

// AuthMiddleware validates bearer tokens and resolves the triage session.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions *session.Manager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{
		OperatorID: claims.OperatorID,
		Session:    m.sessions.Get(claims.SessionID, claims.OperatorID),
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext extracts the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}
