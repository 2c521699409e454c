package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/audioclean-service/pkg/util/errorutil"
)

const identityKey = "auth_identity"

// AuthMiddleware gates protected routes behind the Verifier.
type AuthMiddleware struct {
	verifier *Verifier
	logger   *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(verifier *Verifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	identity, err := m.verifier.Verify(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		switch {
		case apperrors.HasCode(err, apperrors.CodeConfiguration):
			m.logger.Error("token verification unavailable: JWT secret missing", zap.String("path", c.Path()))
		case apperrors.HasCode(err, apperrors.CodeInvalidToken):
			m.logger.Info("token rejected", zap.String("path", c.Path()), zap.Error(err))
		default:
			m.logger.Debug("no bearer token", zap.String("path", c.Path()))
		}
		return err
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity. The value is a
// copy, so handlers cannot alter what later handlers observe.
func IdentityFromContext(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityKey).(Identity)
	return identity, ok
}
