package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/audioclean-service/internal/api/dto"
	"github.com/spec-kit/audioclean-service/internal/auth"
	apperrors "github.com/spec-kit/audioclean-service/pkg/util/errorutil"
)

// Protected handles GET /protected by echoing the verified claim.
func Protected(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewMissingToken()
	}
	return c.JSON(dto.ProtectedResponse{
		Message: "This is a protected route.",
		User:    dto.NewClaimResponse(identity),
	})
}
