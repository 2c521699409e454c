package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/audioclean-service/pkg/util/errorutil"
)

func newGatedApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code, "message": de.Message})
		},
	})
	mw := NewAuthMiddleware(NewVerifier(tm), zap.NewNop())
	app.Get("/protected", mw.Handle, func(c *fiber.Ctx) error {
		id, ok := IdentityFromContext(c)
		if !ok {
			return errors.New("identity missing")
		}
		return c.JSON(fiber.Map{"userId": id.UserID, "email": id.Email})
	})
	return app
}

func TestAuthMiddleware_AttachesIdentity(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	tok, _, err := tm.GenerateToken(5, "five@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := newGatedApp(tm).Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(5), body["userId"])
	assert.Equal(t, "five@x.com", body["email"])
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	tok, _, err := tm.GenerateToken(5, "five@x.com")
	require.NoError(t, err)

	app := newGatedApp(tm)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok[:len(tok)-6]+"AAAAAA")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuthMiddleware_UnconfiguredSecretIsServerFault(t *testing.T) {
	signed, _, err := NewTokenManager("secret", 60).GenerateToken(1, "x@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := newGatedApp(NewTokenManager("", 60)).Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
