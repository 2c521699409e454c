package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/audioclean-service/internal/auth"
	"github.com/spec-kit/audioclean-service/internal/config"
	"github.com/spec-kit/audioclean-service/internal/domain"
	"github.com/spec-kit/audioclean-service/internal/events"
	apperrors "github.com/spec-kit/audioclean-service/pkg/util/errorutil"
)

func newAuthService(t *testing.T, secret string) (*AuthService, *memoryUserRepo, *plainHasher, *recordingDispatcher) {
	t.Helper()
	repo := newMemoryUserRepo()
	hasher := &plainHasher{}
	dispatcher := &recordingDispatcher{}
	svc, err := NewAuthService(config.AuthConfig{JWTSecret: secret, AccessTokenTTLMinutes: 60, BcryptCost: 4},
		AuthDependencies{UserRepo: repo, Hasher: hasher, Dispatcher: dispatcher, Logger: zap.NewNop()})
	require.NoError(t, err)
	return svc, repo, hasher, dispatcher
}

func TestRegister_CreatesFreeUser(t *testing.T) {
	svc, repo, _, dispatcher := newAuthService(t, "secret")

	user, err := svc.Register(context.Background(), " alice ", "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, domain.TierFree, user.Tier)
	assert.NotEqual(t, "hunter2", user.PasswordHash)

	stored, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hashed:hunter2", stored.PasswordHash)
	assert.Equal(t, []events.EventType{events.EventUserRegistered}, dispatcher.types())
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _, _ := newAuthService(t, "secret")

	cases := map[string][3]string{
		"missing username": {"", "a@x.com", "pw"},
		"blank username":   {"   ", "a@x.com", "pw"},
		"missing email":    {"a", "", "pw"},
		"missing password": {"a", "a@x.com", ""},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in[0], in[1], in[2])
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}
}

func TestRegister_DuplicateIsConflict(t *testing.T) {
	svc, _, _, _ := newAuthService(t, "secret")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@example.com", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.Register(ctx, "bob", "alice@example.com", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestRegister_RepositoryFailureIsInternal(t *testing.T) {
	svc, repo, _, _ := newAuthService(t, "secret")
	repo.err = errors.New("connection reset")

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw")
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeInternal, de.Code)
	assert.NotContains(t, de.Message, "connection reset")
}

func TestRegister_OverlongPasswordIsValidationError(t *testing.T) {
	svc, _, _, _ := newAuthService(t, "secret")
	svc.hasher = auth.NewBcryptHasher(4)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", strings.Repeat("x", 73))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	svc, _, _, dispatcher := newAuthService(t, "secret")
	ctx := context.Background()
	user, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, result.ExpiresAt.Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, []events.EventType{events.EventUserRegistered, events.EventUserLoggedIn}, dispatcher.types())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, hasher, _ := newAuthService(t, "secret")
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "alice@example.com", "nope")
	_, unknownEmail := svc.Login(ctx, "ghost@example.com", "pw")

	a := apperrors.ToDomainError(wrongPassword)
	b := apperrors.ToDomainError(unknownEmail)
	assert.Equal(t, apperrors.CodeInvalidCredentials, a.Code)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, a.HTTPStatus, b.HTTPStatus)
	assert.Equal(t, int32(2), hasher.compares.Load(), "unknown email must still run one comparison")
}

func TestLogin_MissingSecretFailsClosed(t *testing.T) {
	svc, _, _, dispatcher := newAuthService(t, "")
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alice@example.com", "pw")
	assert.Nil(t, result)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeConfiguration, de.Code)
	assert.GreaterOrEqual(t, de.HTTPStatus, 500)
	assert.Equal(t, []events.EventType{events.EventUserRegistered}, dispatcher.types())
}

func TestLogin_Validation(t *testing.T) {
	svc, _, hasher, _ := newAuthService(t, "secret")

	_, err := svc.Login(context.Background(), "", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = svc.Login(context.Background(), "a@x.com", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	assert.Zero(t, hasher.compares.Load())
}
