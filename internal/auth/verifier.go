package auth

import (
	"errors"
	"strings"

	apperrors "github.com/spec-kit/audioclean-service/pkg/util/errorutil"
)

// verification carries state between the checks of a single request.
type verification struct {
	header string
	token  string
	claims *Claims
}

// check is one step of the verification pipeline. Returning an error halts it.
type check func(v *verification) error

// Verifier runs the ordered bearer-token pipeline: extract the bearer token,
// require a configured secret, then verify signature and expiry. It holds no
// per-request state and is safe for concurrent use.
type Verifier struct {
	tokens *TokenManager
	checks []check
}

// NewVerifier assembles the pipeline.
func NewVerifier(tokens *TokenManager) *Verifier {
	v := &Verifier{tokens: tokens}
	v.checks = []check{extractBearer, v.requireSecret, v.verifySignature}
	return v
}

// Verify runs every check against an Authorization header value and returns
// the verified identity, or the DomainError of the first failing check.
func (v *Verifier) Verify(authorization string) (Identity, error) {
	state := &verification{header: authorization}
	for _, step := range v.checks {
		if err := step(state); err != nil {
			return Identity{}, err
		}
	}
	return state.claims.Identity(), nil
}

func extractBearer(v *verification) error {
	scheme, token, found := strings.Cut(strings.TrimSpace(v.header), " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return apperrors.NewMissingToken()
	}
	v.token = token
	return nil
}

func (v *Verifier) requireSecret(*verification) error {
	if !v.tokens.Configured() {
		return apperrors.NewConfigurationError("Server configuration error: JWT secret missing.", ErrSecretMissing)
	}
	return nil
}

func (v *Verifier) verifySignature(state *verification) error {
	claims, err := v.tokens.ParseToken(state.token)
	if err != nil {
		reason := "token_invalid"
		if errors.Is(err, ErrTokenExpired) {
			reason = "token_expired"
		}
		rejected := apperrors.ToDomainError(apperrors.NewInvalidToken(reason))
		rejected.Err = err
		return rejected
	}
	state.claims = claims
	return nil
}
