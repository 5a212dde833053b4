package firebaseauth

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
	"github.com/riskibarqy/fantasy-prediction/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	token *auth.Token
	err   error
	seen  string
}

func (s *stubClient) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	s.seen = idToken
	return s.token, s.err
}

func TestVerifier_MapsClaims(t *testing.T) {
	client := &stubClient{token: &auth.Token{
		UID: "uid-1",
		Claims: map[string]any{
			"email": "fan@example.com",
			"name":  "Cricket Fan",
		},
	}}
	v := NewVerifier(client, nil, logging.NewNop())

	principal, err := v.VerifyAccessToken(t.Context(), "  id-token ")
	require.NoError(t, err)
	assert.Equal(t, "id-token", client.seen)
	assert.Equal(t, user.Principal{UserID: "uid-1", Email: "fan@example.com", DisplayName: "Cricket Fan"}, principal)
}

func TestVerifier_AdminClaimOrEmail(t *testing.T) {
	admins := user.NewAdminEmails([]string{"boss@example.com"})

	tests := []struct {
		name   string
		claims map[string]any
		want   bool
	}{
		{name: "admin claim", claims: map[string]any{"admin": true}, want: true},
		{name: "verified listed email", claims: map[string]any{"email": "Boss@Example.com", "email_verified": true}, want: true},
		{name: "unverified listed email", claims: map[string]any{"email": "boss@example.com", "email_verified": false}},
		{name: "listed email without verification claim", claims: map[string]any{"email": "boss@example.com"}},
		{name: "verified unlisted email", claims: map[string]any{"email": "fan@example.com", "email_verified": true}},
		{name: "non bool admin claim", claims: map[string]any{"admin": "yes"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &stubClient{token: &auth.Token{UID: "uid-1", Claims: tc.claims}}
			principal, err := NewVerifier(client, admins, logging.NewNop()).VerifyAccessToken(t.Context(), "t")
			require.NoError(t, err)
			assert.Equal(t, "uid-1", principal.UserID)
			assert.Equal(t, tc.want, principal.IsAdmin)
		})
	}
}

func TestVerifier_RejectsBadTokens(t *testing.T) {
	v := NewVerifier(&stubClient{err: errors.New("ID token has invalid signature")}, nil, logging.NewNop())

	_, err := v.VerifyAccessToken(t.Context(), "forged")
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)

	_, err = v.VerifyAccessToken(t.Context(), "")
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
}
