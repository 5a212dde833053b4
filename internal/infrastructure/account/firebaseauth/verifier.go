package firebaseauth

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
	"github.com/riskibarqy/fantasy-prediction/internal/usecase"
	"google.golang.org/api/option"
)

const adminClaim = "admin"

// TokenVerifier is the subset of the Firebase auth client used here.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type Verifier struct {
	client TokenVerifier
	admins user.AdminEmails
	logger *logging.Logger
}

func NewVerifier(client TokenVerifier, admins user.AdminEmails, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Verifier{client: client, admins: admins, logger: logger}
}

// NewFromCredentials builds a verifier backed by the Firebase Admin SDK.
func NewFromCredentials(ctx context.Context, projectID, credentialsJSON string, admins user.AdminEmails, logger *logging.Logger) (*Verifier, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	var conf *firebase.Config
	if strings.TrimSpace(projectID) != "" {
		conf = &firebase.Config{ProjectID: strings.TrimSpace(projectID)}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initialize firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initialize firebase auth")
	}
	return NewVerifier(client, admins, logger), nil
}

func (v *Verifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "token is required")
	}

	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return user.Principal{}, ctx.Err()
		}
		if isTokenRejection(err) {
			return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "invalid id token")
		}
		v.logger.WarnContext(ctx, "firebase token verification failed", "error", err)
		return user.Principal{}, fmt.Errorf("%w: verify id token: %w", usecase.ErrDependencyUnavailable, err)
	}

	return principalFromToken(decoded, v.admins), nil
}

// principalFromToken grants admin from the custom claim, or from ADMIN_EMAILS
// only when the provider has verified the address.
func principalFromToken(token *auth.Token, admins user.AdminEmails) user.Principal {
	email := claimString(token.Claims, "email")
	isAdmin, _ := token.Claims[adminClaim].(bool)
	emailVerified, _ := token.Claims["email_verified"].(bool)

	return user.Principal{
		UserID:      token.UID,
		Email:       email,
		DisplayName: claimString(token.Claims, "name"),
		IsAdmin:     isAdmin || (emailVerified && admins.Contains(email)),
	}
}

func claimString(claims map[string]any, key string) string {
	value, _ := claims[key].(string)
	return strings.TrimSpace(value)
}

// isTokenRejection separates bad tokens from an unreachable key server.
func isTokenRejection(err error) bool {
	return !auth.IsCertificateFetchFailed(err)
}
