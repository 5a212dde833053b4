package anubis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/user"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/cache"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/logging"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-prediction/internal/usecase"
)

const adminRole = "admin"

// errAnubisTransient marks failures that say nothing about the token itself.
var errAnubisTransient = errors.New("anubis transient failure")

type Config struct {
	BaseURL        string
	IntrospectPath string
	AdminKey       string
	CacheTTL       time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client verifies bearer tokens through the anubis introspection endpoint.
type Client struct {
	httpClient    *http.Client
	introspectURL string
	adminKey      string
	admins        user.AdminEmails
	breaker       *resilience.CircuitBreaker
	principals    *cache.Store
	logger        *logging.Logger
}

func NewClient(httpClient *http.Client, cfg Config, admins user.AdminEmails, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	var principals *cache.Store
	if cfg.CacheTTL > 0 {
		principals = cache.NewStore(cfg.CacheTTL)
	}

	return &Client{
		httpClient:    httpClient,
		introspectURL: buildURL(cfg.BaseURL, cfg.IntrospectPath),
		adminKey:      strings.TrimSpace(cfg.AdminKey),
		admins:        admins,
		breaker:       resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		principals:    principals,
		logger:        logger,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "token is required")
	}

	if c.principals == nil {
		return c.verify(ctx, token)
	}
	return cache.Load(ctx, c.principals, "anubis:"+hashToken(token), func(ctx context.Context) (user.Principal, error) {
		return c.verify(ctx, token)
	})
}

func (c *Client) verify(ctx context.Context, token string) (user.Principal, error) {
	var (
		decoded introspectResponse
		denied  error
	)

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		resp, err := c.introspect(ctx, token)
		if err != nil {
			if isCircuitFailure(err) {
				return err
			}
			denied = err
			return nil
		}
		decoded = resp
		return nil
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "anubis circuit open", "state", string(c.breaker.State()))
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return user.Principal{}, err
		}
		return user.Principal{}, fmt.Errorf("%w: verify access token: %w", usecase.ErrDependencyUnavailable, err)
	}
	if denied != nil {
		return user.Principal{}, denied
	}

	if !decoded.Active {
		return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "inactive token")
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, errors.Wrap(usecase.ErrUnauthorized, "introspection returned empty user_id")
	}

	return user.Principal{
		UserID:      decoded.UserID,
		Email:       decoded.Email,
		DisplayName: decoded.Name,
		IsAdmin:     hasRole(decoded.Roles, adminRole) || c.admins.Contains(decoded.Email),
	}, nil
}

func (c *Client) introspect(ctx context.Context, token string) (introspectResponse, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return introspectResponse{}, errors.Wrap(err, "marshal introspect request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return introspectResponse{}, errors.Wrap(err, "create introspect request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return introspectResponse{}, ctx.Err()
		}
		return introspectResponse{}, errors.Mark(errors.Wrap(err, "request introspection"), errAnubisTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return introspectResponse{}, errors.Mark(errors.Wrap(err, "read introspect response"), errAnubisTransient)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return introspectResponse{}, errors.Wrap(usecase.ErrUnauthorized, "introspection denied")
	case resp.StatusCode == http.StatusForbidden:
		// A 403 means our admin key was rejected, not the caller's token.
		c.logger.WarnContext(ctx, "anubis rejected admin key", "status_code", resp.StatusCode)
		return introspectResponse{}, errors.Mark(errors.Newf("anubis introspection forbidden"), errAnubisTransient)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		c.logger.WarnContext(ctx, "anubis introspection unavailable", "status_code", resp.StatusCode)
		return introspectResponse{}, errors.Mark(errors.Newf("anubis introspection failed with status %d", resp.StatusCode), errAnubisTransient)
	case resp.StatusCode != http.StatusOK:
		return introspectResponse{}, errors.Wrapf(usecase.ErrUnauthorized, "introspection returned status %d", resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return introspectResponse{}, errors.Mark(errors.Wrap(err, "unmarshal introspect response"), errAnubisTransient)
	}
	return decoded, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool     `json:"active"`
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
}
