package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-authflow/core"
)

const defaultAuthKitBaseURL = "https://api.workos.com"

type AuthKitConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	LogoutURL    string
	Timeout      time.Duration
	HTTPClient   HTTPDoer
}

// AuthKitClient talks to a WorkOS-style user-management API: hosted
// consent screen, code exchange under /user_management/authenticate, and
// session-scoped logout.
type AuthKitClient struct {
	cfg        AuthKitConfig
	httpClient HTTPDoer
}

func NewAuthKitClient(cfg AuthKitConfig) (*AuthKitClient, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAuthKitBaseURL
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("platform: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("platform: client secret is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &AuthKitClient{cfg: cfg, httpClient: httpClient}, nil
}

func (c *AuthKitClient) AuthorizationURL(redirectURI string, state string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("platform: authkit client is not configured")
	}
	authorize, err := url.Parse(c.cfg.BaseURL + "/user_management/authorize")
	if err != nil {
		return "", fmt.Errorf("platform: build authorization url: %w", err)
	}
	query := authorize.Query()
	query.Set("client_id", c.cfg.ClientID)
	query.Set("redirect_uri", strings.TrimSpace(redirectURI))
	query.Set("response_type", "code")
	query.Set("provider", "authkit")
	if state = strings.TrimSpace(state); state != "" {
		query.Set("state", state)
	}
	authorize.RawQuery = query.Encode()
	return authorize.String(), nil
}

type authKitUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type authKitAuthResponse struct {
	User        authKitUser `json:"user"`
	AccessToken string      `json:"access_token"`
}

func (c *AuthKitClient) Authenticate(ctx context.Context, code string) (Session, error) {
	if c == nil || c.httpClient == nil {
		return Session{}, fmt.Errorf("platform: authkit client is not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Session{}, fmt.Errorf("platform: authorization code is required")
	}

	body, err := json.Marshal(map[string]string{
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"grant_type":    "authorization_code",
		"code":          code,
	})
	if err != nil {
		return Session{}, fmt.Errorf("platform: encode authenticate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/user_management/authenticate", bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("platform: build authenticate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, goerrors.Wrap(err, goerrors.CategoryExternal, "platform: authenticate request failed").
			WithTextCode(core.AuthErrorUpstream)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, maxDirectoryResponseSize))
	if err != nil {
		return Session{}, goerrors.Wrap(err, goerrors.CategoryExternal, "platform: read authenticate response").
			WithTextCode(core.AuthErrorUpstream)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Session{}, goerrors.New(
			fmt.Sprintf("platform: code exchange returned status %d", res.StatusCode),
			goerrors.CategoryAuth,
		).WithTextCode(core.AuthErrorUnauthorized)
	}

	var decoded authKitAuthResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Session{}, goerrors.Wrap(err, goerrors.CategoryExternal, "platform: decode authenticate response").
			WithTextCode(core.AuthErrorUpstream)
	}
	if strings.TrimSpace(decoded.User.ID) == "" {
		return Session{}, goerrors.New("platform: authenticate response carries no user", goerrors.CategoryExternal).
			WithTextCode(core.AuthErrorUpstream)
	}
	return Session{
		PlatformUserID: decoded.User.ID,
		Email:          decoded.User.Email,
		FirstName:      decoded.User.FirstName,
		LastName:       decoded.User.LastName,
		AccessToken:    decoded.AccessToken,
	}, nil
}

func (c *AuthKitClient) LogoutURL(sessionID string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("platform: authkit client is not configured")
	}
	base := strings.TrimSpace(c.cfg.LogoutURL)
	if base == "" {
		base = c.cfg.BaseURL + "/user_management/sessions/logout"
	}
	logout, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("platform: build logout url: %w", err)
	}
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		query := logout.Query()
		query.Set("session_id", sessionID)
		logout.RawQuery = query.Encode()
	}
	return logout.String(), nil
}

var _ IdentityClient = (*AuthKitClient)(nil)
