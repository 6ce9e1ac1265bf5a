package platform

import "context"

// Session is what the identity platform returns after a successful code
// exchange. AccessToken is the platform's own token; it is only inspected
// for the session id and never forwarded to callers.
type Session struct {
	PlatformUserID string
	Email          string
	FirstName      string
	LastName       string
	AccessToken    string
}

// IdentityClient is the hosted identity platform: consent URL, code
// exchange, and session-bound logout.
type IdentityClient interface {
	AuthorizationURL(redirectURI string, state string) (string, error)
	Authenticate(ctx context.Context, code string) (Session, error)
	LogoutURL(sessionID string) (string, error)
}
