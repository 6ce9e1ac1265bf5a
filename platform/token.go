package platform

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// SessionIDFromAccessToken reads the `sid` claim out of the platform's
// access token without verifying it. The token was just handed to us by
// the platform over the code exchange; we only need the session handle
// for the later logout call.
func SessionIDFromAccessToken(accessToken string) (string, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return "", fmt.Errorf("platform: access token is empty")
	}
	segments := strings.Split(accessToken, ".")
	if len(segments) < 2 {
		return "", fmt.Errorf("platform: access token is not a jwt")
	}
	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	if err != nil {
		return "", fmt.Errorf("platform: decode access token payload: %w", err)
	}
	claims := map[string]any{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("platform: parse access token payload: %w", err)
	}
	sid, _ := claims["sid"].(string)
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return "", fmt.Errorf("platform: access token carries no session id")
	}
	return sid, nil
}
