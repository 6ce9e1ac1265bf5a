package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-authflow/core"
)

const (
	claimSubject   = "id"
	claimRole      = "role"
	claimRelation  = "up_id"
	claimSessionID = "session_id"

	authorizationHeader = "authorization"
	bearerPrefix        = "bearer "

	defaultTokenTTL = 24 * time.Hour
)

// TokenDelivery signs, resolves, and revokes the JWT session credential.
// When both cookie and header channels are configured, resolution checks
// the header first and then the cookie; either channel being absent fails
// the resolution outright rather than falling over to the other.
type TokenDelivery struct {
	cfg core.JWTDeliveryConfig
}

func NewTokenDelivery(cfg core.JWTDeliveryConfig) (*TokenDelivery, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("delivery: jwt signing secret is required")
	}
	if len(cfg.SendVia) == 0 {
		cfg.SendVia = []string{core.ChannelCookie}
	}
	if cfg.ExpiresIn == 0 {
		cfg.ExpiresIn = defaultTokenTTL
	}
	return &TokenDelivery{cfg: cfg}, nil
}

func (d *TokenDelivery) Issue(ctx context.Context, claims core.Claims, sink core.CredentialSink) (core.IssuedCredential, error) {
	if d == nil {
		return core.IssuedCredential{}, fmt.Errorf("delivery: token delivery is not configured")
	}
	if claims.Empty() {
		return core.IssuedCredential{}, fmt.Errorf("delivery: credential claims require a subject")
	}

	payload := jwt.MapClaims{}
	if subject := strings.TrimSpace(claims.Subject); subject != "" {
		payload[claimSubject] = subject
	}
	if role := strings.TrimSpace(claims.Role); role != "" {
		payload[claimRole] = role
	}
	if relation := strings.TrimSpace(claims.RelationID); relation != "" {
		payload[claimRelation] = relation
	}
	if session := strings.TrimSpace(claims.SessionID); session != "" {
		payload[claimSessionID] = session
	}
	// Every token expires; a non-positive configured window produces a
	// token that is already dead on arrival instead of one that never dies.
	now := time.Now().UTC()
	payload["iat"] = jwt.NewNumericDate(now)
	payload["exp"] = jwt.NewNumericDate(now.Add(d.cfg.ExpiresIn))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).
		SignedString([]byte(d.cfg.Secret))
	if err != nil {
		return core.IssuedCredential{}, fmt.Errorf("delivery: sign token: %w", err)
	}

	if d.cfg.SendsVia(core.ChannelCookie) && sink != nil {
		sink.SetCookie(d.cfg.Cookie.CookieName(), token, d.cfg.Cookie)
	}

	issued := core.IssuedCredential{ExpiresIn: d.cfg.ExpiresIn}
	if d.cfg.SendsVia(core.ChannelHeader) {
		issued.Token = token
	}
	return issued, nil
}

// Resolve reads the credential from the configured channels and verifies
// it. Verification failure never surfaces as an error: the result is
// simply invalid.
func (d *TokenDelivery) Resolve(ctx context.Context, source core.CredentialSource) core.ResolvedCredential {
	if d == nil || source == nil {
		return core.ResolvedCredential{}
	}

	var token string
	if d.cfg.SendsVia(core.ChannelHeader) {
		raw, ok := source.Header(authorizationHeader)
		if !ok {
			return core.ResolvedCredential{}
		}
		token = strings.TrimSpace(raw)
		if strings.HasPrefix(strings.ToLower(token), bearerPrefix) {
			token = strings.TrimSpace(token[len(bearerPrefix):])
		}
		if token == "" {
			return core.ResolvedCredential{}
		}
	}
	if d.cfg.SendsVia(core.ChannelCookie) {
		raw, ok := source.Cookie(d.cfg.Cookie.CookieName())
		if !ok || strings.TrimSpace(raw) == "" {
			return core.ResolvedCredential{}
		}
		token = strings.TrimSpace(raw)
	}
	if token == "" {
		return core.ResolvedCredential{}
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("delivery: unexpected signing method %q", t.Method.Alg())
		}
		return []byte(d.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return core.ResolvedCredential{}
	}
	payload, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return core.ResolvedCredential{}
	}

	return core.ResolvedCredential{
		Valid: true,
		Claims: core.Claims{
			Subject:    readStringClaim(payload, claimSubject),
			Role:       readStringClaim(payload, claimRole),
			RelationID: readStringClaim(payload, claimRelation),
			SessionID:  readStringClaim(payload, claimSessionID),
		},
	}
}

// Revoke clears the cookie channel. Header revocation is out of band: the
// caller stops sending the header.
func (d *TokenDelivery) Revoke(sink core.CredentialSink) {
	if d == nil || sink == nil {
		return
	}
	if d.cfg.SendsVia(core.ChannelCookie) {
		sink.ClearCookie(d.cfg.Cookie.CookieName(), d.cfg.Cookie)
	}
}

func readStringClaim(payload jwt.MapClaims, key string) string {
	value, ok := payload[key]
	if !ok {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
