package delivery

import (
	"context"
	"crypto/hmac"
	"fmt"
	"strings"

	"github.com/goliatone/go-authflow/core"
)

// APIKeyDelivery verifies a single static key presented on a request
// header. The key grants no identity of its own; a role side channel can
// assert one, and the caller decides whether to honor it.
type APIKeyDelivery struct {
	cfg core.APIKeyDeliveryConfig
}

func NewAPIKeyDelivery(cfg core.APIKeyDeliveryConfig) (*APIKeyDelivery, error) {
	if strings.TrimSpace(cfg.Value) == "" {
		return nil, fmt.Errorf("delivery: api key value is required")
	}
	return &APIKeyDelivery{cfg: cfg}, nil
}

// Issue echoes the configured key so the caller can hand it to the
// consumer. Nothing is written to the sink: keys travel out of band.
func (d *APIKeyDelivery) Issue(ctx context.Context, claims core.Claims, sink core.CredentialSink) (core.IssuedCredential, error) {
	if d == nil {
		return core.IssuedCredential{}, fmt.Errorf("delivery: api key delivery is not configured")
	}
	return core.IssuedCredential{APIKey: d.cfg.Value}, nil
}

// Verify compares the presented key against the configured one. A missing
// header fails closed.
func (d *APIKeyDelivery) Verify(source core.CredentialSource) bool {
	if d == nil || source == nil {
		return false
	}
	presented, ok := source.Header(d.cfg.Header())
	if !ok {
		return false
	}
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return false
	}
	return hmac.Equal([]byte(presented), []byte(d.cfg.Value))
}

// AssertedRole reads the role side channel. It does not prove anything;
// it only reports what the caller claimed.
func (d *APIKeyDelivery) AssertedRole(source core.CredentialSource) (string, bool) {
	if d == nil || source == nil {
		return "", false
	}
	role, ok := source.Header(d.cfg.RoleHeaderName())
	role = strings.TrimSpace(role)
	if !ok || role == "" {
		return "", false
	}
	return role, true
}
