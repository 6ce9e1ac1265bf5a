package core

import (
	"fmt"
	"strings"
)

// RoleChannel distinguishes flows that can collect a role inline from
// flows that redirect to a third party before a role can be collected.
type RoleChannel string

const (
	RoleChannelInline   RoleChannel = "inline"
	RoleChannelDeferred RoleChannel = "deferred"
)

type RoleDecision struct {
	Role     string
	Deferred bool
}

// RoleGate validates a requested role against the configured role set.
// With RBAC disabled every caller gets the default role. With RBAC enabled
// an inline flow must name a configured role up front, while a deferred
// flow proceeds on the default role and leaves a pending assignment for a
// follow-up call.
type RoleGate struct {
	rbac RBACConfig
}

func NewRoleGate(rbac RBACConfig) RoleGate {
	return RoleGate{rbac: rbac}
}

func (g RoleGate) Enabled() bool {
	return g.rbac.Enabled
}

func (g RoleGate) Admit(requested string, channel RoleChannel) (RoleDecision, error) {
	requested = strings.TrimSpace(requested)

	if !g.rbac.Enabled {
		return RoleDecision{Role: DefaultRole}, nil
	}

	if channel == RoleChannelDeferred {
		if requested == "" {
			return RoleDecision{Role: DefaultRole, Deferred: true}, nil
		}
		if !g.rbac.Allows(requested) {
			return RoleDecision{}, fmt.Errorf("core: role %q is not a valid role", requested)
		}
		return RoleDecision{Role: requested}, nil
	}

	if requested == "" {
		return RoleDecision{}, fmt.Errorf("core: role is required")
	}
	if !g.rbac.Allows(requested) {
		return RoleDecision{}, fmt.Errorf("core: role %q is not a valid role", requested)
	}
	return RoleDecision{Role: requested}, nil
}

// ValidateAssignment re-validates the role named in a deferred
// role-assignment call.
func (g RoleGate) ValidateAssignment(role string) error {
	if !g.rbac.Enabled {
		return fmt.Errorf("core: rbac is not enabled")
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return fmt.Errorf("core: role is required")
	}
	if !g.rbac.Allows(role) {
		return fmt.Errorf("core: role %q is not a valid role", role)
	}
	return nil
}
