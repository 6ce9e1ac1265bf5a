package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/methods"
)

const (
	TypeSignUp           = "authflow.command.password.sign_up"
	TypeSignIn           = "authflow.command.password.sign_in"
	TypeSignOut          = "authflow.command.password.sign_out"
	TypeSocialCallback   = "authflow.command.social.callback"
	TypeAssignRole       = "authflow.command.social.assign_role"
	TypePlatformCallback = "authflow.command.platform.callback"
	TypePlatformLogout   = "authflow.command.platform.logout"
)

type SignUpMessage struct {
	Request methods.SignUpRequest
}

func (SignUpMessage) Type() string { return TypeSignUp }

func (m SignUpMessage) Validate() error {
	if strings.TrimSpace(m.Request.Email) == "" {
		return fmt.Errorf("command: email is required")
	}
	if strings.TrimSpace(m.Request.Password) == "" {
		return fmt.Errorf("command: password is required")
	}
	return nil
}

type SignInMessage struct {
	Request methods.SignInRequest
}

func (SignInMessage) Type() string { return TypeSignIn }

func (m SignInMessage) Validate() error {
	if strings.TrimSpace(m.Request.Email) == "" {
		return fmt.Errorf("command: email is required")
	}
	if strings.TrimSpace(m.Request.Password) == "" {
		return fmt.Errorf("command: password is required")
	}
	return nil
}

type SignOutMessage struct {
	Sink core.CredentialSink
}

func (SignOutMessage) Type() string { return TypeSignOut }

func (m SignOutMessage) Validate() error {
	if m.Sink == nil {
		return fmt.Errorf("command: credential sink is required")
	}
	return nil
}

type SocialCallbackMessage struct {
	Request methods.SocialCallbackRequest
}

func (SocialCallbackMessage) Type() string { return TypeSocialCallback }

func (m SocialCallbackMessage) Validate() error {
	if strings.TrimSpace(m.Request.ProviderID) == "" {
		return fmt.Errorf("command: provider id is required")
	}
	if len(m.Request.Profile) == 0 {
		return fmt.Errorf("command: provider profile is required")
	}
	return nil
}

type AssignRoleMessage struct {
	Request methods.AssignRoleRequest
}

func (AssignRoleMessage) Type() string { return TypeAssignRole }

func (m AssignRoleMessage) Validate() error {
	if strings.TrimSpace(m.Request.Role) == "" {
		return fmt.Errorf("command: role is required")
	}
	if m.Request.Session == nil {
		return fmt.Errorf("command: session context is required")
	}
	return nil
}

// PlatformCallbackMessage carries the authorization code and the opaque
// state payload the prompt round-tripped through the platform.
type PlatformCallbackMessage struct {
	Code  string
	State string
	Sink  core.CredentialSink
}

func (PlatformCallbackMessage) Type() string { return TypePlatformCallback }

func (m PlatformCallbackMessage) Validate() error {
	if strings.TrimSpace(m.Code) == "" {
		return fmt.Errorf("command: authorization code is required")
	}
	return nil
}

type PlatformLogoutMessage struct {
	Source core.CredentialSource
	Sink   core.CredentialSink
}

func (PlatformLogoutMessage) Type() string { return TypePlatformLogout }

func (m PlatformLogoutMessage) Validate() error {
	if m.Source == nil {
		return fmt.Errorf("command: credential source is required")
	}
	return nil
}
