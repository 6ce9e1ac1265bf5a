package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/methods"
)

type PasswordService interface {
	SignUp(ctx context.Context, req methods.SignUpRequest) (core.AuthResult, error)
	SignIn(ctx context.Context, req methods.SignInRequest) (core.AuthResult, error)
	SignOut(sink core.CredentialSink)
}

type SocialService interface {
	Callback(ctx context.Context, req methods.SocialCallbackRequest) (core.AuthResult, error)
	AssignRole(ctx context.Context, req methods.AssignRoleRequest) (core.AuthResult, error)
}

type PlatformService interface {
	Callback(ctx context.Context, code string, state string, sink core.CredentialSink) (core.AuthResult, error)
	Logout(ctx context.Context, source core.CredentialSource, sink core.CredentialSink) (string, error)
}

type SignUpCommand struct {
	service PasswordService
}

func NewSignUpCommand(service PasswordService) *SignUpCommand {
	return &SignUpCommand{service: service}
}

func (c *SignUpCommand) Execute(ctx context.Context, msg SignUpMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: password service is required")
	}
	out, err := c.service.SignUp(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SignInCommand struct {
	service PasswordService
}

func NewSignInCommand(service PasswordService) *SignInCommand {
	return &SignInCommand{service: service}
}

func (c *SignInCommand) Execute(ctx context.Context, msg SignInMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: password service is required")
	}
	out, err := c.service.SignIn(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SignOutCommand struct {
	service PasswordService
}

func NewSignOutCommand(service PasswordService) *SignOutCommand {
	return &SignOutCommand{service: service}
}

func (c *SignOutCommand) Execute(ctx context.Context, msg SignOutMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: password service is required")
	}
	c.service.SignOut(msg.Sink)
	return nil
}

type SocialCallbackCommand struct {
	service SocialService
}

func NewSocialCallbackCommand(service SocialService) *SocialCallbackCommand {
	return &SocialCallbackCommand{service: service}
}

func (c *SocialCallbackCommand) Execute(ctx context.Context, msg SocialCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: social service is required")
	}
	out, err := c.service.Callback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type AssignRoleCommand struct {
	service SocialService
}

func NewAssignRoleCommand(service SocialService) *AssignRoleCommand {
	return &AssignRoleCommand{service: service}
}

func (c *AssignRoleCommand) Execute(ctx context.Context, msg AssignRoleMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: social service is required")
	}
	out, err := c.service.AssignRole(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type PlatformCallbackCommand struct {
	service PlatformService
}

func NewPlatformCallbackCommand(service PlatformService) *PlatformCallbackCommand {
	return &PlatformCallbackCommand{service: service}
}

func (c *PlatformCallbackCommand) Execute(ctx context.Context, msg PlatformCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: platform service is required")
	}
	out, err := c.service.Callback(ctx, msg.Code, msg.State, msg.Sink)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type PlatformLogoutCommand struct {
	service PlatformService
}

func NewPlatformLogoutCommand(service PlatformService) *PlatformLogoutCommand {
	return &PlatformLogoutCommand{service: service}
}

func (c *PlatformLogoutCommand) Execute(ctx context.Context, msg PlatformLogoutMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: platform service is required")
	}
	out, err := c.service.Logout(ctx, msg.Source, msg.Sink)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
