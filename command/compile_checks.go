package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SignUpMessage]           = (*SignUpCommand)(nil)
	_ gocmd.Commander[SignInMessage]           = (*SignInCommand)(nil)
	_ gocmd.Commander[SignOutMessage]          = (*SignOutCommand)(nil)
	_ gocmd.Commander[SocialCallbackMessage]   = (*SocialCallbackCommand)(nil)
	_ gocmd.Commander[AssignRoleMessage]       = (*AssignRoleCommand)(nil)
	_ gocmd.Commander[PlatformCallbackMessage] = (*PlatformCallbackCommand)(nil)
	_ gocmd.Commander[PlatformLogoutMessage]   = (*PlatformLogoutCommand)(nil)
)
