package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AuthErrorValidation   = "AUTH_VALIDATION"
	AuthErrorUnauthorized = "AUTH_UNAUTHORIZED"
	AuthErrorForbidden    = "AUTH_FORBIDDEN"
	AuthErrorNotFound     = "AUTH_NOT_FOUND"
	AuthErrorConflict     = "AUTH_CONFLICT"
	AuthErrorUpstream     = "AUTH_UPSTREAM"
	AuthErrorInternal     = "AUTH_INTERNAL"
)

func authErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAuthErrorEnvelope(richErr)
	}

	switch {
	case goerrors.Is(err, ErrEmailTaken), goerrors.Is(err, ErrRoleMismatch):
		return wrapAuthError(err, goerrors.CategoryConflict, AuthErrorConflict)
	case goerrors.Is(err, ErrPrincipalNotFound), goerrors.Is(err, ErrPendingRoleNotFound):
		return wrapAuthError(err, goerrors.CategoryNotFound, AuthErrorNotFound)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signup is disabled"):
		return newAuthError(err.Error(), goerrors.CategoryAuthz, AuthErrorForbidden)
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "invalid email or password"):
		return newAuthError(err.Error(), goerrors.CategoryAuth, AuthErrorUnauthorized)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"),
		strings.Contains(msg, "not a valid role"), strings.Contains(msg, "not allowed"):
		return newAuthError(err.Error(), goerrors.CategoryBadInput, AuthErrorValidation)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAuthErrorEnvelope(mapped)
}

func newAuthError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAuthErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

// wrapAuthError keeps the cause in the chain so sentinel checks with
// errors.Is still hold on the mapped error.
func wrapAuthError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAuthErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func ensureAuthErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = authHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAuthTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAuthTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AuthErrorValidation
	case goerrors.CategoryAuth:
		return AuthErrorUnauthorized
	case goerrors.CategoryAuthz:
		return AuthErrorForbidden
	case goerrors.CategoryNotFound:
		return AuthErrorNotFound
	case goerrors.CategoryConflict:
		return AuthErrorConflict
	case goerrors.CategoryExternal:
		return AuthErrorUpstream
	default:
		return AuthErrorInternal
	}
}

func authHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
