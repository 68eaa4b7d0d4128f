package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ConnectErrorBadInput          = "CONNECT_BAD_INPUT"
	ConnectErrorAccountUnresolved = "CONNECT_ACCOUNT_UNRESOLVED"
	ConnectErrorNotConnected      = "CONNECT_NOT_CONNECTED"
	ConnectErrorOAuthFailed       = "CONNECT_OAUTH_FAILED"
	ConnectErrorRepositoryFailed  = "CONNECT_REPOSITORY_FAILED"
	ConnectErrorProviderAPIFailed = "CONNECT_PROVIDER_API_FAILED"
	ConnectErrorInternal          = "CONNECT_INTERNAL_ERROR"
)

func connectErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureConnectErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "account") && strings.Contains(msg, "not resolved"):
		return newConnectError(err.Error(), goerrors.CategoryAuth, ConnectErrorAccountUnresolved)
	case strings.Contains(msg, "not connected"):
		return newConnectError(err.Error(), goerrors.CategoryNotFound, ConnectErrorNotConnected)
	case strings.Contains(msg, "request token"), strings.Contains(msg, "access token"), strings.Contains(msg, "oauth"):
		return newConnectError(err.Error(), goerrors.CategoryOperation, ConnectErrorOAuthFailed)
	case strings.Contains(msg, "repository"), strings.Contains(msg, "connection store"):
		return newConnectError(err.Error(), goerrors.CategoryOperation, ConnectErrorRepositoryFailed)
	case strings.Contains(msg, "provider account"), strings.Contains(msg, "provider api"):
		return newConnectError(err.Error(), goerrors.CategoryOperation, ConnectErrorProviderAPIFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "missing"):
		return newConnectError(err.Error(), goerrors.CategoryBadInput, ConnectErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureConnectErrorEnvelope(mapped)
}

func newConnectError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureConnectErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureConnectErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = connectHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultConnectTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultConnectTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ConnectErrorBadInput
	case goerrors.CategoryNotFound:
		return ConnectErrorNotConnected
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ConnectErrorAccountUnresolved
	case goerrors.CategoryOperation:
		return ConnectErrorOAuthFailed
	default:
		return ConnectErrorInternal
	}
}

func connectHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
