// services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Pipeline stages, used in logs, metrics and the run audit log.
const (
	StageGuard        = "guard"
	StageAuthenticate = "authenticate"
	StageFetch        = "fetch"
	StageRender       = "render"
	StageDispatch     = "dispatch"
	StageSMS          = "sms"
	StageLogout       = "logout"
)

// AuthenticationError means login failed or returned no usable token. It aborts the run.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string { return "authenticate: " + e.Err.Error() }
func (e *AuthenticationError) Unwrap() error { return e.Err }

// FetchError means one of the agenda reads failed. It aborts the run.
type FetchError struct {
	Resource string // appointments or tasks
	Err      error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "render: " + e.Err.Error() }
func (e *RenderError) Unwrap() error { return e.Err }

// DispatchError means the provider rejected the email or could not be reached.
// It is logged only; the run still logs out.
type DispatchError struct {
	Provider string
	Err      error
}

func (e *DispatchError) Error() string { return fmt.Sprintf("dispatch via %s: %v", e.Provider, e.Err) }
func (e *DispatchError) Unwrap() error { return e.Err }

// CleanupWarning means logout failed. It is never escalated.
type CleanupWarning struct {
	Err error
}

func (e *CleanupWarning) Error() string { return "logout: " + e.Err.Error() }
func (e *CleanupWarning) Unwrap() error { return e.Err }

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// StageOf maps a pipeline error to the stage that produced it.
func StageOf(err error) string {
	var (
		authErr     *AuthenticationError
		fetchErr    *FetchError
		renderErr   *RenderError
		dispatchErr *DispatchError
		cleanupErr  *CleanupWarning
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr):
		return StageAuthenticate
	case errors.As(err, &fetchErr):
		return StageFetch
	case errors.As(err, &renderErr):
		return StageRender
	case errors.As(err, &dispatchErr):
		return StageDispatch
	case errors.As(err, &cleanupErr):
		return StageLogout
	default:
		return "unknown"
	}
}
