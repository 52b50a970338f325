package auth

import (
	"fmt"

	"github.com/pkg/errors"
)

// ClientErrorCode classifies failures raised locally, before or instead of a
// round trip to the backend.
type ClientErrorCode string

const (
	ClientErrorMustAuthenticate          ClientErrorCode = "MustAuthenticateFirst"
	ClientErrorUserNoLongerValid         ClientErrorCode = "UserNoLongerValid"
	ClientErrorLoggedOutDuringRequest    ClientErrorCode = "LoggedOutDuringRequest"
	ClientErrorCouldNotLoadPersistedAuth ClientErrorCode = "CouldNotLoadPersistedAuthInfo"
	ClientErrorCouldNotPersistAuth       ClientErrorCode = "CouldNotPersistAuthInfo"
)

// ClientError is a local precondition or persistence failure.
type ClientError struct {
	Code ClientErrorCode
	Err  error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error: %s: %s", e.Code, e.Err)
	}
	return fmt.Sprintf("client error: %s", e.Code)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is matches any ClientError with the same code, so sentinel instances below
// work with errors.Is even after wrapping.
func (e *ClientError) Is(target error) bool {
	other, ok := target.(*ClientError)
	return ok && other.Code == e.Code
}

var (
	MustAuthenticateErr  = &ClientError{Code: ClientErrorMustAuthenticate}
	UserNoLongerValidErr = &ClientError{Code: ClientErrorUserNoLongerValid}
)

func couldNotLoadPersistedAuthErr(cause error) error {
	return &ClientError{Code: ClientErrorCouldNotLoadPersistedAuth, Err: cause}
}

func couldNotPersistAuthErr(cause error) error {
	return &ClientError{Code: ClientErrorCouldNotPersistAuth, Err: cause}
}

// RequestErrorKind distinguishes transport failures from decoding failures.
type RequestErrorKind string

const (
	RequestErrorTransport RequestErrorKind = "Transport"
	RequestErrorDecoding  RequestErrorKind = "Decoding"
)

// RequestError wraps a failure to deliver a request or to decode its
// response.
type RequestError struct {
	Kind RequestErrorKind
	Err  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request error (%s): %s", e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ServiceErrorCode is the error-code field of a backend error response.
type ServiceErrorCode string

const (
	ServiceErrorInvalidSession ServiceErrorCode = "InvalidSession"
	ServiceErrorUnknown        ServiceErrorCode = "Unknown"
)

// ServiceError is a failure the backend reported in its response body.
type ServiceError struct {
	StatusCode int
	Code       ServiceErrorCode
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsInvalidSession reports whether err is a backend "invalid session"
// condition, the one service error the session manager special-cases.
func IsInvalidSession(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) && serviceErr.Code == ServiceErrorInvalidSession
}
