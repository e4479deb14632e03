package apperrors

import (
	"errors"
)

// Error kinds
// Every domain error wraps exactly one of them, so the HTTP layer only has to check the kind
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrUsernameTaken      = newError(ErrConflict, "a user with this username already exists")
	ErrEmailTaken         = newError(ErrConflict, "a user with this email already exists")
	ErrPhoneTaken         = newError(ErrConflict, "a user with this phone number already exists")
	ErrUserOwnsProperties = newError(ErrConflict, "user still owns properties")
	ErrWrongOldPassword   = newError(ErrInvalidInput, "old password is incorrect")

	ErrPropertyNotFound = newError(ErrNotFound, "property not found")
	ErrAgentNotFound    = newError(ErrNotFound, "agent not found")
	ErrNotAnAgent       = newError(ErrForbidden, "user is not authorized to be an agent")

	ErrAppointmentNotFound = newError(ErrNotFound, "appointment not found")
	ErrAppointmentConflict = newError(ErrConflict, "time already booked for this property, please pick another time")

	ErrInvalidAppointmentStatus = newError(ErrInvalidInput, "unknown appointment status")
	ErrInvalidPropertyStatus    = newError(ErrInvalidInput, "unknown property status")
	ErrInvalidRole              = newError(ErrInvalidInput, "unknown role")
	ErrInvalidFileName          = newError(ErrInvalidInput, "invalid file name")

	ErrInvalidCredentials  = newError(ErrUnauthorized, "invalid credentials")
	ErrCouldNotValidate    = newError(ErrUnauthorized, "could not validate credentials")
	ErrInvalidToken        = newError(ErrUnauthorized, "invalid token")
	ErrInvalidTokenType    = newError(ErrUnauthorized, "invalid token type")
	ErrInvalidRefreshToken = newError(ErrUnauthorized, "invalid refresh token")
	ErrInsufficientRole    = newError(ErrForbidden, "forbidden")
)

// Error is a domain error of a well known kind
// Its message is safe to show to API clients
type Error struct {
	kind    error
	message string
}

func newError(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Kind returns the kind the error belongs to
func (e *Error) Kind() error {
	return e.kind
}
