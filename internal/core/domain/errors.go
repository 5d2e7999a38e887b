package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error. The HTTP layer maps each kind to a status code.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a business-rule violation surfaced to the caller.
// Code is a stable message identifier; Message is the English text.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Args are template values for localized renderings of Message.
	Args map[string]any
}

func (e *Error) Error() string { return e.Message }

// Is matches on Code so that errors built by helpers such as MissingField
// compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// KindOf returns the kind of err, or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Seminar rules.
var (
	ErrOnlyInstructorCanMake = newError(KindForbidden, "seminar.make.instructor_only",
		"Only instructor can make a seminar.")
	ErrInvalidTimeFormat = newError(KindBadRequest, "seminar.time.format",
		"'time' should be written as a format 'HH:mm'.")
	ErrNoConductedSeminar = newError(KindForbidden, "seminar.update.not_instructor",
		"You don't conduct any seminar. Thus you can not update a seminar.")
	ErrSeminarNotFound = newError(KindNotFound, "seminar.not_found",
		"This seminar doesn't exist.")
	ErrInvalidRole = newError(KindBadRequest, "membership.role.invalid",
		"'role' should be either PARTICIPANT or INSTRUCTOR.")
	ErrOnlyInstructorCanConduct = newError(KindForbidden, "membership.instructor_only",
		"Only instructor can conduct a seminar.")
	ErrOnlyParticipantCanJoin = newError(KindForbidden, "membership.participant_only",
		"Only participant can participate in a seminar. You already conduct this seminar.")
	ErrRejoinAfterDrop = newError(KindBadRequest, "membership.rejoin",
		"You dropped this seminar before. You can not participate in this seminar again.")
	ErrAlreadyParticipating = newError(KindBadRequest, "membership.duplicate",
		"You are already participating in this seminar.")
	ErrSeminarFull = newError(KindBadRequest, "membership.full",
		"This seminar is already full.")
	ErrInstructorCannotDrop = newError(KindForbidden, "membership.drop.instructor",
		"Instructor can not drop the seminar.")
	ErrNotParticipating = newError(KindNotFound, "membership.not_found",
		"You don't participate in this seminar.")
	ErrSoleInstructor = newError(KindForbidden, "user.delete.sole_instructor",
		"The only instructor of a seminar can not leave the service.")
	ErrIdempotencyInFlight = newError(KindConflict, "seminar.idempotency.in_flight",
		"A request with this Idempotency-Key is still being processed.")
)

// User and authentication rules.
var (
	ErrUserNotFound = newError(KindNotFound, "user.not_found",
		"This user doesn't exist.")
	ErrEmailExists = newError(KindConflict, "user.email.exists",
		"This email already exists.")
	ErrEmailNotFound = newError(KindNotFound, "auth.email.not_found",
		"This email doesn't exist.")
	ErrWrongPassword = newError(KindUnauthorized, "auth.password.wrong",
		"Wrong password.")
	ErrAlreadyParticipant = newError(KindConflict, "user.participant.exists",
		"You are already registered as a participant.")
	ErrInvalidToken = newError(KindUnauthorized, "auth.token.invalid",
		"The token is not valid.")
	ErrExpiredToken = newError(KindUnauthorized, "auth.token.expired",
		"The token has expired. Please sign in again.")
	ErrMissingToken = newError(KindUnauthorized, "auth.token.missing",
		"The token is not given.")
	ErrRoleNotAllowed = newError(KindForbidden, "auth.forbidden",
		"You are not allowed to do this.")
)

// Storage-level conditions. Services translate these into caller-facing errors.
var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipExists   = errors.New("membership already exists")
)

// ErrMissingFieldCode is shared by every MissingField error.
const ErrMissingFieldCode = "request.field.missing"

// ErrMissingField matches any error returned by MissingField.
var ErrMissingField = newError(KindBadRequest, ErrMissingFieldCode, "a required field is missing")

// MissingField reports an absent required request field.
func MissingField(field string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Code:    ErrMissingFieldCode,
		Message: fmt.Sprintf("'%s' is required.", field),
		Args:    map[string]any{"Field": field},
	}
}

// ErrNotPositiveCode is shared by every NotPositive error.
const ErrNotPositiveCode = "request.field.not_positive"

// NotPositive reports a numeric field that must be greater than zero.
func NotPositive(field string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Code:    ErrNotPositiveCode,
		Message: fmt.Sprintf("'%s' should be a positive number.", field),
		Args:    map[string]any{"Field": field},
	}
}

// ErrInvalidFieldCode is shared by every InvalidField error.
const ErrInvalidFieldCode = "request.field.invalid"

// InvalidField reports a request field that failed a format rule such as email.
func InvalidField(field, rule string) *Error {
	return &Error{
		Kind:    KindBadRequest,
		Code:    ErrInvalidFieldCode,
		Message: fmt.Sprintf("'%s' failed validation (%s).", field, rule),
		Args:    map[string]any{"Field": field, "Rule": rule},
	}
}

// ErrMalformedBody is returned when a request body cannot be decoded.
var ErrMalformedBody = newError(KindBadRequest, "request.malformed", "The request body is malformed.")
