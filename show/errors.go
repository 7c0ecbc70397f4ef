package show

import (
	"errors"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrOutOfRange   = errors.New("out of range")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Store errors. Stores return these (possibly wrapped) and the Service
// turns them into user-facing errors.
var (
	ErrNoDocument   = errors.New("no matching document")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Error is a failure the requesting client is told about. Message is
// shown to the user as-is.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrUsernameTaken   = newError(ErrConflict, "Username already taken")
	ErrSessionNotFound = newError(ErrNotFound, "Session not found")
	ErrDuplicateVote   = newError(ErrConflict, "Already voted for this prompt")
	ErrAlreadyAnswered = newError(ErrConflict, "Guess already submitted")
	ErrNothingToUndo   = newError(ErrNotFound, "Nothing to undo")
	ErrNoCurrentPrompt = newError(ErrNotFound, "No current question")
	ErrNoComedian      = newError(ErrNotFound, "No current comedian")
)

func validationError(msg string) error {
	return newError(ErrValidation, msg)
}

func notFound(msg string) error {
	return newError(ErrNotFound, msg)
}

func outOfRange(msg string) error {
	return newError(ErrOutOfRange, msg)
}

func unauthorized(msg string) error {
	return newError(ErrUnauthorized, msg)
}

// UserMessage returns the text to show the client for err, or fallback
// when err is not a user-facing error (for example a store failure).
func UserMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
