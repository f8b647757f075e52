package handlers

import (
	"errors"
	"fmt"

	"github.com/cbodonnell/panchali/pkg/locale"
)

// Kind groups error codes by how the caller should treat them.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Code is a machine readable error code sent to clients.
type Code string

const (
	CodeInvalidRequest     Code = "INVALID_REQUEST"
	CodeInvalidName        Code = "INVALID_NAME"
	CodeNameTaken          Code = "NAME_TAKEN"
	CodeRoomFull           Code = "ROOM_FULL"
	CodeGameAlreadyStarted Code = "GAME_ALREADY_STARTED"
	CodeNotEnoughPlayers   Code = "NOT_ENOUGH_PLAYERS"
	CodeNotHost            Code = "NOT_HOST"
	CodeNotYourTurn        Code = "NOT_YOUR_TURN"
	CodeRoomNotFound       Code = "ROOM_NOT_FOUND"
	CodeGameNotFound       Code = "GAME_NOT_FOUND"
	CodeGameOver           Code = "GAME_OVER"
	CodeRollFailed         Code = "ROLL_FAILED"
	CodeInternal           Code = "INTERNAL"
)

var codeKinds = map[Code]Kind{
	CodeInvalidRequest:     KindValidation,
	CodeInvalidName:        KindValidation,
	CodeNameTaken:          KindValidation,
	CodeRoomFull:           KindValidation,
	CodeGameAlreadyStarted: KindValidation,
	CodeNotEnoughPlayers:   KindValidation,
	CodeGameOver:           KindValidation,
	CodeNotHost:            KindAuthorization,
	CodeNotYourTurn:        KindAuthorization,
	CodeRoomNotFound:       KindNotFound,
	CodeGameNotFound:       KindNotFound,
	CodeRollFailed:         KindInternal,
	CodeInternal:           KindInternal,
}

// Error is a handler outcome reported to the requesting connection only.
// Message is the player facing text.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func wrapInternal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: locale.ErrInternal, Cause: cause}
}

func (e *Error) Kind() Kind {
	if kind, ok := codeKinds[e.Code]; ok {
		return kind
	}
	return KindInternal
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// AsError returns err as an *Error, wrapping anything else as internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return wrapInternal(err)
}
