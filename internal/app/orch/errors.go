package orch

import (
	"errors"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/app"
)

var (
	ErrMissingIdentity = errors.New("register before sending messages")
	ErrBadPayload      = errors.New("bad payload")
	ErrUnknownEvent    = errors.New("unknown event")
	ErrNotInVoice      = errors.New("both peers must be in the voice channel")
	ErrInternal        = errors.New("internal error")
)

const (
	CodeNotFound        = "not_found"
	CodeMissingIdentity = "missing_identity"
	CodeBadPayload      = "bad_payload"
	CodeUnknownEvent    = "unknown_event"
	CodeNotInVoice      = "not_in_voice"
	CodeInvalidSignal   = "invalid_signal"
	// CodeNotAttached means the connection id was never attached to the hub.
	// The websocket adapter attaches before its first read, so only direct
	// callers of Dispatch see it.
	CodeNotAttached     = "not_attached"
	CodeInternal        = "internal"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrGroupNotFound):
		return CodeNotFound
	case errors.Is(err, ErrMissingIdentity):
		return CodeMissingIdentity
	case errors.Is(err, ErrBadPayload):
		return CodeBadPayload
	case errors.Is(err, ErrUnknownEvent):
		return CodeUnknownEvent
	case errors.Is(err, ErrNotInVoice):
		return CodeNotInVoice
	case errors.Is(err, rtc.ErrInvalidSignal):
		return CodeInvalidSignal
	case errors.Is(err, app.ErrNotAttached):
		return CodeNotAttached
	default:
		return CodeInternal
	}
}
