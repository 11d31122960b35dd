package orch

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Dispatch decodes one inbound event and runs its handler. Failures are
// reported to conn only and never affect other connections.
func (o *Orchestrator) Dispatch(conn domain.ConnID, raw []byte) {
	var env Envelope
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch").Str("conn", string(conn)).Str("type", env.Type).Interface("panic", r).Msg("handler panicked")
			o.replyError(conn, env.Type, fmt.Errorf("%w: %v", ErrInternal, r))
		}
	}()

	if err := json.Unmarshal(raw, &env); err != nil {
		log.Error().Err(err).Str("module", "orch").Str("conn", string(conn)).Msg("bad json")
		o.replyError(conn, "", fmt.Errorf("%w: %v", ErrBadPayload, err))
		return
	}

	var err error
	switch env.Type {
	case EventRegister:
		err = o.handleRegister(conn, env.Data)
	case EventCreateGroup:
		err = o.handleCreateGroup(conn, env.Data)
	case EventJoinGroup:
		err = o.handleJoinGroup(conn, env.Data)
	case EventSendMessage:
		err = o.handleSendMessage(conn, env.Data)
	case EventJoinVoiceChat:
		err = o.handleJoinVoice(conn, env.Data)
	case EventLeaveVoiceChat:
		err = o.handleLeaveVoice(conn, env.Data)
	case EventVoiceSignal:
		err = o.handleVoiceSignal(conn, env.Data)
	case EventPing:
		o.reply(conn, EventPong, nil)
	default:
		log.Warn().Str("module", "orch").Str("type", env.Type).Msg("unknown event")
		err = fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	if err != nil {
		o.replyError(conn, env.Type, err)
	}
}

func (o *Orchestrator) replyError(conn domain.ConnID, event string, err error) {
	code := errorCode(err)
	if code == CodeNotFound && !o.Options.ReportNotFound {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("event", event).Msg("dropped silently")
		return
	}
	log.Info().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("event", event).Str("code", code).Msg("request failed")
	o.reply(conn, EventError, ErrorPayload{Event: event, Code: code, Error: err.Error()})
}

func decode(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
