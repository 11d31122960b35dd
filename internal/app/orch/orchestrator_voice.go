package orch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) handleJoinVoice(conn domain.ConnID, data json.RawMessage) error {
	var id domain.GroupID
	if err := decode(data, &id); err != nil {
		return err
	}
	if err := o.Presence.JoinVoice(id, conn); err != nil {
		return fmt.Errorf("join voice %q: %w", id, err)
	}
	o.publish(core.VoiceChannel(id), EventUserJoinedVoice, conn, conn)
	return nil
}

// handleLeaveVoice never fails on a missing group or subscription; the
// remaining subscribers are told either way.
func (o *Orchestrator) handleLeaveVoice(conn domain.ConnID, data json.RawMessage) error {
	var id domain.GroupID
	if err := decode(data, &id); err != nil {
		return err
	}
	o.Presence.LeaveVoice(id, conn)
	o.publish(core.VoiceChannel(id), EventUserLeftVoice, conn, conn)
	return nil
}

// handleVoiceSignal relays an offer, answer or ICE candidate to one peer in
// the same voice channel. The coordinator never interprets it beyond
// validation.
func (o *Orchestrator) handleVoiceSignal(conn domain.ConnID, data json.RawMessage) error {
	var p VoiceSignalPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if !o.Groups.Exists(p.GroupID) {
		return fmt.Errorf("signal in %q: %w", p.GroupID, app.ErrGroupNotFound)
	}
	if p.To == conn || !o.Presence.Shares(p.GroupID, conn, p.To) {
		return ErrNotInVoice
	}
	if err := p.Signal.Validate(); err != nil {
		return err
	}

	f, err := Encode(EventVoiceSignal, VoiceSignalEvent{From: conn, GroupID: p.GroupID, Signal: p.Signal})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if err := o.Hub.SendTo(p.To, f); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("from", string(conn)).Str("to", string(p.To)).Msg("signal not delivered")
		if errors.Is(err, core.ErrBackpressure) {
			o.onDropped(core.VoiceChannel(p.GroupID), []domain.ConnID{p.To})
		}
		return nil
	}
	log.Debug().Str("module", "orch").Str("from", string(conn)).Str("to", string(p.To)).Str("kind", string(p.Kind)).Msg("signal relayed")
	return nil
}
