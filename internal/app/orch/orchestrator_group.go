package orch

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) handleRegister(conn domain.ConnID, data json.RawMessage) error {
	var name string
	if err := decode(data, &name); err != nil {
		return err
	}
	u := o.Identities.Register(conn, name)
	o.reply(conn, EventRegistered, u)
	return nil
}

// handleCreateGroup replaces any group with the same name; the creator is
// its only member afterwards.
func (o *Orchestrator) handleCreateGroup(conn domain.ConnID, data json.RawMessage) error {
	var name string
	if err := decode(data, &name); err != nil {
		return err
	}
	g := o.Groups.Create(name, conn)
	o.reply(conn, EventGroupCreated, g)
	return nil
}

func (o *Orchestrator) handleJoinGroup(conn domain.ConnID, data json.RawMessage) error {
	var id domain.GroupID
	if err := decode(data, &id); err != nil {
		return err
	}
	g, ok := o.Groups.Join(id, conn)
	if !ok {
		return fmt.Errorf("join %q: %w", id, app.ErrGroupNotFound)
	}
	o.reply(conn, EventJoinedGroup, g)
	return nil
}

func (o *Orchestrator) handleSendMessage(conn domain.ConnID, data json.RawMessage) error {
	var p SendMessagePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if !o.Groups.Exists(p.GroupID) {
		return fmt.Errorf("send to %q: %w", p.GroupID, app.ErrGroupNotFound)
	}
	author, ok := o.Identities.Lookup(conn)
	if !ok {
		return ErrMissingIdentity
	}

	msg, err := o.Groups.AppendMessage(p.GroupID, domain.NewMessage(o.now(), author, p.Message))
	if err != nil {
		return fmt.Errorf("send to %q: %w", p.GroupID, err)
	}
	res := o.publish(core.GroupChannel(p.GroupID), EventNewMessage, msg, "")
	log.Debug().Str("module", "orch").Str("conn", string(conn)).Str("group", string(p.GroupID)).Int("sent_to", res.SendTo).Msg("message broadcast")
	return nil
}
