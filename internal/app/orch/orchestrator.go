package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// SeedGroups exist, empty, before any client connects.
	SeedGroups []string
	// DedupJoins gives joinGroup set semantics.
	DedupJoins bool
	// ReportNotFound answers requests for unknown groups with an error event
	// instead of dropping them silently.
	ReportNotFound bool
	// AnnounceDisconnect sends userLeftVoice to the voice channels a
	// disconnecting connection was still in.
	AnnounceDisconnect bool
}

// Orchestrator is the connection and room coordinator. Every instance owns
// its own registries; nothing is shared between instances.
type Orchestrator struct {
	Identities *app.IdentityRegistry
	Groups     *app.GroupRegistry
	Presence   *app.Presence
	Hub        *app.Hub
	Policy     app.Policy
	Options    Options

	// Now stamps message ids.
	Now func() time.Time
}

func New(opts Options, policy app.Policy) *Orchestrator {
	hub := app.NewHub()
	groups := app.NewGroupRegistry(hub, opts.DedupJoins)
	groups.Seed(opts.SeedGroups...)
	if policy == nil {
		policy = app.SimplePolicy{Action: app.DropFrame}
	}
	return &Orchestrator{
		Identities: app.NewIdentityRegistry(),
		Groups:     groups,
		Presence:   app.NewPresence(hub, groups),
		Hub:        hub,
		Policy:     policy,
		Options:    opts,
		Now:        time.Now,
	}
}

// Attach makes a freshly connected endpoint addressable. cancel tears the
// connection down when the backpressure policy kicks it.
func (o *Orchestrator) Attach(conn domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Hub.Attach(conn, sig, cancel)
	log.Info().Str("module", "orch").Str("conn", string(conn)).Msg("connection attached")
}

// Detach cleans up everything a connection left behind. It is safe for
// connections that never registered and safe to call twice.
func (o *Orchestrator) Detach(conn domain.ConnID) {
	voice := o.Presence.Drop(conn)
	o.Identities.Remove(conn)
	groups := o.Groups.RemoveMember(conn)
	o.Hub.Detach(conn)

	if o.Options.AnnounceDisconnect {
		for _, id := range voice {
			o.publish(core.VoiceChannel(id), EventUserLeftVoice, conn, "")
		}
	}
	log.Info().
		Str("module", "orch").
		Str("conn", string(conn)).
		Int("groups", len(groups)).
		Int("voice", len(voice)).
		Msg("connection detached")
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// reply sends one event to one connection.
func (o *Orchestrator) reply(conn domain.ConnID, typ string, data any) {
	f, err := Encode(typ, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", typ).Msg("encode reply")
		return
	}
	if err := o.Hub.SendTo(conn, f); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(conn)).Str("type", typ).Msg("reply not delivered")
		if errors.Is(err, core.ErrBackpressure) {
			o.onDropped("", []domain.ConnID{conn})
		}
	}
}

// publish fans an event out to a channel. A failed recipient never stops
// delivery to the others.
func (o *Orchestrator) publish(ch core.ChannelName, typ string, data any, except domain.ConnID) core.PublishResult {
	f, err := Encode(typ, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", typ).Msg("encode broadcast")
		return core.PublishResult{}
	}
	res := o.Hub.Publish(ch, f, except)
	o.onDropped(ch, res.Dropped)
	return res
}

func (o *Orchestrator) onDropped(ch core.ChannelName, dropped []domain.ConnID) {
	if o.Policy == nil {
		return
	}
	for _, slow := range dropped {
		switch o.Policy.OnBackPressure(ch, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("conn", string(slow)).Str("channel", string(ch)).Msg("kicking slow connection")
			o.Hub.Cancel(slow)
		case app.DropFrame:
			log.Warn().Str("module", "orch").Str("conn", string(slow)).Str("channel", string(ch)).Msg("frame dropped")
		case app.NoAction:
		}
	}
}
