package app

import (
	"slices"
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// VoiceSession records which voice channels one connection is in. It lives
// from the first joinVoice until the connection leaves its last channel or
// disconnects.
type VoiceSession struct {
	Conn     domain.ConnID
	Since    time.Time
	groupIDs map[domain.GroupID]struct{}
}

func (s *VoiceSession) Groups() []domain.GroupID {
	out := make([]domain.GroupID, 0, len(s.groupIDs))
	for id := range s.groupIDs {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Presence tracks voice membership as subscriptions to per-group voice
// channels, independent of general group membership.
type Presence struct {
	hub    *Hub
	groups *GroupRegistry

	mu       sync.Mutex
	sessions map[domain.ConnID]*VoiceSession
}

func NewPresence(hub *Hub, groups *GroupRegistry) *Presence {
	return &Presence{
		hub:      hub,
		groups:   groups,
		sessions: make(map[domain.ConnID]*VoiceSession),
	}
}

// JoinVoice subscribes conn to the group's voice channel.
func (p *Presence) JoinVoice(id domain.GroupID, conn domain.ConnID) error {
	if !p.groups.Exists(id) {
		return ErrGroupNotFound
	}
	if !p.hub.Subscribe(core.VoiceChannel(id), conn) {
		return ErrNotAttached
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[conn]
	if !ok {
		s = &VoiceSession{Conn: conn, Since: time.Now(), groupIDs: make(map[domain.GroupID]struct{})}
		p.sessions[conn] = s
	}
	s.groupIDs[id] = struct{}{}
	log.Info().Str("module", "app.presence").Str("group", string(id)).Str("conn", string(conn)).Msg("joined voice")
	return nil
}

// LeaveVoice unsubscribes conn. Leaving a channel it is not in is a no-op;
// the result reports whether it was subscribed.
func (p *Presence) LeaveVoice(id domain.GroupID, conn domain.ConnID) bool {
	was := p.hub.Unsubscribe(core.VoiceChannel(id), conn)

	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sessions[conn]; ok {
		delete(s.groupIDs, id)
		if len(s.groupIDs) == 0 {
			delete(p.sessions, conn)
		}
	}
	if was {
		log.Info().Str("module", "app.presence").Str("group", string(id)).Str("conn", string(conn)).Msg("left voice")
	}
	return was
}

func (p *Presence) Participants(id domain.GroupID) []domain.ConnID {
	return p.hub.Subscribers(core.VoiceChannel(id))
}

// Shares reports whether a and b are both in the group's voice channel.
func (p *Presence) Shares(id domain.GroupID, a, b domain.ConnID) bool {
	ch := core.VoiceChannel(id)
	return p.hub.IsSubscribed(ch, a) && p.hub.IsSubscribed(ch, b)
}

// Session returns the groups conn is in voice for.
func (p *Presence) Session(conn domain.ConnID) ([]domain.GroupID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[conn]
	if !ok {
		return nil, false
	}
	return s.Groups(), true
}

// Drop tears down conn's voice session and unsubscribes it from every voice
// channel. It returns the groups it left and is safe to call repeatedly.
func (p *Presence) Drop(conn domain.ConnID) []domain.GroupID {
	p.mu.Lock()
	s, ok := p.sessions[conn]
	delete(p.sessions, conn)
	p.mu.Unlock()

	left := make(map[domain.GroupID]struct{})
	if ok {
		for id := range s.groupIDs {
			left[id] = struct{}{}
		}
	}
	for _, ch := range p.hub.ChannelsOf(conn) {
		if id, isVoice := ch.VoiceGroup(); isVoice {
			left[id] = struct{}{}
		}
	}

	out := make([]domain.GroupID, 0, len(left))
	for id := range left {
		if p.hub.Unsubscribe(core.VoiceChannel(id), conn) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	if len(out) > 0 {
		log.Info().Str("module", "app.presence").Str("conn", string(conn)).Int("channels", len(out)).Msg("dropped voice session")
	}
	return out
}
