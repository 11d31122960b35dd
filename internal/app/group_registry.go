package app

import (
	"cmp"
	"errors"
	"slices"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrGroupNotFound = errors.New("group not found")

// ChannelSubscriber is the part of the hub the group registry keeps in sync
// with membership.
type ChannelSubscriber interface {
	Subscribe(ch core.ChannelName, id domain.ConnID) bool
	Replace(ch core.ChannelName, ids ...domain.ConnID)
}

// groupEntry serialises every mutation of one group.
type groupEntry struct {
	mu    sync.Mutex
	group *domain.Group
}

// GroupInfo is a read-only summary for listings.
type GroupInfo struct {
	ID           domain.GroupID `json:"id"`
	Name         string         `json:"name"`
	MemberCount  int            `json:"memberCount"`
	MessageCount int            `json:"messageCount"`
}

// GroupRegistry maps group ids to membership and message log. Membership is
// mirrored into each group's general channel so fan-out reaches exactly the
// current members.
type GroupRegistry struct {
	mu       sync.RWMutex
	groups   map[domain.GroupID]*groupEntry
	channels ChannelSubscriber
	dedup    bool
}

// NewGroupRegistry returns an empty registry. channels may be nil.
// dedup selects set semantics for repeated joins.
func NewGroupRegistry(channels ChannelSubscriber, dedup bool) *GroupRegistry {
	return &GroupRegistry{
		groups:   make(map[domain.GroupID]*groupEntry),
		channels: channels,
		dedup:    dedup,
	}
}

// Seed installs empty groups that exist before any client connects.
func (r *GroupRegistry) Seed(names ...string) {
	for _, name := range names {
		r.Create(name, "")
	}
}

// Create replaces any group with the same id. The creator is the sole member.
func (r *GroupRegistry) Create(name string, creator domain.ConnID) domain.Group {
	g := domain.NewGroup(name, creator)

	r.mu.Lock()
	e, ok := r.groups[g.ID]
	if !ok {
		e = &groupEntry{group: g}
		r.groups[g.ID] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.group = g
	if r.channels != nil {
		r.channels.Replace(core.GroupChannel(g.ID), g.Members...)
	}
	log.Info().Str("module", "app.groups").Str("group", string(g.ID)).Str("creator", string(creator)).Bool("replaced", ok).Msg("group created")
	return g.Clone()
}

func (r *GroupRegistry) Get(id domain.GroupID) (domain.Group, bool) {
	e, ok := r.entry(id)
	if !ok {
		return domain.Group{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.group.Clone(), true
}

func (r *GroupRegistry) Exists(id domain.GroupID) bool {
	_, ok := r.entry(id)
	return ok
}

// Join adds conn to the group. It returns false, and changes nothing, when
// the group does not exist.
func (r *GroupRegistry) Join(id domain.GroupID, conn domain.ConnID) (domain.Group, bool) {
	e, ok := r.entry(id)
	if !ok {
		return domain.Group{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	added := e.group.AddMember(conn, r.dedup)
	if r.channels != nil {
		r.channels.Subscribe(core.GroupChannel(id), conn)
	}
	log.Info().Str("module", "app.groups").Str("group", string(id)).Str("conn", string(conn)).Bool("added", added).Msg("joined group")
	return e.group.Clone(), true
}

// AppendMessage appends m to the group's log.
func (r *GroupRegistry) AppendMessage(id domain.GroupID, m domain.Message) (domain.Message, error) {
	e, ok := r.entry(id)
	if !ok {
		return domain.Message{}, ErrGroupNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.group.AppendMessage(m)
	return m, nil
}

// RemoveMember filters conn out of every group and returns the ids of the
// groups it was removed from.
func (r *GroupRegistry) RemoveMember(conn domain.ConnID) []domain.GroupID {
	r.mu.RLock()
	entries := make([]*groupEntry, 0, len(r.groups))
	for _, e := range r.groups {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	var touched []domain.GroupID
	for _, e := range entries {
		e.mu.Lock()
		if e.group.RemoveMember(conn) {
			touched = append(touched, e.group.ID)
		}
		e.mu.Unlock()
	}
	slices.Sort(touched)
	if len(touched) > 0 {
		log.Info().Str("module", "app.groups").Str("conn", string(conn)).Int("groups", len(touched)).Msg("removed member")
	}
	return touched
}

// List returns a summary of every group sorted by id.
func (r *GroupRegistry) List() []GroupInfo {
	r.mu.RLock()
	entries := make([]*groupEntry, 0, len(r.groups))
	for _, e := range r.groups {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]GroupInfo, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, GroupInfo{
			ID:           e.group.ID,
			Name:         e.group.Name,
			MemberCount:  len(e.group.Members),
			MessageCount: len(e.group.Messages),
		})
		e.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b GroupInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *GroupRegistry) entry(id domain.GroupID) (*groupEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.groups[id]
	return e, ok
}
