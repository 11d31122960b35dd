package domain

import "slices"

// GroupID is client supplied and case sensitive. It doubles as the display name.
type GroupID string

type Group struct {
	ID        GroupID   `json:"id"`
	GroupName string    `json:"groupName"`
	Name      string    `json:"name"`
	Members   []ConnID  `json:"members"`
	Messages  []Message `json:"messages"`
}

// NewGroup builds an empty group. A non-empty creator becomes its only member.
func NewGroup(name string, creator ConnID) *Group {
	g := &Group{
		ID:        GroupID(name),
		GroupName: name,
		Name:      name,
		Members:   []ConnID{},
		Messages:  []Message{},
	}
	if creator != "" {
		g.Members = append(g.Members, creator)
	}
	return g
}

// AddMember appends id. With dedup set, an existing member is left alone and
// false is returned.
func (g *Group) AddMember(id ConnID, dedup bool) bool {
	if dedup && g.HasMember(id) {
		return false
	}
	g.Members = append(g.Members, id)
	return true
}

// RemoveMember drops every occurrence of id and reports whether any was found.
func (g *Group) RemoveMember(id ConnID) bool {
	n := len(g.Members)
	g.Members = slices.DeleteFunc(g.Members, func(m ConnID) bool { return m == id })
	return len(g.Members) != n
}

func (g *Group) HasMember(id ConnID) bool {
	return slices.Contains(g.Members, id)
}

func (g *Group) AppendMessage(m Message) {
	g.Messages = append(g.Messages, m)
}

// Clone returns a deep copy safe to hand out of a lock.
func (g *Group) Clone() Group {
	out := *g
	out.Members = slices.Clone(g.Members)
	out.Messages = slices.Clone(g.Messages)
	if out.Members == nil {
		out.Members = []ConnID{}
	}
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return out
}
