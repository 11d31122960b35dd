package app

import (
	"testing"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPresenceFixture(ids ...domain.ConnID) (*Hub, *GroupRegistry, *Presence) {
	hub := NewHub()
	for _, id := range ids {
		hub.Attach(id, &fakeConn{}, nil)
	}
	groups := NewGroupRegistry(hub, true)
	return hub, groups, NewPresence(hub, groups)
}

func TestPresenceJoinRequiresGroup(t *testing.T) {
	_, _, p := newPresenceFixture("A")
	assert.ErrorIs(t, p.JoinVoice("missing", "A"), ErrGroupNotFound)
	assert.Empty(t, p.Participants("missing"))
}

func TestPresenceJoinLeaveRoundTrip(t *testing.T) {
	_, groups, p := newPresenceFixture("A", "B")
	groups.Seed("g")
	require.NoError(t, p.JoinVoice("g", "B"))
	before := p.Participants("g")

	require.NoError(t, p.JoinVoice("g", "A"))
	assert.Equal(t, []domain.ConnID{"A", "B"}, p.Participants("g"))
	assert.True(t, p.Shares("g", "A", "B"))

	assert.True(t, p.LeaveVoice("g", "A"))
	assert.Equal(t, before, p.Participants("g"))
	_, ok := p.Session("A")
	assert.False(t, ok)

	assert.False(t, p.LeaveVoice("g", "A"), "leaving twice is a no-op")
}

func TestPresenceDrop(t *testing.T) {
	hub, groups, p := newPresenceFixture("A", "B")
	groups.Seed("g1", "g2")
	require.NoError(t, p.JoinVoice("g1", "A"))
	require.NoError(t, p.JoinVoice("g2", "A"))
	require.NoError(t, p.JoinVoice("g1", "B"))

	groupsOf, ok := p.Session("A")
	require.True(t, ok)
	assert.Equal(t, []domain.GroupID{"g1", "g2"}, groupsOf)

	assert.Equal(t, []domain.GroupID{"g1", "g2"}, p.Drop("A"))
	assert.Empty(t, p.Drop("A"))
	assert.Equal(t, []domain.ConnID{"B"}, p.Participants("g1"))
	assert.Empty(t, p.Participants("g2"))
	for _, ch := range hub.ChannelsOf("A") {
		_, isVoice := ch.VoiceGroup()
		assert.False(t, isVoice)
	}
}

func TestPresenceDropCoversUntrackedSubscriptions(t *testing.T) {
	hub, _, p := newPresenceFixture("A")
	hub.Subscribe(core.VoiceChannel("ghost"), "A")

	assert.Equal(t, []domain.GroupID{"ghost"}, p.Drop("A"))
	assert.Empty(t, hub.ChannelsOf("A"))
}

func TestPolicyFromString(t *testing.T) {
	assert.Equal(t, KickMember, PolicyFromString("kick").OnBackPressure("c", "A"))
	assert.Equal(t, DropFrame, PolicyFromString("drop").OnBackPressure("c", "A"))
	assert.Equal(t, DropFrame, PolicyFromString("").OnBackPressure("c", "A"))
	assert.Equal(t, NoAction, PolicyFromString("none").OnBackPressure("c", "A"))
}
