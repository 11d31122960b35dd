package core

import (
	"strings"

	"github.com/dkeye/Huddle/internal/domain"
)

// ChannelName names a broadcast channel ("room") connections subscribe to.
type ChannelName string

const (
	groupPrefix = "group:"
	voicePrefix = "voice:"
)

// GroupChannel carries a group's general traffic (newMessage).
func GroupChannel(id domain.GroupID) ChannelName {
	return ChannelName(groupPrefix + string(id))
}

// VoiceChannel carries a group's voice presence traffic.
func VoiceChannel(id domain.GroupID) ChannelName {
	return ChannelName(voicePrefix + string(id))
}

// VoiceGroup reports the group behind a voice channel name.
func (c ChannelName) VoiceGroup() (domain.GroupID, bool) {
	id, ok := strings.CutPrefix(string(c), voicePrefix)
	return domain.GroupID(id), ok
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []domain.ConnID
}
