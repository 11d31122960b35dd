package app

import (
	"strings"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a recipient whose send buffer was full.
type Policy interface {
	OnBackPressure(ch core.ChannelName, conn domain.ConnID) BackpressureAction
}

type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(core.ChannelName, domain.ConnID) BackpressureAction {
	return p.Action
}

// PolicyFromString maps the config value ("drop" or "kick") to a policy.
func PolicyFromString(s string) Policy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kick":
		return SimplePolicy{Action: KickMember}
	case "none":
		return SimplePolicy{Action: NoAction}
	default:
		return SimplePolicy{Action: DropFrame}
	}
}
