package orch

import (
	"encoding/json"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
)

// Inbound events.
const (
	EventRegister       = "register"
	EventCreateGroup    = "createGroup"
	EventJoinGroup      = "joinGroup"
	EventSendMessage    = "sendMessage"
	EventJoinVoiceChat  = "joinVoiceChat"
	EventLeaveVoiceChat = "leaveVoiceChat"
	EventVoiceSignal    = "voiceSignal"
	EventPing           = "ping"
)

// Outbound events.
const (
	EventRegistered      = "registered"
	EventGroupCreated    = "groupCreated"
	EventJoinedGroup     = "joinedGroup"
	EventNewMessage      = "newMessage"
	EventUserJoinedVoice = "userJoinedVoice"
	EventUserLeftVoice   = "userLeftVoice"
	EventPong            = "pong"
	EventError           = "error"
)

// Envelope is the wire form of every event in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type SendMessagePayload struct {
	GroupID domain.GroupID `json:"groupId"`
	Message string         `json:"message"`
}

type VoiceSignalPayload struct {
	GroupID domain.GroupID `json:"groupId"`
	To      domain.ConnID  `json:"to"`
	rtc.Signal
}

type VoiceSignalEvent struct {
	From    domain.ConnID  `json:"from"`
	GroupID domain.GroupID `json:"groupId"`
	rtc.Signal
}

type ErrorPayload struct {
	Event string `json:"event,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func Encode(typ string, data any) (core.Frame, error) {
	return json.Marshal(outbound{Type: typ, Data: data})
}
