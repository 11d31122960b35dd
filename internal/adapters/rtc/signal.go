package rtc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pion/ice/v4"
	"github.com/pion/webrtc/v4"
)

var ErrInvalidSignal = errors.New("invalid signal")

// SignalKind is the negotiation step a relayed peer signal carries.
type SignalKind string

const (
	KindOffer     SignalKind = "offer"
	KindAnswer    SignalKind = "answer"
	KindCandidate SignalKind = "candidate"
)

// Signal is an opaque peer-to-peer negotiation message relayed between two
// members of the same voice channel.
type Signal struct {
	Kind          SignalKind `json:"kind"`
	SDP           string     `json:"sdp,omitempty"`
	Candidate     string     `json:"candidate,omitempty"`
	SDPMid        *string    `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16    `json:"sdpMLineIndex,omitempty"`
}

// Validate parses offers and answers with pion's SDP parser and candidates
// with pion's ICE candidate parser.
func (s Signal) Validate() error {
	switch s.Kind {
	case KindOffer, KindAnswer:
		desc := webrtc.SessionDescription{Type: webrtc.NewSDPType(string(s.Kind)), SDP: s.SDP}
		if _, err := desc.Unmarshal(); err != nil {
			return fmt.Errorf("%w: %s sdp: %v", ErrInvalidSignal, s.Kind, err)
		}
		return nil
	case KindCandidate:
		// an empty candidate marks end-of-candidates
		if s.Candidate == "" {
			return nil
		}
		raw, ok := strings.CutPrefix(strings.TrimPrefix(s.Candidate, "a="), "candidate:")
		if !ok {
			return fmt.Errorf("%w: malformed candidate", ErrInvalidSignal)
		}
		if _, err := ice.UnmarshalCandidate(raw); err != nil {
			return fmt.Errorf("%w: candidate: %v", ErrInvalidSignal, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSignal, s.Kind)
	}
}
