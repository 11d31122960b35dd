package app

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrNotAttached = errors.New("connection not attached")

type connEntry struct {
	signal   core.SignalConnection
	cancel   context.CancelFunc
	channels map[core.ChannelName]struct{}
}

// Hub is the named-channel publish/subscribe primitive. It owns the mapping
// from connection id to outbound endpoint but never closes adapter-owned
// resources.
type Hub struct {
	mu       sync.RWMutex
	conns    map[domain.ConnID]*connEntry
	channels map[core.ChannelName]map[domain.ConnID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns:    make(map[domain.ConnID]*connEntry),
		channels: make(map[core.ChannelName]map[domain.ConnID]struct{}),
	}
}

// Attach binds an outbound endpoint to id. Re-attaching keeps subscriptions.
func (h *Hub) Attach(id domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.conns[id]; ok {
		e.signal = sig
		e.cancel = cancel
		return
	}
	h.conns[id] = &connEntry{
		signal:   sig,
		cancel:   cancel,
		channels: make(map[core.ChannelName]struct{}),
	}
	log.Debug().Str("module", "app.hub").Str("conn", string(id)).Msg("attached")
}

// Detach unsubscribes id from every channel and forgets it. It returns the
// channels the connection was in and is a no-op for unknown ids.
func (h *Hub) Detach(id domain.ConnID) []core.ChannelName {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.conns[id]
	if !ok {
		return nil
	}
	left := make([]core.ChannelName, 0, len(e.channels))
	for ch := range e.channels {
		h.leaveLocked(ch, id)
		left = append(left, ch)
	}
	delete(h.conns, id)
	slices.Sort(left)
	log.Debug().Str("module", "app.hub").Str("conn", string(id)).Int("channels", len(left)).Msg("detached")
	return left
}

func (h *Hub) Attached(id domain.ConnID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[id]
	return ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Subscribe adds id to ch. It returns false when id is not attached.
func (h *Hub) Subscribe(ch core.ChannelName, id domain.ConnID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.joinLocked(ch, id)
}

// Unsubscribe removes id from ch and reports whether it was subscribed.
func (h *Hub) Unsubscribe(ch core.ChannelName, id domain.ConnID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[ch][id]; !ok {
		return false
	}
	h.leaveLocked(ch, id)
	return true
}

// Replace resets the subscribers of ch to the attached ids among ids.
func (h *Hub) Replace(ch core.ChannelName, ids ...domain.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.channels[ch] {
		h.leaveLocked(ch, id)
	}
	for _, id := range ids {
		h.joinLocked(ch, id)
	}
}

func (h *Hub) IsSubscribed(ch core.ChannelName, id domain.ConnID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.channels[ch][id]
	return ok
}

// Subscribers returns the sorted subscriber ids of ch.
func (h *Hub) Subscribers(ch core.ChannelName) []domain.ConnID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]domain.ConnID, 0, len(h.channels[ch]))
	for id := range h.channels[ch] {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// ChannelsOf returns the sorted channels id is subscribed to.
func (h *Hub) ChannelsOf(id domain.ConnID) []core.ChannelName {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.conns[id]
	if !ok {
		return nil
	}
	out := make([]core.ChannelName, 0, len(e.channels))
	for ch := range e.channels {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}

// SendTo delivers f to a single connection.
func (h *Hub) SendTo(id domain.ConnID, f core.Frame) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.conns[id]
	if !ok {
		return ErrNotAttached
	}
	return e.signal.TrySend(f)
}

// Publish delivers f to every subscriber of ch except except (pass "" to
// include everyone). A failed recipient is reported and skipped.
func (h *Hub) Publish(ch core.ChannelName, f core.Frame, except domain.ConnID) core.PublishResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := core.PublishResult{}
	for id := range h.channels[ch] {
		if id == except {
			continue
		}
		if err := h.conns[id].signal.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.hub").Str("channel", string(ch)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	return res
}

// Cancel stops the connection's context so its adapter tears it down.
func (h *Hub) Cancel(id domain.ConnID) bool {
	h.mu.RLock()
	e, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	if e.cancel != nil {
		e.cancel()
	}
	log.Info().Str("module", "app.hub").Str("conn", string(id)).Msg("canceled connection")
	return true
}

func (h *Hub) joinLocked(ch core.ChannelName, id domain.ConnID) bool {
	e, ok := h.conns[id]
	if !ok {
		return false
	}
	subs, ok := h.channels[ch]
	if !ok {
		subs = make(map[domain.ConnID]struct{})
		h.channels[ch] = subs
	}
	subs[id] = struct{}{}
	e.channels[ch] = struct{}{}
	return true
}

func (h *Hub) leaveLocked(ch core.ChannelName, id domain.ConnID) {
	if subs, ok := h.channels[ch]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.channels, ch)
		}
	}
	if e, ok := h.conns[id]; ok {
		delete(e.channels, ch)
	}
}
