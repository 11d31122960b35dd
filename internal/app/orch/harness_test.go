package orch

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	frames   []core.Frame
	full     bool
	canceled int
}

func (r *recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return core.ErrBackpressure
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canceled++
}

func (r *recorder) events(t *testing.T) []Envelope {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Envelope, 0, len(r.frames))
	for _, f := range r.frames {
		var env Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env)
	}
	return out
}

func (r *recorder) ofType(t *testing.T, typ string) []Envelope {
	t.Helper()
	var out []Envelope
	for _, env := range r.events(t) {
		if env.Type == typ {
			out = append(out, env)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}

type harness struct {
	o     *Orchestrator
	conns map[domain.ConnID]*recorder
}

func defaultOptions() Options {
	return Options{SeedGroups: []string{"test"}, DedupJoins: true, ReportNotFound: true}
}

func newHarness(t *testing.T, opts Options, ids ...domain.ConnID) *harness {
	t.Helper()
	h := &harness{o: New(opts, nil), conns: make(map[domain.ConnID]*recorder)}
	for _, id := range ids {
		h.attach(id)
	}
	return h
}

func (h *harness) attach(id domain.ConnID) *recorder {
	r := &recorder{}
	h.conns[id] = r
	h.o.Attach(id, r, r.cancel)
	return r
}

func (h *harness) send(t *testing.T, conn domain.ConnID, typ string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(Envelope{Type: typ, Data: raw})
	require.NoError(t, err)
	h.o.Dispatch(conn, frame)
}

func (h *harness) resetAll() {
	for _, r := range h.conns {
		r.reset()
	}
}

func decodeData[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
