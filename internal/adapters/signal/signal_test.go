package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	orch   *orch.Orchestrator
	srv    *httptest.Server
	cancel context.CancelFunc
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	o := orch.New(orch.Options{SeedGroups: []string{"test"}, DedupJoins: true, ReportNotFound: true}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ctl := NewSignalWSController(o, Options{PingPeriod: time.Second, PongWait: 2 * time.Second})

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{orch: o, srv: srv, cancel: cancel}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, typ string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(orch.Envelope{Type: typ, Data: raw}))
}

func expect(t *testing.T, ws *websocket.Conn, typ string) orch.Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env orch.Envelope
	require.NoError(t, ws.ReadJSON(&env))
	require.Equal(t, typ, env.Type, string(env.Data))
	return env
}

func TestRegisterOverWebSocket(t *testing.T) {
	s := newTestServer(t)
	ws := s.dial(t)

	send(t, ws, orch.EventRegister, "Alice")
	env := expect(t, ws, orch.EventRegistered)

	var u domain.Identity
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, "Alice", u.Username)
	_, err := uuid.Parse(string(u.ID))
	assert.NoError(t, err)
}

func TestGroupChatOverWebSocket(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.dial(t), s.dial(t)

	send(t, alice, orch.EventRegister, "Alice")
	expect(t, alice, orch.EventRegistered)
	send(t, alice, orch.EventCreateGroup, "book-club")
	expect(t, alice, orch.EventGroupCreated)
	send(t, bob, orch.EventJoinGroup, "book-club")
	expect(t, bob, orch.EventJoinedGroup)

	send(t, alice, orch.EventSendMessage, orch.SendMessagePayload{GroupID: "book-club", Message: "hello"})
	for _, ws := range []*websocket.Conn{alice, bob} {
		env := expect(t, ws, orch.EventNewMessage)
		var m domain.Message
		require.NoError(t, json.Unmarshal(env.Data, &m))
		assert.Equal(t, "hello", m.Text)
		assert.Equal(t, "Alice", m.Username)
	}
}

func TestDisconnectDetaches(t *testing.T) {
	s := newTestServer(t)
	alice, bob := s.dial(t), s.dial(t)

	send(t, alice, orch.EventCreateGroup, "g")
	expect(t, alice, orch.EventGroupCreated)
	send(t, bob, orch.EventJoinGroup, "g")
	expect(t, bob, orch.EventJoinedGroup)
	send(t, bob, orch.EventJoinVoiceChat, "g")
	require.Eventually(t, func() bool { return len(s.orch.Presence.Participants("g")) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bob.Close())

	require.Eventually(t, func() bool {
		g, ok := s.orch.Groups.Get("g")
		return ok && len(g.Members) == 1 && s.orch.Hub.Count() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, s.orch.Presence.Participants("g"))
}

func TestCancelClosesConnection(t *testing.T) {
	s := newTestServer(t)
	ws := s.dial(t)
	send(t, ws, orch.EventPing, nil)
	expect(t, ws, orch.EventPong)

	s.cancel()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	require.Eventually(t, func() bool { return s.orch.Hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestTrySend(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 1)}

	require.NoError(t, c.TrySend(core.Frame("a")))
	assert.ErrorIs(t, c.TrySend(core.Frame("b")), core.ErrBackpressure)

	c.closed = true
	assert.ErrorIs(t, c.TrySend(core.Frame("c")), core.ErrClosed)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{PongWait: 10 * time.Second, PingPeriod: 20 * time.Second}.withDefaults()
	assert.Equal(t, 9*time.Second, o.PingPeriod)
	assert.Equal(t, 64, o.SendBuffer)
	assert.EqualValues(t, 32<<10, o.ReadLimit)
	assert.Equal(t, 5*time.Second, o.WriteWait)
}
