package signal

import (
	"context"
	"net/http"
	"sync"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ClientTokenKey is the gin context key holding the browser's session token.
const ClientTokenKey = "client_token"

// Coordinator is what the transport drives for every connection.
type Coordinator interface {
	Attach(conn domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc)
	Dispatch(conn domain.ConnID, raw []byte)
	Detach(conn domain.ConnID)
}

type SignalWSController struct {
	coord Coordinator
	opts  Options
}

func NewSignalWSController(coord Coordinator, opts Options) *SignalWSController {
	return &SignalWSController{coord: coord, opts: opts.withDefaults()}
}

// WsSignalConn is the outbound side of one websocket. Frames are queued on a
// bounded channel drained by the write pump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

var _ core.SignalConnection = (*WsSignalConn)(nil)

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until the peer
// goes away or ctx is canceled. It returns as soon as the pumps are started.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString(ClientTokenKey)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("token", token).Msg("ws upgrade")
		return
	}

	id := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("token", token).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	ctl.coord.Attach(id, conn, cancel)

	go ctl.writePump(ctx, cancel, id, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
