package signal

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/chirp-im/chirp/internal/config"
	"github.com/chirp-im/chirp/internal/core"
	"github.com/chirp-im/chirp/internal/lifecycle"
	"github.com/chirp-im/chirp/internal/router"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Controller upgrades WebSocket connections into sessions and dispatches
// their inbound events to the router.
type Controller struct {
	Router  *router.Router
	Life    *lifecycle.Manager
	Cfg     *config.Config
	Limiter *EventRateLimiter

	upgrader websocket.Upgrader
}

func NewController(r *router.Router, life *lifecycle.Manager, cfg *config.Config) *Controller {
	return &Controller{
		Router:  r,
		Life:    life,
		Cfg:     cfg,
		Limiter: NewEventRateLimiter(cfg.EventLimit, cfg.EventWindow),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(req *http.Request) bool {
				if cfg.AllowedOrigin == "" {
					return true
				}
				return req.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}
}

// wsConn implements core.SignalConnection over one gorilla connection.
// TrySend never blocks: a full queue or a closed connection is an error the
// caller logs and absorbs.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and starts the session's pumps. The
// session registers in the presence registry only once the client
// identifies itself.
func (ctl *Controller) HandleSignal(c *gin.Context) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	sess := &session{ctl: ctl, conn: conn}
	log.Info().Str("module", "signal").Str("remote", ws.RemoteAddr().String()).Msg("new WS connection")

	go sess.writePump()
	go sess.readPump()
}
