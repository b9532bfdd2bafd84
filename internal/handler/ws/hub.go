package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
	applogger "LottoStats/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Envelope is the frame pushed to live subscribers.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type broadcastMsg struct {
	lottery models.LotteryType
	data    []byte
}

// Hub fans freshly ingested draws out to connected WebSocket clients.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan broadcastMsg
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.RWMutex
	l          *applogger.Logger
}

func NewHub(l *applogger.Logger) *Hub {
	if l == nil {
		l = applogger.NewNop()
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan broadcastMsg, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		l:          l,
	}
}

// Run is the hub event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.l.Info("ws client connected", applogger.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.l.Info("ws client disconnected", applogger.Int("clients", n))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !c.wants(msg.lottery) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					h.l.Warn("ws dropping draw for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NotifyDraw queues r for every client subscribed to its lottery.
func (h *Hub) NotifyDraw(_ context.Context, r models.LotteryResult) {
	b, err := json.Marshal(Envelope{Type: "draw", Data: r})
	if err != nil {
		h.l.Error("ws marshal draw", applogger.Error(err))
		return
	}
	select {
	case h.broadcast <- broadcastMsg{lottery: r.LotteryType, data: b}:
	default:
		h.l.Warn("ws broadcast queue full, draw dropped", applogger.String("id", r.ID))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handle upgrades GET /ws/draws?type= and registers the client.
// Without a type the client receives draws of every lottery.
func (h *Hub) Handle(c echo.Context) error {
	var filter models.LotteryType
	if q := c.QueryParam("type"); q != "" {
		t, err := models.ParseLotteryType(q)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		filter = t
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Error("ws upgrade failed", applogger.Error(err))
		return nil
	}
	cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize), lottery: filter}
	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go cl.writePump()
	go cl.readPump()
	return nil
}

var _ domrepo.DrawNotifier = (*Hub)(nil)
