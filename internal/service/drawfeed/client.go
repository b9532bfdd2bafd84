package drawfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LottoStats/internal/domain/models"
	drepo "LottoStats/internal/domain/repository"
	applogger "LottoStats/pkg/logger"
)

var ErrNotConnected = errors.New("draw feed not connected")

// Client implements DrawStream over the upstream draw WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	lotteries      []models.LotteryType
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *applogger.Logger

	mu        sync.RWMutex
	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// New creates a draw feed client for the given lotteries.
func New(apiKey, websocketURL string, lotteries []models.LotteryType, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) *Client {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		lotteries:      lotteries,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.websocketURL
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("draw feed connect: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()
	c.l.Info("draw feed connected", applogger.String("url", c.websocketURL))
	return nil
}

type subscribeMsg struct {
	Type    string `json:"type"`
	Lottery string `json:"lottery"`
}

// Subscribe subscribes to the configured lotteries. It fails with
// ErrNotConnected before Connect, even when no lotteries are configured.
func (c *Client) Subscribe(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	for _, t := range c.lotteries {
		if err := c.writeJSON(subscribeMsg{Type: "subscribe", Lottery: string(t)}); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
		c.l.Info("draw feed subscribed", applogger.String("lottery", string(t)))
	}
	return nil
}

func (c *Client) writeJSON(v interface{}) error {
	c.mu.RLock()
	conn, ok := c.conn, c.connected
	c.mu.RUnlock()
	if conn == nil || !ok {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(v)
}

type feedMessage struct {
	Type string               `json:"type"`
	Data models.LotteryResult `json:"data"`
}

// Read streams draws and errors until ctx is done. After a read error the loop
// waits for Reconnect and resumes on the new connection.
func (c *Client) Read(ctx context.Context) (<-chan *models.LotteryResult, <-chan error) {
	out := make(chan *models.LotteryResult, 64)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.RLock()
				conn := c.conn
				c.mu.RUnlock()
				if conn != nil {
					c.writeMu.Lock()
					_ = conn.WriteMessage(websocket.PingMessage, nil)
					c.writeMu.Unlock()
				}
			}
		}
	}()

	go func() {
		defer close(out)
		defer close(errs)
		var failed *websocket.Conn
		for {
			if ctx.Err() != nil {
				return
			}
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()
			if conn == nil || conn == failed {
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.reconnectDelay / 5):
				}
				continue
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				failed = conn
				if ctx.Err() != nil {
					return
				}
				select {
				case errs <- fmt.Errorf("draw feed read: %w", err):
				default:
				}
				continue
			}
			var m feedMessage
			if err := json.Unmarshal(b, &m); err != nil || m.Type != "draw" {
				continue
			}
			r := m.Data
			select {
			case out <- &r:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errs
}

// Reconnect closes and reconnects after the configured delay.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

var _ drepo.DrawStream = (*Client)(nil)
