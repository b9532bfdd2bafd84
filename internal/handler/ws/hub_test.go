package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"LottoStats/internal/domain/models"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil)
	go func() { _ = h.Run(ctx) }()

	e := echo.New()
	e.GET("/ws/draws", h.Handle)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/draws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Clients(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastsFilteredDraws(t *testing.T) {
	h, url := startHub(t)
	mega := dial(t, url+"?type=mega645")
	all := dial(t, url)
	waitClients(t, h, 2)

	h.NotifyDraw(context.Background(), models.LotteryResult{ID: "p1", LotteryType: models.Power655, Result: []int{1, 2, 3, 4, 5, 6}})
	h.NotifyDraw(context.Background(), models.LotteryResult{ID: "m1", LotteryType: models.Mega645, Result: []int{1, 2, 3, 4, 5, 6}})

	read := func(conn *websocket.Conn) string {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var env struct {
			Type string               `json:"type"`
			Data models.LotteryResult `json:"data"`
		}
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if err := json.Unmarshal(b, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Type != "draw" {
			t.Fatalf("type = %q", env.Type)
		}
		return env.Data.ID
	}

	if id := read(mega); id != "m1" {
		t.Fatalf("mega subscriber got %q, want m1", id)
	}
	if id := read(all); id != "p1" {
		t.Fatalf("first draw for unfiltered subscriber = %q", id)
	}
	if id := read(all); id != "m1" {
		t.Fatalf("second draw for unfiltered subscriber = %q", id)
	}
}

func TestHub_UnknownLotteryRejected(t *testing.T) {
	_, url := startHub(t)
	if _, _, err := websocket.DefaultDialer.Dial(url+"?type=keno", nil); err == nil {
		t.Fatal("expected handshake failure for unknown lottery")
	}
}

func TestHub_UnregistersOnClose(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)
	waitClients(t, h, 1)
	_ = conn.Close()
	waitClients(t, h, 0)
}
