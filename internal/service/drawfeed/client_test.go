package drawfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"LottoStats/internal/domain/models"
)

func feedServer(t *testing.T, subscribed chan<- string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscribeMsg
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribed <- sub.Lottery

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteJSON(map[string]interface{}{
			"type": "draw",
			"data": map[string]interface{}{
				"id": "01121", "date": "2024-06-06T00:00:00Z",
				"result": []int{3, 9, 17, 28, 40, 51}, "powerNumber": 12, "lotteryType": "power655",
			},
		})
		time.Sleep(200 * time.Millisecond)
	}))
}

func TestClient_ReceivesDraws(t *testing.T) {
	subscribed := make(chan string, 1)
	srv := feedServer(t, subscribed)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New("secret", wsURL, []models.LotteryType{models.Power655}, 50*time.Millisecond, time.Second, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	if !c.IsConnected() {
		t.Fatal("expected connected")
	}
	if err := c.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if got := <-subscribed; got != "power655" {
		t.Fatalf("subscribed to %q", got)
	}

	draws, _ := c.Read(ctx)
	select {
	case r := <-draws:
		if r == nil || r.ID != "01121" || r.LotteryType != models.Power655 {
			t.Fatalf("unexpected draw %+v", r)
		}
		if r.PowerNumber == nil || *r.PowerNumber != 12 {
			t.Fatalf("power number not decoded: %+v", r.PowerNumber)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for draw")
	}
}

func TestClient_RejectsBadToken(t *testing.T) {
	srv := feedServer(t, make(chan string, 1))
	defer srv.Close()

	c := New("wrong", "ws"+strings.TrimPrefix(srv.URL, "http"), nil, 0, 0, nil)
	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	if c.IsConnected() {
		t.Fatal("should not be connected")
	}
	if err := c.Subscribe(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestClient_SubscribeBeforeConnect(t *testing.T) {
	for _, lotteries := range [][]models.LotteryType{nil, {models.Mega645, models.Power655}} {
		c := New("k", "ws://127.0.0.1:1/ws", lotteries, 0, 0, nil)
		if err := c.Subscribe(context.Background()); !errors.Is(err, ErrNotConnected) {
			t.Fatalf("lotteries=%v: expected ErrNotConnected, got %v", lotteries, err)
		}
	}
}
