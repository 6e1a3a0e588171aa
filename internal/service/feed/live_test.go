package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	applogger "StableBench/pkg/logger"

	"github.com/gorilla/websocket"
)

// observationServer upgrades each connection, waits for the subscribe
// frame, pushes one observation, and drops the first connection so the
// client has to reconnect.
func observationServer(t *testing.T) (*httptest.Server, func() int) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	conns := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		conns++
		n := conns
		mu.Unlock()
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
		ms := time.Now().UnixMilli()
		frame := fmt.Sprintf(`{"type":"observation","data":[{"symbol":"USDT","ts_ms":%d,`+
			`"quotes":[{"venue":"nyc","price":1.0002,"volume":500,"ts_ms":%d}],`+
			`"depth_10bps":100,"depth_20bps":200,"depth_50bps":500,"spread_bps":2}]}`, ms, ms)
		if err := c.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		if n == 1 {
			_ = c.Close()
			return
		}
		<-r.Context().Done()
	}))
	return srv, func() int {
		mu.Lock()
		defer mu.Unlock()
		return conns
	}
}

func TestLiveFeedResumesAfterConnectionDrop(t *testing.T) {
	srv, connCount := observationServer(t)
	defer srv.Close()

	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	f := NewLiveFeed(LiveConfig{
		WebsocketURL:   "ws" + strings.TrimPrefix(srv.URL, "http"),
		Symbols:        []string{"USDT"},
		ReconnectDelay: 10 * time.Millisecond,
		PingInterval:   5 * time.Millisecond,
	}, nil, log)
	defer func() { _ = f.Close() }()

	ctx := context.Background()
	if err := f.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := f.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	obsCh, errCh := f.Read(ctx)
	obs := <-obsCh
	if obs == nil || obs.Symbol != "USDT" {
		t.Fatalf("first stream observation = %+v", obs)
	}
	if err := <-errCh; err == nil {
		t.Fatalf("expected a read error after the server dropped the connection")
	}
	for range obsCh {
		// drain until the stream closes
	}

	if err := f.Reconnect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !f.IsConnected() {
		t.Fatalf("feed not connected after reconnect")
	}
	if got := connCount(); got != 2 {
		t.Fatalf("server connections = %d, want 2", got)
	}

	obsCh2, _ := f.Read(ctx)
	select {
	case obs2 := <-obsCh2:
		if obs2 == nil || obs2.Symbol != "USDT" {
			t.Fatalf("resumed stream observation = %+v", obs2)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no observation arrived on the resumed stream")
	}
}
