package push_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/push"
)

// TestHub_Broadcast tests end-to-end delivery to a stream client.
func TestHub_Broadcast(t *testing.T) {
	hub := push.NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(push.Envelope{
		DataType: push.DataAccounts,
		EntryID:  "entry-1",
		Data:     json.RawMessage(`[{"uuid":"a-1"}]`),
	})

	_, payload, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var env push.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if env.DataType != push.DataAccounts || env.EntryID != "entry-1" {
		t.Errorf("envelope = %+v", env)
	}
}
