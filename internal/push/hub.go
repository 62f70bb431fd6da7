package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	// clientBuffer is the per-client send queue. A client that cannot keep
	// up loses messages instead of stalling the broadcast path.
	clientBuffer = 16

	writeTimeout = 5 * time.Second
)

type streamClient struct {
	send chan []byte
}

// Hub fans applied push updates out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
	log     zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[*streamClient]struct{}),
		log:     log,
	}
}

// ClientCount reports the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues an envelope for every connected client. Slow clients
// with a full queue skip the message.
func (h *Hub) Broadcast(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.log.Error().Err(err).Str("data_type", env.DataType).Msg("marshaling stream envelope")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.log.Debug().Str("data_type", env.DataType).Msg("dropping message for slow stream client")
		}
	}
}

func (h *Hub) register(client *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) unregister(client *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// ServeHTTP upgrades the request to a websocket and streams broadcast
// envelopes until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	client := &streamClient{send: make(chan []byte, clientBuffer)}
	h.register(client)
	defer h.unregister(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Consume incoming frames so control messages are handled and a client
	// close ends the stream promptly.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case payload := <-client.send:
			writeCtx, writeCancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, payload)
			writeCancel()
			if err != nil {
				return
			}
		}
	}
}
