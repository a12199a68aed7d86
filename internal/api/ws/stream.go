// Package ws streams relayed events to dashboard clients over
// websocket, fed by the relay's in-process broker.
package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

// Broker is the subscription surface the hub needs from the relay.
type Broker interface {
	Subscribe(ctx context.Context) (<-chan []byte, func())
}

// Hub serves live event streams.
type Hub struct {
	broker Broker
}

// NewHub creates a Hub over the given broker.
func NewHub(broker Broker) *Hub {
	return &Hub{broker: broker}
}

// ServeEvents handles websocket connections for the live event feed.
// Every event appended to the queue is pushed to the client as JSON.
func (h *Hub) ServeEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup := h.broker.Subscribe(ctx)
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, ok := <-messages:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "stream closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
