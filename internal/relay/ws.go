package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

type wsFrame struct {
	ID   int64           `json:"id"`
	Feed string          `json:"feed"`
	Data json.RawMessage `json:"data"`
}

// WSHandler streams relay events over a WebSocket, one JSON text frame per
// event. It accepts the same ?feeds= filter as the SSE handler.
func WSHandler(broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feedFilter := parseFeeds(r)
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Debug("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		id, ch := broker.Subscribe(feedFilter)
		defer broker.Unsubscribe(id)
		slog.Debug("websocket client connected", "subscriber", id)

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := wsutil.ReadClientData(conn); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				slog.Debug("websocket client disconnected", "subscriber", id)
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				frame, err := json.Marshal(wsFrame{ID: evt.ID, Feed: evt.Feed, Data: json.RawMessage(evt.Payload)})
				if err != nil {
					slog.Debug("websocket frame encode failed", "error", err)
					continue
				}
				if err := wsutil.WriteServerText(conn, frame); err != nil {
					slog.Debug("websocket write failed", "subscriber", id, "error", err)
					return
				}
			}
		}
	}
}
