package http

import (
	"log"
	"net/http"

	"studyring-service/internal/app"
	"studyring-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler streams the live leaderboard: clients get the current ranking on
// connect and a fresh one after every ledger write.
type WSHandler struct {
	rankings *app.RankingService
	upgrader websocket.Upgrader
}

func NewWSHandler(rankings *app.RankingService) *WSHandler {
	return &WSHandler{
		rankings: rankings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and pushes ranking updates until the client
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	metric, err := domain.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.rankings.Subscribe(r.Context(), metric)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorBody]{Type: "error", Payload: errorBody{Message: err.Error()}})
		return
	}
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for update := range updates {
			if err := conn.WriteJSON(outboundMessage[domain.Ranking]{Type: "ranking", Payload: update}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The read loop only notices disconnects; this feed is push-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	<-writerDone
}
