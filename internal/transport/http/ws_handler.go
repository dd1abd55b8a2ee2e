package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"nihongo-quiz-service/internal/app"
	"nihongo-quiz-service/internal/domain"
	"nihongo-quiz-service/internal/logging"
)

const writeWait = 10 * time.Second

// LeaderboardFeed streams the first page of the global leaderboard over a websocket:
// one snapshot on connect, then one after every recorded submission.
type LeaderboardFeed struct {
	rankings *app.RankingService
	hub      *app.LeaderboardHub
	upgrader websocket.Upgrader
}

func NewLeaderboardFeed(rankings *app.RankingService, hub *app.LeaderboardHub) *LeaderboardFeed {
	return &LeaderboardFeed{
		rankings: rankings,
		hub:      hub,
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

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and pushes leaderboard snapshots until the client disconnects.
// Inbound messages are ignored; reading only detects the close.
func (f *LeaderboardFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	// subscribe before the first snapshot so no update falls in between
	updates, cancel := f.hub.Subscribe()
	defer cancel()

	initial, err := f.rankings.GlobalLeaderboard(r.Context(), app.FeedPage)
	if err != nil {
		log.WithError(err).Error("load leaderboard snapshot")
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "leaderboard unavailable"}})
		return
	}

	send := make(chan outboundMessage[domain.Leaderboard], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case lb, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: lb}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[domain.Leaderboard]{Type: "leaderboard", Payload: initial}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
