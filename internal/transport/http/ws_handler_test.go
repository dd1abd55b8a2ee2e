package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestLeaderboardFeedPushesUpdates(t *testing.T) {
	questions := seedQuestions(2)
	srv := newTestServer(t, questions...)

	_, body := srv.do(t, http.MethodPost, "/users", map[string]string{"username": "yuki", "email": "yuki@example.com"}, "")
	userID := body["data"].(map[string]interface{})["id"].(string)

	u := "ws" + srv.URL[len("http"):] + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the initial snapshot first.
	entries := readLeaderboard(t, conn)
	if len(entries) != 1 || entries[0]["points"].(float64) != 0 {
		t.Fatalf("unexpected initial snapshot: %v", entries)
	}

	status, _ := srv.do(t, http.MethodPost, "/exam/submit", map[string]interface{}{
		"userId": userID, "userName": "yuki", "level": "N5",
		"answers": []map[string]interface{}{
			{"questionId": questions[0].ID, "selected": questions[0].Correct},
			{"questionId": questions[1].ID, "selected": questions[1].Correct},
		},
	}, "")
	if status != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d", status)
	}

	entries = readLeaderboard(t, conn)
	if len(entries) != 1 || entries[0]["points"].(float64) != 100 {
		t.Fatalf("expected pushed leaderboard with 100 points, got %v", entries)
	}
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) []map[string]interface{} {
	t.Helper()
	var msg struct {
		Type    string `json:"type"`
		Payload struct {
			Entries []map[string]interface{} `json:"entries"`
		} `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload.Entries
}
