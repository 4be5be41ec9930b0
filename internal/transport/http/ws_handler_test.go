package http

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-results-service/internal/domain"
)

func TestWebSocketStreamsChanges(t *testing.T) {
	env := newTestEnv(t, sampleResults()...)

	u := "ws" + env.server.URL[len("http"):] + "/ws?window=5"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect an initial statistics snapshot.
	_, payload := readNext(conn, t, typeStatistics)
	var info domain.StatisticsInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if info.TotalNumberOfQuizzes != 2 {
		t.Fatalf("expected 2 quizzes, got %d", info.TotalNumberOfQuizzes)
	}

	// The subscription is registered before the snapshot is written.
	_, err = env.service.SaveResult(context.Background(), domain.RawResult{
		Date: "2025-03-13", Score: 4, Total: 10, QuizSource: "VG",
	}, true)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	_, payload = readNext(conn, t, typeResultsChanged)
	var event domain.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event.Date != "2025-03-13" || !event.Notify || event.Result.Score != 4 {
		t.Fatalf("unexpected event %+v", event)
	}

	_, payload = readNext(conn, t, typeStatistics)
	if err := json.Unmarshal(payload, &info); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if info.TotalNumberOfQuizzes != 3 {
		t.Fatalf("expected refreshed statistics with 3 quizzes, got %d", info.TotalNumberOfQuizzes)
	}
}

func TestWebSocketStatisticsRequest(t *testing.T) {
	env := newTestEnv(t, sampleResults()...)

	u := "ws" + env.server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(conn, t, typeStatistics)

	if err := conn.WriteJSON(map[string]any{"type": "statistics", "payload": map[string]any{"window": 1}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, payload := readNext(conn, t, typeStatistics)
	var info domain.StatisticsInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if len(info.TrendLastQuizzes) != 1 {
		t.Fatalf("expected one trend point, got %d", len(info.TrendLastQuizzes))
	}

	if err := conn.WriteJSON(map[string]any{"type": "answer"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, typeError)
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
