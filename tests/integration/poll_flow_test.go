//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/pollwave/pollwave/pkg/http/ws"
)

// Runs one full poll against a live server: a student joins, the teacher
// starts a question, the student answers, and both sides see results.
func TestPollFlow(t *testing.T) {
	baseWS := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:3001/ws")

	student := dialWS(t, baseWS)
	defer student.Close()
	teacher := dialWS(t, baseWS)
	defer teacher.Close()

	sendMessage(t, student, wsmsg.TypeJoin, "IntegrationStudent")
	waitForType(t, student, wsmsg.TypeWaitingForQuestion, 5*time.Second)

	sendMessage(t, teacher, wsmsg.TypeNewQuestion, wsmsg.NewQuestionPayload{
		QuestionNumber: 1,
		Question:       "Integration check?",
		Options: []wsmsg.NewQuestionOption{
			{Text: "pass", IsCorrect: true},
			{Text: "fail"},
		},
		TimeLimit: "30 seconds",
	})
	waitForType(t, student, wsmsg.TypeQuestionStarted, 5*time.Second)

	sendMessage(t, student, wsmsg.TypeSubmitAnswer, 1)

	shown := waitForType(t, teacher, wsmsg.TypeShowResults, 5*time.Second)
	var results wsmsg.ShowResultsPayload
	if err := json.Unmarshal(shown.Payload, &results); err != nil {
		t.Fatalf("decode showResults: %v", err)
	}
	if results.TotalAnswers == 0 {
		t.Fatalf("expected at least one recorded answer")
	}
}

func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	msg := wsmsg.Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		msg.Payload = data
	}
	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

func waitForType(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) wsmsg.Message {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read failed while waiting for %s: %v", msgType, err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("timed out waiting for %s", msgType)
	return wsmsg.Message{}
}
