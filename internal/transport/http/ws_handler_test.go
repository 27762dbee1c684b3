package http

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/export"
	"quiz-studio/internal/infra/memory"
	"quiz-studio/internal/persist"
)

func newService(t *testing.T) *app.QuizService {
	t.Helper()
	st := domain.NewSessionState()
	st.Questions = []domain.Question{
		&domain.MultipleChoice{
			Stem:    domain.Stem{Question: domain.Prompt{Text: "What is 2 + 2?"}},
			Options: []domain.ContentItem{{Text: "3"}, {Text: "4"}, {Text: "5"}, {Text: "6"}},
			Correct: 1,
		},
		&domain.Matching{
			Prompts: []domain.ContentItem{{Text: "a"}, {Text: "b"}},
			Answers: []domain.ContentItem{{Text: "1"}, {Text: "2"}},
		},
	}
	codec := persist.NewCodec(memory.NewStore(), "", nil)
	service := app.NewQuizService(st, domain.DefaultQuizConfig(), codec, app.Options{RNG: rand.New(rand.NewSource(1))})
	service.Start()
	t.Cleanup(service.Stop)
	return service
}

func TestWebSocketAnswerFlow(t *testing.T) {
	service := newService(t)
	server := httptest.NewServer(NewRouter(Deps{Service: service}))
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current view first.
	_, payload := readNext(conn, t, "view")
	if payload["type"] != "multiple-choice" {
		t.Fatalf("expected multiple-choice view, got %v", payload["type"])
	}

	send(t, conn, map[string]any{"type": "submit", "payload": map[string]any{"answer": 1}})
	waitFor(t, conn, func(typ string, p map[string]any) bool {
		return typ == "view" && p["score"] == float64(1)
	})

	// A second submission is refused.
	send(t, conn, map[string]any{"type": "submit", "payload": map[string]any{"answer": 0}})
	waitFor(t, conn, func(typ string, p map[string]any) bool {
		return typ == "error" && p["code"] == "answered"
	})

	send(t, conn, map[string]any{"type": "next"})
	waitFor(t, conn, func(typ string, p map[string]any) bool {
		return typ == "view" && p["index"] == float64(1)
	})

	// Matching with an empty slot is incomplete.
	send(t, conn, map[string]any{"type": "submit", "payload": map[string]any{"answer": []any{0, nil}}})
	waitFor(t, conn, func(typ string, p map[string]any) bool {
		return typ == "error" && p["code"] == "incomplete"
	})

	send(t, conn, map[string]any{"type": "dance"})
	waitFor(t, conn, func(typ string, p map[string]any) bool {
		return typ == "error" && p["code"] == "unsupported"
	})
}

func TestQuestionsRoundTripOverHTTP(t *testing.T) {
	service := newService(t)
	server := httptest.NewServer(NewRouter(Deps{Service: service}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/questions.json")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list []map[string]any
	if err := json.Unmarshal(body, &list); err != nil || len(list) != 2 {
		t.Fatalf("expected two questions, got %s (%v)", body, err)
	}

	resp, err = http.Post(server.URL+"/questions.json", "application/json", strings.NewReader(`{"not":"a list"}`))
	if err != nil {
		t.Fatalf("post questions: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed import, got %d", resp.StatusCode)
	}

	resp, err = http.Post(server.URL+"/questions.json", "application/json", strings.NewReader(`[{"type":"true-false"}]`))
	if err != nil {
		t.Fatalf("post questions: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if n := len(service.Questions()); n != 1 {
		t.Fatalf("expected imported list to replace questions, have %d", n)
	}
}

type stubRuntime struct{}

func (stubRuntime) Load(context.Context) ([]byte, []byte, error) {
	return []byte("wasm"), []byte("class Go {}"), nil
}

func TestExportHTML(t *testing.T) {
	service := newService(t)
	static := export.NewStatic(stubRuntime{})
	server := httptest.NewServer(NewRouter(Deps{Service: service, Static: static}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/export.html")
	if err != nil {
		t.Fatalf("get export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, export.StaticFileName) {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"storageKey":"quiz_student_`) {
		t.Fatalf("expected student storage key in document")
	}
}

func send(t *testing.T, conn *websocket.Conn, msg any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// waitFor reads messages until match accepts one; timer views may arrive
// in between.
func waitFor(t *testing.T, conn *websocket.Conn, match func(string, map[string]any) bool) {
	t.Helper()
	for i := 0; i < 50; i++ {
		typ, payload := readNext(conn, t, "")
		if match(typ, payload) {
			return
		}
	}
	t.Fatalf("expected message never arrived")
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
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

func TestDeliverGivesUpAfterWriterStops(t *testing.T) {
	send := make(chan outboundMessage[any], 1)
	writerDone := make(chan struct{})
	msg := outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "unsupported"}}

	if !deliver(send, writerDone, msg) {
		t.Fatalf("expected delivery while the queue has room")
	}

	close(writerDone)
	returned := make(chan bool, 1)
	go func() { returned <- deliver(send, writerDone, msg) }()
	select {
	case ok := <-returned:
		if ok {
			t.Fatalf("expected delivery to be abandoned on a full queue")
		}
	case <-time.After(time.Second):
		t.Fatalf("deliver blocked after the writer stopped")
	}
}
