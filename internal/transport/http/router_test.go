package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"trivia-quiz-server/internal/app"
	"trivia-quiz-server/internal/infra/memory"
)

func newStatusServer(t *testing.T) (*httptest.Server, *app.QuizService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := app.NewQuizService(memory.SampleTopics(), app.NewRegistry(4))
	publisher := app.NewPublisher(service, logger)
	service.SetRefresher(publisher)
	go publisher.Run(ctx)
	// Wait for the startup render.
	publisher.Refresh(ctx)

	server := httptest.NewServer(NewRouter(publisher, nil, logger))
	t.Cleanup(server.Close)
	return server, service
}

func TestHealthz(t *testing.T) {
	server, _ := newStatusServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, body)
	}
}

func TestStatusReturnsSnapshot(t *testing.T) {
	server, service := newStatusServer(t)
	if err := service.Login(context.Background(), 0, "Ann"); err != nil {
		t.Fatalf("login: %v", err)
	}

	resp, err := http.Get(server.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var status struct {
		Topics  []string `json:"topics"`
		Players []struct {
			Nickname string `json:"nickname"`
		} `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(status.Topics) != 2 {
		t.Fatalf("expected 2 topics, got %v", status.Topics)
	}
	if len(status.Players) != 1 || status.Players[0].Nickname != "Ann" {
		t.Fatalf("expected Ann online, got %+v", status.Players)
	}
}

func TestWebSocketStreamsStatus(t *testing.T) {
	server, service := newStatusServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The latest snapshot arrives first.
	if players := readPlayers(t, conn); len(players) != 0 {
		t.Fatalf("expected no players yet, got %v", players)
	}

	if err := service.Login(context.Background(), 1, "Bo"); err != nil {
		t.Fatalf("login: %v", err)
	}
	for i := 0; i < 5; i++ {
		players := readPlayers(t, conn)
		if len(players) == 1 && players[0] == "Bo" {
			return
		}
	}
	t.Fatal("login was not streamed")
}

func readPlayers(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()
	var msg struct {
		Type    string `json:"type"`
		Payload struct {
			Players []struct {
				Nickname string `json:"nickname"`
			} `json:"players"`
		} `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "status" {
		t.Fatalf("expected status message, got %s", msg.Type)
	}
	names := make([]string, len(msg.Payload.Players))
	for i, p := range msg.Payload.Players {
		names[i] = p.Nickname
	}
	return names
}
