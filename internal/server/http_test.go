package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollwave/pollwave/internal/config"
	"github.com/pollwave/pollwave/internal/history"
	"github.com/pollwave/pollwave/internal/session"
	ws "github.com/pollwave/pollwave/pkg/http/ws"
)

func newTestServer(t *testing.T, histStore *history.Store) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	hub := ws.NewHub(logger)
	engine := session.NewEngine(hub, session.EngineOptions{}, logger)
	cfg := &config.App{HTTPAddr: "127.0.0.1:0"}

	srv := NewHTTPServer(cfg, logger, engine, histStore, func(w http.ResponseWriter, r *http.Request) {})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func getBody(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)

	status, body := getBody(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestStatusSnapshot(t *testing.T) {
	ts := newTestServer(t, nil)

	status, body := getBody(t, ts.URL+"/status")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"students":0,"activeQuestion":false,"answers":0,"question":null}`, string(body))
}

func TestHistoryDisabled(t *testing.T) {
	ts := newTestServer(t, nil)

	status, body := getBody(t, ts.URL+"/v1/history")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"history":[]}`, string(body))
}

func TestHistoryServesArchivedRecords(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := history.NewStore(client, 10, zerolog.Nop())
	require.NoError(t, store.Save(context.Background(), history.Record{
		QuestionNumber: 3,
		Question:       "archived",
		TotalStudents:  4,
		TotalAnswers:   4,
		Trigger:        "timeout",
	}))

	ts := newTestServer(t, store)

	status, body := getBody(t, ts.URL+"/v1/history")
	assert.Equal(t, http.StatusOK, status)

	var resp struct {
		History []history.Record `json:"history"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.History, 1)
	assert.Equal(t, "archived", resp.History[0].Question)
}
