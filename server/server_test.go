package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crop-advisor/cache"
	"crop-advisor/logging"
	"crop-advisor/metrics"
	"crop-advisor/repositories"
	"crop-advisor/security"
	"crop-advisor/usecases"
	"crop-advisor/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const cropsJSON = `{"crops":[{"name":"Rice","reason":"a"},{"name":"Ragi","reason":"b"},{"name":"Cotton","reason":"c"}]}`

type chunkGenerator struct{ chunks []string }

func (g chunkGenerator) Generate(context.Context, string) (string, error) {
	return strings.Join(g.chunks, ""), nil
}

func (g chunkGenerator) Stream(_ context.Context, _ string, onChunk func(string) error) error {
	for _, c := range g.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *ws.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logging.Discard()

	tokens, err := security.NewTokenManager("secret", "HS256", time.Hour)
	require.NoError(t, err)
	m := metrics.New()
	store := cache.NewMemory(time.Minute)
	sessions := ws.NewManager()
	gen := chunkGenerator{chunks: []string{cropsJSON[:40], cropsJSON[40:]}}

	s := NewServer(Deps{
		Auth:     usecases.NewAuthUseCase(repositories.NewUserMemRepository(), security.NewBcryptHasher(bcrypt.MinCost), tokens, log),
		Advisory: usecases.NewAdvisoryUseCase(gen, store, m, "Tamil Nadu, India", log),
		Cache:    store,
		Sessions: sessions,
		Metrics:  m,
		Log:      log,
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, sessions
}

func post(t *testing.T, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_EndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, srv.URL+"/register", `{"name":"Anbu","username":"anbu","email":"a@example.com","password":"pw","confirmPassword":"pw"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, srv.URL+"/login", `{"username":"anbu","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	resp = post(t, srv.URL+"/ask?format=json", `{"soil_type":"Clay"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, cropsJSON, string(body))

	resp = post(t, srv.URL+"/ask?format=json", `{"soil_type":"Clay"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, srv.URL+"/cache/stats", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(t, srv.URL+"/cache/stats", login.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats struct {
		Stats cache.Stats `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.Stats.Entries)
	assert.Equal(t, uint64(1), stats.Stats.Hits)

	resp = post(t, srv.URL+"/cache/purge", "", login.Token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = get(t, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `cropadvisor_http_requests_total{method="POST",route="/ask",status="200"} 2`)
	assert.Contains(t, string(body), `cropadvisor_cache_lookups_total{result="hit"} 1`)
}

func TestServer_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/ask", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://farm.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestServer_WebsocketAsk(t *testing.T) {
	srv, sessions := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/ask", nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool { return sessions.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"soil_type": "Sandy", "area": 2}))

	var events []usecases.Event
	for {
		var e usecases.Event
		if err := conn.ReadJSON(&e); err != nil {
			break
		}
		events = append(events, e)
	}

	require.Len(t, events, 3)
	assert.Equal(t, usecases.EventChunk, events[0].Type)
	assert.Equal(t, cropsJSON, events[0].Text+events[1].Text)
	assert.Equal(t, usecases.EventResult, events[2].Type)
	require.NotNil(t, events[2].Result)
	assert.Len(t, events[2].Result.Crops, 3)

	assert.Eventually(t, func() bool { return sessions.Count() == 0 }, time.Second, 10*time.Millisecond)

	resp := get(t, srv.URL+"/ws/sessions", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 0, list.Count)
}
