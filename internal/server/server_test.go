package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/cadence/internal/config"
	"github.com/zsiec/cadence/internal/convert"
)

type stubStats struct {
	stats convert.Stats
}

func (s *stubStats) Stats() convert.Stats {
	return s.stats
}

func newTestServer(stats StatsSource) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.ServerConfig{Enabled: true, Port: 8080}
	return New(cfg, log, stats)
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(nil)
	rec := doRequest(s, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(nil)
	rec := doRequest(s, http.MethodGet, "/version")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "version")
}

func TestStatsEndpoint(t *testing.T) {
	src := &stubStats{stats: convert.Stats{
		SessionID: "abc-123",
		State:     "running",
		FramesIn:  10,
		FramesOut: 20,
		Cloned:    12,
		Blended:   8,
	}}
	s := newTestServer(src)
	rec := doRequest(s, http.MethodGet, "/stats")

	assert.Equal(t, http.StatusOK, rec.Code)

	var got convert.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, src.stats, got)
}

func TestStatsEndpointWithoutSession(t *testing.T) {
	s := newTestServer(nil)
	rec := doRequest(s, http.MethodGet, "/stats")

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Type)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(nil)
	rec := doRequest(s, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDAssigned(t *testing.T) {
	s := newTestServer(nil)
	rec := doRequest(s, http.MethodGet, "/healthz")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDPreserved(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, "caller-id", rec.Header().Get("X-Request-ID"))
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(nil)
	rec := doRequest(s, http.MethodPost, "/stats")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
