package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rl-route-finder/log"
	"github.com/zeu5/rl-route-finder/policies"
	"github.com/zeu5/rl-route-finder/sequence"
	"github.com/zeu5/rl-route-finder/types"
)

func newTestServer(t *testing.T, policy types.Policy) (*Server, *sequence.Environment) {
	env := sequence.NewEnvironment(&sequence.Config{Actions: []string{"first", "second"}})
	s := New(&Config{
		Environment: env,
		Policy:      policy,
		MaxSteps:    10,
		Logger:      log.Discard(),
	})
	return s, env
}

func qlearning(t *testing.T) *policies.QLearningPolicy {
	p, err := policies.NewQLearningPolicy(policies.DefaultQLearningConfig(1))
	require.NoError(t, err)
	return p
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, qlearning(t))
	w := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRoute(t *testing.T) {
	s, _ := newTestServer(t, qlearning(t))
	w := do(s, http.MethodPost, "/route", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := RouteResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(types.GoalReached), resp.Outcome)
	require.Len(t, resp.Steps, 2)
	assert.Equal(t, (&sequence.Click{Target: "first"}).String(), resp.Steps[0].Action)
	assert.Empty(t, resp.Error)
}

func TestRouteStepLimit(t *testing.T) {
	s, _ := newTestServer(t, qlearning(t))
	w := do(s, http.MethodPost, "/route", `{"max_steps": 1}`)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := RouteResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(types.StepLimitExceeded), resp.Outcome)
	assert.Len(t, resp.Steps, 1)
}

func TestRouteBadRequest(t *testing.T) {
	s, _ := newTestServer(t, qlearning(t))
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/route", `{"max_steps": -2}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/route", `not json`).Code)
}

func TestRouteUnavailable(t *testing.T) {
	s, env := newTestServer(t, qlearning(t))
	env.Disconnect()
	w := do(s, http.MethodPost, "/route", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQTable(t *testing.T) {
	p := qlearning(t)
	p.Table().Set("s", "a", 2)
	s, _ := newTestServer(t, p)
	w := do(s, http.MethodGet, "/qtable", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := QTableResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.States)
	assert.Equal(t, 2.0, resp.Table["s"]["a"])

	s, _ = newTestServer(t, types.NewRandomPolicy(1))
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/qtable", "").Code)
}

func TestMetricsAfterRoute(t *testing.T) {
	s, _ := newTestServer(t, qlearning(t))
	require.Equal(t, http.StatusOK, do(s, http.MethodPost, "/route", "").Code)

	w := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `route_finder_routes_total{outcome="goal_reached"} 1`)
}
