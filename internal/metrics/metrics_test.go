package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.MatchStarted("RANKED")
		r.MatchEnded("RANKED", "SURRENDER")
		r.TurnResolved(time.Millisecond, 3, true)
		r.QueueDepth("NORMAL", 2)
		r.SpectatorsChanged(1)
		r.HTTPRequest("GET", "/healthz", 200, time.Millisecond)
	})
	assert.Nil(t, r.Registry())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()

	r.MatchStarted("RANKED")
	r.MatchStarted("RANKED")
	r.MatchEnded("RANKED", "NEXUS_DESTROYED")
	r.TurnResolved(time.Millisecond, 4, true)
	r.TurnResolved(time.Millisecond, 0, false)
	r.QueueDepth("NORMAL", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.matchesStarted.WithLabelValues("RANKED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.activeMatches))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.turnsResolved))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.turnTimeouts))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.defaultActions))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.queueDepth.WithLabelValues("NORMAL")))
}

func TestHandlerServesRegistry(t *testing.T) {
	r := NewRecorder()
	r.MatchStarted("NORMAL")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `moba_matches_started_total{type="NORMAL"} 1`)
}
