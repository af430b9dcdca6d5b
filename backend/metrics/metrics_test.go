package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Answer("riddle", true)
	m.Answer("riddle", false)
	m.Answer("riddle", false)
	m.StorageFailure("remote", "save")
	m.LevelCompleted()
	m.SetSessions(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues("riddle", "correct")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.answers.WithLabelValues("riddle", "wrong")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageFailures.WithLabelValues("remote", "save")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.levelsCompleted))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sessions))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestStarted()
		m.RequestFinished("GET", "/", "200", time.Millisecond)
		m.Answer("security", true)
		m.Hint("riddle")
		m.GameCompleted()
		m.StorageFailure("local", "load")
		m.SetSessions(1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.GameCompleted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "treasurehunt_games_completed_total 1")
}
