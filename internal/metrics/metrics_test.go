package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerExposesRegisteredGauges(t *testing.T) {
	m := New()
	m.LiveSessions.Set(3)
	m.LiveTags.Set(7)
	m.RateLimited.Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "coh_session_live_sessions 3")
	require.Contains(t, body, "coh_session_live_tags 7")
	require.Contains(t, body, "coh_console_rate_limited_total 1")
}

func TestTwoInstancesDoNotCollide(t *testing.T) {
	a := New()
	b := New()
	a.LiveSessions.Set(1)
	b.LiveSessions.Set(2)

	require.NotPanics(t, func() {
		_ = a.Handler()
		_ = b.Handler()
	})
}
