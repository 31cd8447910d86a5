package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPromRecordsAndServes(t *testing.T) {
	p := NewProm(func() (int, int) { return 2, 5 })

	p.RecordHTTPRequest("/api/v1/channels", 200, 30*time.Millisecond)
	p.RecordSourceFetch(120*time.Millisecond, 3, nil)
	p.RecordSourceFetch(50*time.Millisecond, 1, errors.New("boom"))

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))

	body := rr.Body.String()
	assert.Contains(t, body, `changrep_http_requests_total{endpoint="/api/v1/channels",status="200"} 1`)
	assert.Contains(t, body, "changrep_source_fetch_total 2")
	assert.Contains(t, body, "changrep_source_fetch_failures_total 1")
	assert.Contains(t, body, "changrep_source_pages_total 4")
	assert.Contains(t, body, "changrep_saved_groups_total 5")
	assert.Contains(t, body, "changrep_group_users_total 2")
}

func TestTwoRecordersDoNotCollide(t *testing.T) {
	// Each recorder owns a private registry.
	a := NewProm(nil)
	b := NewProm(nil)
	a.RecordHTTPRequest("/healthz", 200, time.Millisecond)
	b.RecordHTTPRequest("/healthz", 200, time.Millisecond)
}

func TestNopRecorderIsSafe(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordHTTPRequest("/x", 500, time.Second)
	r.RecordSourceFetch(time.Second, 0, nil)
}
