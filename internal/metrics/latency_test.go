package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSnapshotEmpty(t *testing.T) {
	if s := NewLatency().Snapshot(); s != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestSnapshotPercentiles(t *testing.T) {
	l := NewLatency()
	for i := 1; i <= 100; i++ {
		l.Record(time.Duration(i) * time.Millisecond)
	}
	s := l.Snapshot()
	if s.Count != 100 {
		t.Fatalf("expected 100 samples, got %d", s.Count)
	}
	// three significant figures keeps values within 0.1%
	near := func(got, want float64) bool { return got >= want*0.99 && got <= want*1.01 }
	if !near(s.P50, 50) || !near(s.P95, 95) || !near(s.P99, 99) || !near(s.Mean, 50.5) {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestRecordClampsOutliers(t *testing.T) {
	l := NewLatency()
	l.Record(2 * time.Hour)
	l.Record(0)
	if s := l.Snapshot(); s.Count != 2 {
		t.Errorf("expected both samples kept, got %+v", s)
	}
}

func TestMiddlewareRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := NewLatency()
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/latency", l.Handler)

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/latency", nil))
	var s Summary
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatal(err)
	}
	if s.Count != 3 {
		t.Errorf("expected 3 recorded requests, got %d", s.Count)
	}
}
