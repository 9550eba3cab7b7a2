// Package metrics keeps an in-process latency histogram of API requests.
package metrics

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/gin-gonic/gin"
)

// Latency records request durations in microseconds, from 1us to 60s, at
// three significant figures.
type Latency struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func NewLatency() *Latency {
	return &Latency{hist: hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)}
}

func (l *Latency) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	l.mu.Lock()
	// values above the highest trackable are clamped rather than dropped
	if err := l.hist.RecordValue(us); err != nil {
		l.hist.RecordValue(l.hist.HighestTrackableValue())
	}
	l.mu.Unlock()
}

// Summary is reported in milliseconds.
type Summary struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

func ms(us float64) float64 {
	return math.Round(us) / 1000
}

func (l *Latency) Snapshot() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hist.TotalCount() == 0 {
		return Summary{}
	}
	return Summary{
		Count: l.hist.TotalCount(),
		Mean:  ms(l.hist.Mean()),
		P50:   ms(float64(l.hist.ValueAtQuantile(50))),
		P95:   ms(float64(l.hist.ValueAtQuantile(95))),
		P99:   ms(float64(l.hist.ValueAtQuantile(99))),
	}
}

// Middleware times every request that passes through it.
func (l *Latency) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Record(time.Since(start))
	}
}

func (l *Latency) Handler(c *gin.Context) {
	c.JSON(http.StatusOK, l.Snapshot())
}
