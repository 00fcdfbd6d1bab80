package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	resumeUploadsTotal     atomic.Uint64
	resumeScansTotal       atomic.Uint64
	resumeScanFailedTotal  atomic.Uint64
	fetchFailuresTotal     atomic.Uint64
	danglingReferenceTotal atomic.Uint64
	reaperDeletedTotal     atomic.Uint64
	reaperFailedTotal      atomic.Uint64

	scanDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncResumeUploads counts stored resume uploads.
func IncResumeUploads() {
	resumeUploadsTotal.Add(1)
}

// IncResumeScans counts completed scans, legacy endpoints included.
func IncResumeScans() {
	resumeScansTotal.Add(1)
}

func IncResumeScanFailed() {
	resumeScanFailedTotal.Add(1)
}

func IncFetchFailures() {
	fetchFailuresTotal.Add(1)
}

// IncDanglingReferences counts references cleared because their object was gone.
func IncDanglingReferences() {
	danglingReferenceTotal.Add(1)
}

func IncReaperDeleted() {
	reaperDeletedTotal.Add(1)
}

func IncReaperFailed() {
	reaperFailedTotal.Add(1)
}

// ObserveScanDurationMs records fetch+parse+score time in milliseconds.
func ObserveScanDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	scanDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "resume_uploads_total", "Total resume uploads stored", resumeUploadsTotal.Load())
	writeCounter(&buf, "resume_scans_total", "Total resume scans completed", resumeScansTotal.Load())
	writeCounter(&buf, "resume_scan_failed_total", "Total resume scans failed", resumeScanFailedTotal.Load())
	writeCounter(&buf, "resume_fetch_failures_total", "Total resume fetch failures", fetchFailuresTotal.Load())
	writeCounter(&buf, "resume_dangling_references_total", "Total dangling resume references cleared", danglingReferenceTotal.Load())
	writeCounter(&buf, "reaper_deleted_total", "Total resume objects deleted by the reaper", reaperDeletedTotal.Load())
	writeCounter(&buf, "reaper_failed_total", "Total reaper deletions that failed", reaperFailedTotal.Load())
	writeHistogram(&buf, "resume_scan_duration_ms", "Resume scan duration in milliseconds", scanDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	// counts are per bucket; writeHistogram accumulates them.
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
