package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	evaluationStartedTotal   atomic.Uint64
	evaluationCompletedTotal atomic.Uint64
	evaluationFailedTotal    atomic.Uint64
	judgeCallsTotal          atomic.Uint64

	jobsReceivedTotal             atomic.Uint64
	jobsCompletedTotal            atomic.Uint64
	jobsFailedTotal               atomic.Uint64
	jobsDeletedUnrecoverableTotal atomic.Uint64

	evaluationDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})

	decisionActionMu     sync.Mutex
	decisionActionCounts = map[string]uint64{}
)

// IncEvaluationStarted increments the started counter.
func IncEvaluationStarted() {
	evaluationStartedTotal.Add(1)
}

// IncEvaluationCompleted increments the completed counter.
func IncEvaluationCompleted() {
	evaluationCompletedTotal.Add(1)
}

// IncEvaluationFailed increments the failed counter.
func IncEvaluationFailed() {
	evaluationFailedTotal.Add(1)
}

// IncEvaluationJobsReceived counts queue messages received by the worker.
func IncEvaluationJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncEvaluationJobsCompleted counts queue messages processed and deleted.
func IncEvaluationJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncEvaluationJobsFailed counts queue messages whose processing failed.
func IncEvaluationJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncEvaluationJobsDeletedUnrecoverable counts malformed messages dropped
// without processing.
func IncEvaluationJobsDeletedUnrecoverable() {
	jobsDeletedUnrecoverableTotal.Add(1)
}

// AddJudgeCalls records judge model invocations.
func AddJudgeCalls(n int) {
	if n > 0 {
		judgeCallsTotal.Add(uint64(n))
	}
}

// IncDecisionAction counts a routing decision by action label.
func IncDecisionAction(action string) {
	if action == "" {
		return
	}
	decisionActionMu.Lock()
	decisionActionCounts[action]++
	decisionActionMu.Unlock()
}

// ObserveEvaluationDurationMs records an evaluation duration in milliseconds.
func ObserveEvaluationDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	evaluationDuration.Observe(value)
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
	writeCounter(&buf, "evaluation_started_total", "Total evaluations started", evaluationStartedTotal.Load())
	writeCounter(&buf, "evaluation_completed_total", "Total evaluations completed", evaluationCompletedTotal.Load())
	writeCounter(&buf, "evaluation_failed_total", "Total evaluations failed", evaluationFailedTotal.Load())
	writeCounter(&buf, "judge_calls_total", "Total judge model invocations", judgeCallsTotal.Load())
	writeCounter(&buf, "evaluation_jobs_received_total", "Total worker jobs received", jobsReceivedTotal.Load())
	writeCounter(&buf, "evaluation_jobs_completed_total", "Total worker jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "evaluation_jobs_failed_total", "Total worker jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "evaluation_jobs_deleted_unrecoverable_total", "Total malformed worker jobs dropped", jobsDeletedUnrecoverableTotal.Load())
	writeDecisionActions(&buf)
	writeHistogram(&buf, "evaluation_duration_ms", "Evaluation duration in milliseconds", evaluationDuration.Snapshot())
	return buf.String()
}

func writeDecisionActions(buf *bytes.Buffer) {
	decisionActionMu.Lock()
	actions := make([]string, 0, len(decisionActionCounts))
	for action := range decisionActionCounts {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	fmt.Fprintf(buf, "# HELP decision_action_total Total routing decisions by action\n")
	fmt.Fprintf(buf, "# TYPE decision_action_total counter\n")
	for _, action := range actions {
		fmt.Fprintf(buf, "decision_action_total{action=%q} %d\n", action, decisionActionCounts[action])
	}
	decisionActionMu.Unlock()
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
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
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

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
