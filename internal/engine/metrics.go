package engine

import (
	"sync"
	"time"

	"github.com/conneroisu/csvguard/internal/record"
	"github.com/conneroisu/csvguard/internal/validator"
)

// Metrics summarises one run.
type Metrics struct {
	Records       int64            `json:"records" yaml:"records"`
	Skipped       int64            `json:"skipped" yaml:"skipped"`
	PhysicalLines int64            `json:"physical_lines" yaml:"physical_lines"`
	Bytes         int64            `json:"bytes" yaml:"bytes"`
	Batches       int64            `json:"batches" yaml:"batches"`
	Issues        int64            `json:"issues" yaml:"issues"`
	ByValidator   map[string]int64 `json:"by_validator" yaml:"by_validator"`
	Threads       int              `json:"threads" yaml:"threads"`
	Duration      time.Duration    `json:"duration" yaml:"duration"`
}

// RecordsPerSecond returns the validation throughput.
func (m Metrics) RecordsPerSecond() float64 {
	if m.Duration <= 0 {
		return 0
	}

	return float64(m.Records) / m.Duration.Seconds()
}

// metricsRecorder collects Metrics from the dispatcher and collector
// goroutines.
type metricsRecorder struct {
	mutex   sync.RWMutex
	metrics Metrics
	start   time.Time
}

func newMetricsRecorder(threads int) *metricsRecorder {
	return &metricsRecorder{
		metrics: Metrics{
			ByValidator: make(map[string]int64),
			Threads:     threads,
		},
		start: time.Now(),
	}
}

func (m *metricsRecorder) recordBatch() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.metrics.Batches++
}

func (m *metricsRecorder) recordSkipped() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.metrics.Skipped++
}

func (m *metricsRecorder) recordReader(stats record.Stats) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.metrics.Records = stats.Records - m.metrics.Skipped
	m.metrics.PhysicalLines = stats.PhysicalLines
	m.metrics.Bytes = stats.Bytes
}

func (m *metricsRecorder) recordIssues(issues []validator.Issue) {
	if len(issues) == 0 {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.metrics.Issues += int64(len(issues))
	for _, issue := range issues {
		m.metrics.ByValidator[issue.Validator]++
	}
}

// snapshot returns a copy of the current metrics with the elapsed time.
func (m *metricsRecorder) snapshot() Metrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := m.metrics
	out.ByValidator = make(map[string]int64, len(m.metrics.ByValidator))
	for k, v := range m.metrics.ByValidator {
		out.ByValidator[k] = v
	}
	out.Duration = time.Since(m.start)

	return out
}
