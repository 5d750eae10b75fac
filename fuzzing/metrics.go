package fuzzing

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuzzerMetrics accumulates counters for one fuzzing session.
type FuzzerMetrics struct {
	// iterations describes the number of consumed fuzz iterations executed across all tests.
	iterations uint64

	// discards describes the number of generated inputs discarded by failed assumptions.
	discards uint64

	// startTime describes when the session started executing tests.
	startTime time.Time
}

// newFuzzerMetrics creates metrics for a session starting now.
func newFuzzerMetrics() *FuzzerMetrics {
	return &FuzzerMetrics{startTime: time.Now()}
}

// Iterations exposes the number of consumed fuzz iterations executed across all tests.
func (m *FuzzerMetrics) Iterations() uint64 {
	return m.iterations
}

// Discards exposes the number of generated inputs discarded by failed assumptions.
func (m *FuzzerMetrics) Discards() uint64 {
	return m.discards
}

// IterationsPerSecond computes the session's iteration rate, rounded to two decimal places for
// reporting.
func (m *FuzzerMetrics) IterationsPerSecond() decimal.Decimal {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(m.iterations)).Div(decimal.NewFromFloat(elapsed)).Round(2)
}
