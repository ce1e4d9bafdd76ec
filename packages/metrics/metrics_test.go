package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordStepCounters(t *testing.T) {
	agg := NewAggregator(2)

	agg.RecordStep(0, 10*time.Millisecond, true, false, false)
	agg.RecordStep(0, 20*time.Millisecond, true, false, false)
	agg.RecordStep(1, 0, false, true, false)
	agg.RecordStep(1, 0, false, false, true)

	s := agg.Snapshot()

	assert.Equal(t, int64(4), s.Run.Attempted)
	assert.Equal(t, int64(2), s.Run.Success)
	assert.Equal(t, int64(2), s.Run.Failure)
	assert.Equal(t, s.Run.Attempted, s.Run.Success+s.Run.Failure)
	assert.Equal(t, int64(1), s.Run.AssertionFailures)
	assert.Equal(t, int64(1), s.Run.TransportErrors)

	assert.Equal(t, int64(2), s.Steps[0].Success)
	assert.Equal(t, int64(2), s.Steps[1].Failure)
}

func TestLatencyOnlyFromSuccesses(t *testing.T) {
	agg := NewAggregator(1)

	agg.RecordStep(0, 10*time.Millisecond, true, false, false)
	agg.RecordStep(0, 30*time.Millisecond, true, false, false)
	agg.RecordStep(0, 999*time.Millisecond, false, true, false)

	s := agg.Snapshot()

	assert.InDelta(t, 10.0, s.Run.MinMs, 0.5)
	assert.InDelta(t, 30.0, s.Run.MaxMs, 0.5)
	assert.InDelta(t, 20.0, s.Run.MeanMs, 0.5)
}

func TestNoSuccessesReportsZeroNotSentinel(t *testing.T) {
	agg := NewAggregator(1)

	agg.RecordStep(0, 0, false, false, true)

	s := agg.Snapshot()

	assert.Zero(t, s.Run.MinMs)
	assert.Zero(t, s.Run.MaxMs)
	assert.Zero(t, s.Run.MeanMs)
	assert.Zero(t, s.P50Ms)
	assert.Zero(t, s.Steps[0].MinMs)
}

func TestEmptyAggregatorSnapshot(t *testing.T) {
	agg := NewAggregator(3)

	s := agg.Snapshot()

	assert.Zero(t, s.Run.Attempted)
	assert.Len(t, s.Steps, 3)
	for _, step := range s.Steps {
		assert.Zero(t, step.MinMs)
		assert.Zero(t, step.MaxMs)
	}
}

func TestRecordFlow(t *testing.T) {
	agg := NewAggregator(1)

	agg.RecordFlow(100*time.Millisecond, true, 0)
	agg.RecordFlow(200*time.Millisecond, false, 2)

	s := agg.Snapshot()

	assert.Equal(t, int64(2), s.Flows.Attempted)
	assert.Equal(t, int64(1), s.Flows.Success)
	assert.Equal(t, int64(1), s.Flows.Failure)
	assert.Equal(t, int64(2), s.Flows.AssertionFailures)
}

func TestPercentiles(t *testing.T) {
	agg := NewAggregator(1)

	for i := 1; i <= 100; i++ {
		agg.RecordStep(0, time.Duration(i)*time.Millisecond, true, false, false)
	}

	s := agg.Snapshot()

	assert.InDelta(t, 50.0, s.P50Ms, 2.0)
	assert.InDelta(t, 95.0, s.P95Ms, 2.0)
	assert.InDelta(t, 99.0, s.P99Ms, 2.0)
}

func TestConcurrentRecording(t *testing.T) {
	agg := NewAggregator(1)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				agg.RecordStep(0, time.Millisecond, true, false, false)
			}
		}()
	}
	wg.Wait()

	s := agg.Snapshot()
	assert.Equal(t, int64(1000), s.Run.Attempted)
	assert.Equal(t, int64(1000), s.Run.Success)
}
