package tasks

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecurringRunsOnInterval(t *testing.T) {
	var runs atomic.Int64
	job := NewRecurring("test job", 10*time.Millisecond, func() error {
		runs.Add(1)
		return nil
	})

	job.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	job.Stop()
}

func TestRecurringStopPreventsFurtherRuns(t *testing.T) {
	var runs atomic.Int64
	job := NewRecurring("test job", 10*time.Millisecond, func() error {
		runs.Add(1)
		return nil
	})

	job.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	job.Stop()

	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs may happen after Stop returns")
}

func TestRecurringSurvivesFailingRuns(t *testing.T) {
	var runs atomic.Int64
	job := NewRecurring("test job", 10*time.Millisecond, func() error {
		runs.Add(1)
		return errors.New("tick failed")
	})

	job.Start()
	// a failing run must not kill the schedule
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	job.Stop()
}
