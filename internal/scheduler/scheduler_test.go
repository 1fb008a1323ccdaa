package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netscan-tools/netscan/internal/config"
	"github.com/netscan-tools/netscan/internal/probe"
	"github.com/netscan-tools/netscan/internal/scan"
)

type stubProber struct{}

func (stubProber) Probe(_ context.Context, target probe.Target) probe.Outcome {
	return probe.Outcome{Target: target, Status: probe.StatusOpen}
}

func testScheduler() *Scheduler {
	return New(scan.NewScannerWithProber(stubProber{}))
}

func TestAddAndRemove(t *testing.T) {
	s := testScheduler()

	err := s.Add(config.ScheduleConfig{
		Name: "nightly",
		Cron: "0 2 * * *",
		Host: "gateway.lan",
	})
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "nightly", entries[0].Name)
	assert.Nil(t, entries[0].LastResult)

	assert.True(t, s.Remove("nightly"))
	assert.False(t, s.Remove("nightly"))
	assert.Empty(t, s.Entries())
}

func TestAddValidation(t *testing.T) {
	s := testScheduler()

	err := s.Add(config.ScheduleConfig{Name: "bad", Cron: "not a cron", Host: "h"})
	require.Error(t, err)

	require.NoError(t, s.Add(config.ScheduleConfig{Name: "dup", Cron: "@hourly", Host: "h"}))
	err = s.Add(config.ScheduleConfig{Name: "dup", Cron: "@hourly", Host: "h"})
	require.Error(t, err)
}

func TestExecuteStoresResult(t *testing.T) {
	s := testScheduler()

	require.NoError(t, s.Add(config.ScheduleConfig{
		Name:  "adhoc",
		Cron:  "@hourly",
		Host:  "router.lan",
		Ports: "80,443",
	}))

	s.execute("adhoc")

	entries := s.Entries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].LastResult)
	assert.Equal(t, 2, entries[0].LastResult.Stats.Open)
	assert.Empty(t, entries[0].LastError)
	assert.False(t, entries[0].LastRun.IsZero())
}

func TestExecuteRecordsFailure(t *testing.T) {
	s := testScheduler()

	require.NoError(t, s.Add(config.ScheduleConfig{
		Name:  "broken",
		Cron:  "@hourly",
		Host:  "h",
		Ports: "9-1",
	}))

	s.execute("broken")

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].LastResult)
	assert.NotEmpty(t, entries[0].LastError)
}

func TestStartStop(t *testing.T) {
	s := testScheduler()
	require.NoError(t, s.Add(config.ScheduleConfig{Name: "s", Cron: "@hourly", Host: "h"}))

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	// Stopping cancels the scheduler context.
	select {
	case <-s.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled on stop")
	}
}
