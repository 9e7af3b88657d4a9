package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestS6Timeout establishes S6: a child sleeping longer than its time
// limit is killed, reports failure, and time_used is at least the limit.
func TestS6Timeout(t *testing.T) {
	s := NewSingle(Spec{
		TimeLimitMs: 500,
		ProgramPath: "sleep",
		Args:        []string{"2"},
	})
	ok, err := s.Run(context.Background())
	if ok {
		t.Error("Run() should report false when the time limit is exceeded")
	}
	if err == nil {
		t.Error("Run() should return a ResourceExceeded error on timeout")
	}
	if s.TimeUsedMs() < 500 {
		t.Errorf("TimeUsedMs() = %d, want >= 500", s.TimeUsedMs())
	}
	if s.State() != Finished {
		t.Errorf("State() = %v, want Finished", s.State())
	}
}

func TestRunIsIdempotentAfterFinished(t *testing.T) {
	s := NewSingle(Spec{ProgramPath: "true"})
	first, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	status := s.Report().ExitStatus

	second, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("second Run() = %v, want cached %v", second, first)
	}
	if s.Report().ExitStatus != status {
		t.Error("second Run() should not mutate the cached report")
	}
}

// TestP9AccountingSuccessfulRun establishes P9 for a run that stays within
// its limits: time_used does not exceed the configured limit and the
// report says the child exited normally.
func TestP9AccountingSuccessfulRun(t *testing.T) {
	s := NewSingle(Spec{TimeLimitMs: 5000, ProgramPath: "true"})
	ok, err := s.Run(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	report := s.Report()
	assert.Equal(t, "exited", report.ExitStatus)
	assert.LessOrEqual(t, report.TimeUsedMs, int64(5000))
	assert.GreaterOrEqual(t, report.TimeUsedMs, int64(0))
}

func TestRunAllIsolatesPerSandboxFailures(t *testing.T) {
	m := NewMulti(2)
	m.Add("ok", Spec{ProgramPath: "true"})
	m.Add("timeout", Spec{TimeLimitMs: 200, ProgramPath: "sleep", Args: []string{"2"}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results := m.RunAll(ctx)

	byName := map[string]RunResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	if !byName["ok"].OK {
		t.Errorf("ok sandbox result = %+v, want OK=true", byName["ok"])
	}
	if byName["timeout"].OK {
		t.Errorf("timeout sandbox result = %+v, want OK=false", byName["timeout"])
	}
}

func TestGetUnregisteredSandboxFails(t *testing.T) {
	m := NewMulti(1)
	if _, err := m.Get("nope"); err == nil {
		t.Error("Get on an unregistered name should fail")
	}
}
