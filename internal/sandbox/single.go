// Package sandbox runs external programs under wall-clock time, memory, and
// filesystem/user restrictions and reports resource usage (spec.md C10).
package sandbox

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/lithiumaddons/core/errs"
)

// State is the single-sandbox lifecycle.
type State int

const (
	Configured State = iota
	Running
	Finished
)

// Spec describes one sandboxed invocation.
type Spec struct {
	TimeLimitMs      int64
	MemoryLimitBytes int64
	RootDir          string // optional chroot target
	UserID           *uint32
	ProgramPath      string
	Args             []string
}

// Report is the outcome of a finished run.
type Report struct {
	TimeUsedMs      int64
	MemoryUsedBytes int64
	ExitStatus      string
	Stdout          []byte
	Stderr          []byte
}

// Single runs one program against one Spec. Run is idempotent: calling it
// again after Finished returns the cached Report.
type Single struct {
	mu     sync.Mutex
	spec   Spec
	state  State
	report Report
}

// NewSingle constructs a sandbox in the Configured state.
func NewSingle(spec Spec) *Single {
	return &Single{spec: spec, state: Configured}
}

// State returns the sandbox's current lifecycle state.
func (s *Single) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run executes the configured program, blocking until it exits or a limit
// is tripped. Returns true iff the child exited normally within both
// caps. Calling Run again after Finished returns the cached result.
func (s *Single) Run(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.state == Finished {
		report := s.report
		s.mu.Unlock()
		return report.ExitStatus == "exited", nil
	}
	s.state = Running
	spec := s.spec
	s.mu.Unlock()

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.TimeLimitMs > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(spec.TimeLimitMs)*time.Millisecond)
		defer cancel()
	}

	cmd := exec.Command(spec.ProgramPath, spec.Args...)
	cmd.Env = []string{} // the child inherits only what the sandbox interface grants it

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = sysProcAttr(spec)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		report := Report{ExitStatus: "error", Stderr: []byte(err.Error())}
		s.finish(report)
		return false, &errs.SubprocessFailure{Argv: append([]string{spec.ProgramPath}, spec.Args...), ExitCode: -1, Message: err.Error()}
	}

	applyMemoryLimit(cmd.Process.Pid, spec.MemoryLimitBytes)

	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	var waitErr error
	var timedOut bool
	select {
	case waitErr = <-waitDone:
	case <-runCtx.Done():
		timedOut = true
		_ = cmd.Process.Kill()
		<-waitDone
	}
	elapsed := time.Since(start)

	report := Report{
		TimeUsedMs: elapsed.Milliseconds(),
		Stdout:     stdout.Bytes(),
		Stderr:     stderr.Bytes(),
	}
	if cmd.ProcessState != nil {
		if usage, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage); ok {
			report.MemoryUsedBytes = usage.Maxrss * 1024 // Maxrss is in KB on Linux
		}
	}

	switch {
	case timedOut:
		report.ExitStatus = "time_exceeded"
	case spec.MemoryLimitBytes > 0 && report.MemoryUsedBytes > spec.MemoryLimitBytes:
		report.ExitStatus = "memory_exceeded"
	case waitErr == nil:
		report.ExitStatus = "exited"
	default:
		report.ExitStatus = "error"
	}

	s.finish(report)

	if timedOut {
		return false, &errs.ResourceExceeded{Resource: "time", Limit: spec.TimeLimitMs, Used: report.TimeUsedMs}
	}
	if report.ExitStatus == "memory_exceeded" {
		return false, &errs.ResourceExceeded{Resource: "memory", Limit: spec.MemoryLimitBytes, Used: report.MemoryUsedBytes}
	}
	return report.ExitStatus == "exited", nil
}

func (s *Single) finish(report Report) {
	s.mu.Lock()
	s.report = report
	s.state = Finished
	s.mu.Unlock()
}

// TimeUsedMs is only meaningful once the sandbox has reached Finished.
func (s *Single) TimeUsedMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report.TimeUsedMs
}

// MemoryUsedBytes is only meaningful once the sandbox has reached Finished.
func (s *Single) MemoryUsedBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report.MemoryUsedBytes
}

// Report returns a copy of the sandbox's report; zero-valued before
// Finished.
func (s *Single) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

func sysProcAttr(spec Spec) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{}
	if spec.RootDir != "" {
		attr.Chroot = spec.RootDir
	}
	if spec.UserID != nil {
		attr.Credential = &syscall.Credential{Uid: *spec.UserID, Gid: *spec.UserID}
	}
	return attr
}
