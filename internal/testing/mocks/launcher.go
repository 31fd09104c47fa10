// Package mocks provides shared test doubles for behaverun packages.
package mocks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jimasp/behave-vsc-sub002/internal/invoke"
	"github.com/jimasp/behave-vsc-sub002/internal/junit"
)

// Launcher implements invoke.Launcher for testing. Every started process
// writes the configured JUnit suites into the invocation's JUnit directory
// when it exits. Use NewLauncher() to create instances with a fluent
// builder API.
type Launcher struct {
	suites     map[string]*junit.TestSuite
	order      []string
	exitCode   int
	output     string
	startErr   error
	delay      time.Duration
	writeDelay time.Duration
	noResults  bool

	// StartFunc is called by Start before anything else. A non-nil error
	// fails the start.
	StartFunc func(ctx context.Context, inv *invoke.Invocation) error

	// Call tracking (thread-safe)
	startCount  int32
	running     int32
	maxRunning  int32
	mu          sync.Mutex
	invocations []*invoke.Invocation
}

// NewLauncher creates a launcher whose processes exit with code 0 and
// write no test cases.
func NewLauncher() *Launcher {
	return &Launcher{suites: make(map[string]*junit.TestSuite)}
}

// WithCase adds a test case to the suite of a JUnit feature name.
func (m *Launcher) WithCase(feature, className, name, status string) *Launcher {
	return m.withCase(feature, junit.TestCase{ClassName: className, Name: name, Status: status, Time: 0.1})
}

// WithFailedCase adds a failed test case with an assertion message.
func (m *Launcher) WithFailedCase(feature, className, name, message string) *Launcher {
	return m.withCase(feature, junit.TestCase{
		ClassName: className,
		Name:      name,
		Status:    junit.StatusFailed,
		Time:      0.1,
		Failures:  []junit.Reason{{Type: "AssertionError", Message: message, Text: "Assertion Failed: " + message}},
	})
}

func (m *Launcher) withCase(feature string, tc junit.TestCase) *Launcher {
	suite, ok := m.suites[feature]
	if !ok {
		suite = &junit.TestSuite{Name: feature}
		m.suites[feature] = suite
		m.order = append(m.order, feature)
	}
	suite.Cases = append(suite.Cases, tc)
	suite.Tests++
	return m
}

// WithExitCode sets the process exit code.
func (m *Launcher) WithExitCode(code int) *Launcher {
	m.exitCode = code
	return m
}

// WithOutput sets the process console output.
func (m *Launcher) WithOutput(text string) *Launcher {
	m.output = text
	return m
}

// WithStartError makes every Start fail.
func (m *Launcher) WithStartError(err error) *Launcher {
	m.startErr = err
	return m
}

// WithDelay makes every process run for d.
func (m *Launcher) WithDelay(d time.Duration) *Launcher {
	m.delay = d
	return m
}

// WithWriteDelay writes result files d after the process exits.
func (m *Launcher) WithWriteDelay(d time.Duration) *Launcher {
	m.writeDelay = d
	return m
}

// WithoutResults stops processes from writing result files.
func (m *Launcher) WithoutResults() *Launcher {
	m.noResults = true
	return m
}

// Start implements invoke.Launcher.
func (m *Launcher) Start(ctx context.Context, inv *invoke.Invocation) (invoke.Process, error) {
	atomic.AddInt32(&m.startCount, 1)
	m.mu.Lock()
	m.invocations = append(m.invocations, inv)
	m.mu.Unlock()

	if m.StartFunc != nil {
		if err := m.StartFunc(ctx, inv); err != nil {
			return nil, err
		}
	}
	if m.startErr != nil {
		return nil, m.startErr
	}

	n := atomic.AddInt32(&m.running, 1)
	for {
		peak := atomic.LoadInt32(&m.maxRunning)
		if n <= peak || atomic.CompareAndSwapInt32(&m.maxRunning, peak, n) {
			break
		}
	}
	return &process{launcher: m, inv: inv}, nil
}

type process struct {
	launcher *Launcher
	inv      *invoke.Invocation
}

func (p *process) Wait() (*invoke.Exit, error) {
	m := p.launcher
	defer atomic.AddInt32(&m.running, -1)

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if !m.noResults {
		if m.writeDelay > 0 {
			go func() {
				time.Sleep(m.writeDelay)
				_ = m.writeSuites(p.inv.JUnitDir)
			}()
		} else if err := m.writeSuites(p.inv.JUnitDir); err != nil {
			return nil, err
		}
	}
	return &invoke.Exit{Code: m.exitCode, Output: m.output}, nil
}

func (m *Launcher) writeSuites(dir string) error {
	for _, feature := range m.order {
		data, err := junit.Marshal(m.suites[feature])
		if err != nil {
			return err
		}
		// Write then rename so pollers never see a partial file.
		final := filepath.Join(dir, junit.FileName(feature))
		tmp := final + ".tmp"
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			return fmt.Errorf("mock launcher: %w", err)
		}
		if err := os.Rename(tmp, final); err != nil {
			return fmt.Errorf("mock launcher: %w", err)
		}
	}
	return nil
}

// Test inspection methods

// StartCount returns the number of times Start was called.
func (m *Launcher) StartCount() int32 {
	return atomic.LoadInt32(&m.startCount)
}

// MaxConcurrent returns the highest number of processes running at once.
func (m *Launcher) MaxConcurrent() int32 {
	return atomic.LoadInt32(&m.maxRunning)
}

// Invocations returns the started invocations in start order.
func (m *Launcher) Invocations() []*invoke.Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*invoke.Invocation, len(m.invocations))
	copy(result, m.invocations)
	return result
}

// Reset clears call tracking state.
func (m *Launcher) Reset() {
	atomic.StoreInt32(&m.startCount, 0)
	atomic.StoreInt32(&m.maxRunning, 0)
	m.mu.Lock()
	m.invocations = nil
	m.mu.Unlock()
}
