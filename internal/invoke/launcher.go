package invoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	behaverrors "github.com/jimasp/behave-vsc-sub002/internal/errors"
)

// Exit describes a finished runner process.
type Exit struct {
	Code int
	// Output is the combined stdout and stderr text.
	Output string
}

// Process is a started runner process.
type Process interface {
	// Wait blocks until the process exits.
	Wait() (*Exit, error)
}

// Launcher starts runner processes. Processes are not tied to the context's
// cancellation: once started they run to completion.
type Launcher interface {
	Start(ctx context.Context, inv *Invocation) (Process, error)
}

// ExecLauncher launches invocations as local processes.
type ExecLauncher struct {
	// Stdout and Stderr receive a copy of the process output when set.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecLauncher creates a launcher that discards live output.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{}
}

// Start starts the invocation. The process environment is the current
// environment with the invocation's environment applied on top.
func (l *ExecLauncher) Start(ctx context.Context, inv *Invocation) (Process, error) {
	if _, err := exec.LookPath(inv.Program); err != nil {
		return nil, behaverrors.Environmentf("%s not found: %v", inv.Program, err)
	}

	cmd := exec.CommandContext(context.WithoutCancel(ctx), inv.Program, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = MergeEnviron(os.Environ(), inv.Env)

	buf := &syncBuffer{}
	cmd.Stdout = tee(buf, l.Stdout)
	cmd.Stderr = tee(buf, l.Stderr)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", inv.Program, err)
	}
	return &execProcess{cmd: cmd, output: buf}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	output *syncBuffer
}

func (p *execProcess) Wait() (*Exit, error) {
	err := p.cmd.Wait()
	exit := &Exit{Output: p.output.String()}
	if err == nil {
		return exit, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exit.Code = exitErr.ExitCode()
		return exit, nil
	}
	return exit, err
}

// MergeEnviron applies env on top of a KEY=value environment list. Keys in
// env replace existing entries. The result is sorted by key for env and
// keeps environ order otherwise.
func MergeEnviron(environ []string, env map[string]string) []string {
	out := make([]string, 0, len(environ)+len(env))
	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if _, override := env[key]; override {
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func tee(buf io.Writer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// syncBuffer is a bytes.Buffer safe for the concurrent stdout and stderr
// copies made by exec.Cmd.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
