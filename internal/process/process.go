// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	infinity "github.com/Code-Hex/go-infinity-channel"
	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

const (
	// DefaultRows is the terminal height used if none is given.
	DefaultRows = 24
	// DefaultCols is the terminal width used if none is given.
	DefaultCols = 80

	readBufferSize = 32 * 1024
)

// Spec defines the command to run.
type Spec struct {
	// Executable to run. Looked up in PATH if it does not contain a path
	// separator.
	Executable string

	// Args are passed to the executable.
	Args []string

	// Env of the process. The environment of the current process is used if
	// nil.
	Env []string

	// Dir is the working directory. The current one is used if empty.
	Dir string

	// Terminal size. [DefaultRows] and [DefaultCols] are used if 0.
	Rows uint16
	Cols uint16
}

// Process is a running command attached to a pseudo-terminal.
//
// Output read from the terminal and the final exit notification are delivered
// on [Process.Events] in the order they happened.
type Process struct {
	cmd    *exec.Cmd
	pty    *os.File
	events *infinity.Channel[Event]
	group  errgroup.Group

	// exited is closed once the process has been waited for. status is
	// valid afterwards.
	exited chan struct{}
	status ExitStatus

	// done is closed once all goroutines are finished and the events
	// channel is closed. err is valid afterwards.
	done chan struct{}
	err  error
}

// Start runs the command described by the given [Spec] attached to a new
// pseudo-terminal.
//
// The process is killed if the context is done before it exits. A
// [StartError] is returned if the process can not be started.
func Start(ctx context.Context, spec Spec) (*Process, error) {
	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir

	size := &pty.Winsize{
		Rows: spec.Rows,
		Cols: spec.Cols,
	}
	if size.Rows == 0 {
		size.Rows = DefaultRows
	}

	if size.Cols == 0 {
		size.Cols = DefaultCols
	}

	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return nil, &StartError{Executable: spec.Executable, Err: err}
	}

	proc := &Process{
		cmd:    cmd,
		pty:    ptmx,
		events: infinity.NewChannel[Event](),
		exited: make(chan struct{}),
		done:   make(chan struct{}),
	}

	proc.group.Go(proc.pump)
	proc.group.Go(proc.wait)

	go proc.finish()

	return proc, nil
}

// Pid returns the process ID.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Events returns the channel the process' [Event]s are delivered on. The last
// event is always an [EventExit]. The channel is closed afterwards.
//
// The channel must be drained until closed, even if the events are not of
// interest anymore.
func (p *Process) Events() <-chan Event {
	return p.events.Out()
}

// Write writes the data to the terminal.
//
// It returns [ErrProcessExited] without writing anything if the process has
// terminated already.
func (p *Process) Write(data []byte) (int, error) {
	select {
	case <-p.exited:
		return 0, ErrProcessExited
	default:
	}

	n, err := p.pty.Write(data)
	if err != nil {
		if errors.Is(err, os.ErrClosed) || p.hasExited() {
			return n, ErrProcessExited
		}

		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// Kill sends the given signal to the process. It is a no-op if the process
// has terminated already, so it is safe to call multiple times.
func (p *Process) Kill(sig unix.Signal) error {
	if p.hasExited() {
		return nil
	}

	err := p.cmd.Process.Signal(sig)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal %s: %w", unix.SignalName(sig), err)
	}

	return nil
}

// Wait waits until the process terminated and all output has been read. It
// returns errors that occurred while reading from the terminal or waiting for
// the process. A non-zero exit is not considered an error, use the
// [EventExit] for the [ExitStatus].
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

func (p *Process) hasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// pump copies the terminal output into the event queue until the terminal is
// closed on the child's side.
func (p *Process) pump() error {
	buf := make([]byte, readBufferSize)

	for {
		n, err := p.pty.Read(buf)
		if n > 0 {
			p.events.In() <- OutputEvent(bytes.Clone(buf[:n]))
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF),
			errors.Is(err, os.ErrClosed),
			// Linux returns EIO once the last file descriptor of the
			// terminal's child side is closed.
			errors.Is(err, unix.EIO):
			return nil
		default:
			return fmt.Errorf("read terminal: %w", err)
		}
	}
}

func (p *Process) wait() error {
	defer close(p.exited)

	err := p.cmd.Wait()
	p.status = exitStatus(p.cmd.ProcessState)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("wait: %w", err)
	}

	return nil
}

func (p *Process) finish() {
	p.err = p.group.Wait()
	_ = p.pty.Close()

	p.events.In() <- ExitEvent(p.status)
	p.events.Close()

	close(p.done)
}

func exitStatus(state *os.ProcessState) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}

	status := ExitStatus{Code: state.ExitCode()}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = ws.Signal()
	}

	return status
}
