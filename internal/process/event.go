// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package process

import (
	"strconv"

	"golang.org/x/sys/unix"
)

// EventKind is the type of an [Event].
type EventKind int

const (
	// EventOutput carries a chunk of terminal output.
	EventOutput EventKind = iota
	// EventExit is the last event of a process. It carries the
	// [ExitStatus].
	EventExit
)

// String implements [fmt.Stringer].
func (k EventKind) String() string {
	switch k {
	case EventOutput:
		return "output"
	case EventExit:
		return "exit"
	default:
		return "event(" + strconv.Itoa(int(k)) + ")"
	}
}

// Event is a single notification from a running [Process].
type Event struct {
	Kind EventKind

	// Data read from the terminal. Only set for [EventOutput]. The slice is
	// owned by the receiver.
	Data []byte

	// Status of the terminated process. Only set for [EventExit].
	Status ExitStatus
}

// OutputEvent returns an [EventOutput] with the given data.
func OutputEvent(data []byte) Event {
	return Event{Kind: EventOutput, Data: data}
}

// ExitEvent returns an [EventExit] with the given status.
func ExitEvent(status ExitStatus) Event {
	return Event{Kind: EventExit, Status: status}
}

// ExitStatus describes how a process terminated.
type ExitStatus struct {
	// Code is the exit code. It is -1 if the process was terminated by a
	// signal.
	Code int

	// Signal that terminated the process. 0 if the process exited on its
	// own.
	Signal unix.Signal
}

// Signaled returns true if the process was terminated by a signal.
func (s ExitStatus) Signaled() bool {
	return s.Signal != 0
}

// SignalName returns the name of the terminating signal, like "SIGKILL", or
// an empty string if the process was not terminated by a signal.
func (s ExitStatus) SignalName() string {
	if !s.Signaled() {
		return ""
	}

	name := unix.SignalName(s.Signal)
	if name == "" {
		name = "signal " + strconv.Itoa(int(s.Signal))
	}

	return name
}

// String implements [fmt.Stringer].
func (s ExitStatus) String() string {
	if s.Signaled() {
		return "killed by " + s.SignalName()
	}

	return "exit code " + strconv.Itoa(s.Code)
}
