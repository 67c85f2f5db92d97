// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package boot

import (
	"errors"
	"fmt"

	"github.com/aibor/vmprovision/internal/process"
)

// ErrProcessExited is wrapped by [ExitError].
var ErrProcessExited = errors.New("process exited")

// ConfigError indicates an invalid [Config]. No session is created.
type ConfigError struct {
	Field string
	Err   error
}

// Error implements the [error] interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

// Is implements the [errors.Is] interface.
func (*ConfigError) Is(other error) bool {
	_, ok := other.(*ConfigError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExitError is returned by [Session.Run] if the process terminated. It
// carries the stage the session was in.
type ExitError struct {
	Status process.ExitStatus
	Stage  Stage
}

// Error implements the [error] interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%v in stage %s: %s", ErrProcessExited, e.Stage, e.Status)
}

// Is implements the [errors.Is] interface.
func (*ExitError) Is(other error) bool {
	_, ok := other.(*ExitError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (*ExitError) Unwrap() error {
	return ErrProcessExited
}
