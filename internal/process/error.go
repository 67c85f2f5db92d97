// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package process

import (
	"errors"
	"fmt"
)

// ErrProcessExited is returned for operations that require a running process
// after the process terminated. Nothing has been done in that case.
var ErrProcessExited = errors.New("process exited")

// StartError is returned if the process could not be started.
type StartError struct {
	Executable string
	Err        error
}

// Error implements the [error] interface.
func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Executable, e.Err)
}

// Is implements the [errors.Is] interface.
func (*StartError) Is(other error) bool {
	_, ok := other.(*StartError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *StartError) Unwrap() error {
	return e.Err
}
