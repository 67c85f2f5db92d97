// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package process_test

import (
	"testing"

	"github.com/aibor/vmprovision/internal/process"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestExitStatusString(t *testing.T) {
	tests := []struct {
		name     string
		status   process.ExitStatus
		expected string
	}{
		{
			name:     "success",
			status:   process.ExitStatus{},
			expected: "exit code 0",
		},
		{
			name:     "failure",
			status:   process.ExitStatus{Code: 1},
			expected: "exit code 1",
		},
		{
			name:     "killed",
			status:   process.ExitStatus{Code: -1, Signal: unix.SIGKILL},
			expected: "killed by SIGKILL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestEventConstructors(t *testing.T) {
	output := process.OutputEvent([]byte("login: "))
	assert.Equal(t, process.EventOutput, output.Kind)
	assert.Equal(t, []byte("login: "), output.Data)

	exit := process.ExitEvent(process.ExitStatus{Code: 1})
	assert.Equal(t, process.EventExit, exit.Kind)
	assert.Equal(t, 1, exit.Status.Code)

	assert.Equal(t, "output", process.EventOutput.String())
	assert.Equal(t, "exit", process.EventExit.String())
	assert.Equal(t, "event(9)", process.EventKind(9).String())
}
