// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package boot_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aibor/vmprovision/internal/boot"
	"github.com/aibor/vmprovision/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const (
	testKey     = "0123456789abcdefXYZ\n"
	loginPrompt = "login: "
	shellPrompt = "root@freebsd:~ # "
)

// fakeHandle replays scripted events. Writes are recorded and may trigger
// further events by the onWrite hook. Kill closes the event channel like a
// real process does after it terminated.
type fakeHandle struct {
	events  chan process.Event
	writes  []string
	killed  []unix.Signal
	closed  bool
	onWrite func(h *fakeHandle, data string)
	err     error
}

func newFakeHandle(events ...process.Event) *fakeHandle {
	h := &fakeHandle{
		events: make(chan process.Event, 64),
	}
	for _, event := range events {
		h.events <- event
	}

	return h
}

func (h *fakeHandle) Events() <-chan process.Event {
	return h.events
}

func (h *fakeHandle) Write(data []byte) (int, error) {
	if h.err != nil {
		return 0, h.err
	}

	h.writes = append(h.writes, string(data))
	if h.onWrite != nil {
		h.onWrite(h, string(data))
	}

	return len(data), nil
}

func (h *fakeHandle) Kill(sig unix.Signal) error {
	h.killed = append(h.killed, sig)
	if !h.closed {
		h.closed = true
		close(h.events)
	}

	return nil
}

func (h *fakeHandle) push(events ...process.Event) {
	for _, event := range events {
		h.events <- event
	}
}

func output(s string) process.Event {
	return process.OutputEvent([]byte(s))
}

func exit(code int) process.Event {
	return process.ExitEvent(process.ExitStatus{Code: code})
}

func writeKey(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "id_ed25519.pub")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func testConfig(t *testing.T) boot.Config {
	t.Helper()

	cfg := boot.DefaultConfig()
	cfg.PublicKeyPath = writeKey(t, testKey)
	cfg.Dialogue.SettleDelay = time.Millisecond
	cfg.Dialogue.PieceBits = 64
	cfg.Dialogue.PieceDelay = 0

	return cfg
}

func provisioningWrites() []string {
	return []string{
		boot.DefaultCommand + "\n",
		"01234567",
		"89abcdef",
		"XYZ\n",
		boot.DefaultTerminator,
	}
}

// exitOnTerminator terminates the fake process once the dialogue is sent
// completely. Earlier exit events would be consumed during the delays.
func exitOnTerminator(h *fakeHandle, data string) {
	if data == boot.DefaultTerminator {
		h.push(exit(0))
	}
}

func runSession(t *testing.T, handle *fakeHandle, cfg boot.Config) (*boot.Session, error) {
	t.Helper()

	session, err := boot.New(handle, cfg)
	require.NoError(t, err)

	return session, session.Run(context.Background())
}

func TestSessionLogin(t *testing.T) {
	handle := newFakeHandle(
		output("Booting...\n"),
		output(loginPrompt),
		exit(0),
	)

	session, err := runSession(t, handle, testConfig(t))

	var exitErr *boot.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.ErrorIs(t, err, boot.ErrProcessExited)
	assert.Equal(t, boot.StageAwaitingLogin, exitErr.Stage)
	assert.Equal(t, []string{"root\n"}, handle.writes)
	assert.False(t, session.Provisioned())
	assert.Equal(t, boot.StageAwaitingLogin, session.Stage())
}

func TestSessionLoginSplitPrompt(t *testing.T) {
	handle := newFakeHandle(
		output("Booting...\r\nlog"),
		output("in"),
		output(": "),
		exit(0),
	)

	_, err := runSession(t, handle, testConfig(t))

	require.ErrorIs(t, err, boot.ErrProcessExited)
	assert.Equal(t, []string{"root\n"}, handle.writes)
}

func TestSessionEmptyChunk(t *testing.T) {
	handle := newFakeHandle(
		output(loginPrompt),
		output(""),
		exit(0),
	)

	_, err := runSession(t, handle, testConfig(t))

	require.ErrorIs(t, err, boot.ErrProcessExited)
	assert.Equal(t, []string{"root\n"}, handle.writes)
}

func TestSessionCustomUsername(t *testing.T) {
	cfg := testConfig(t)
	cfg.Username = "admin"

	handle := newFakeHandle(output(loginPrompt), exit(0))

	_, err := runSession(t, handle, cfg)

	require.ErrorIs(t, err, boot.ErrProcessExited)
	assert.Equal(t, []string{"admin\n"}, handle.writes)
}

func TestSessionProvision(t *testing.T) {
	handle := newFakeHandle(
		output("Booting...\n"),
		output(loginPrompt),
		output("root\r\n"),
		output("Welcome to FreeBSD!\r\n"),
		output(shellPrompt),
	)
	handle.onWrite = exitOnTerminator

	session, err := runSession(t, handle, testConfig(t))

	var exitErr *boot.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, boot.StageReady, exitErr.Stage)
	assert.Equal(t, append([]string{"root\n"}, provisioningWrites()...), handle.writes)
	assert.True(t, session.Provisioned())
	assert.Equal(t, boot.StageReady, session.Stage())
	assert.Equal(t, []unix.Signal{unix.SIGKILL}, handle.killed)

	select {
	case <-session.Ready():
	default:
		t.Fatal("ready channel not closed")
	}

	status, ok := session.ExitStatus()
	require.True(t, ok)
	assert.Equal(t, 0, status.Code)
}

func TestSessionProvisionOnce(t *testing.T) {
	handle := newFakeHandle(
		output(shellPrompt),
		output("\r\n"+shellPrompt),
		output("\r\n"+shellPrompt),
		output("\r\n"+loginPrompt),
	)
	handle.onWrite = exitOnTerminator

	_, err := runSession(t, handle, testConfig(t))

	require.ErrorIs(t, err, boot.ErrProcessExited)
	assert.Equal(t, provisioningWrites(), handle.writes)
}

func TestSessionExitDuringSettleDelay(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dialogue.SettleDelay = time.Hour

	handle := newFakeHandle(output(shellPrompt))
	handle.onWrite = func(h *fakeHandle, data string) {
		if data == boot.DefaultCommand+"\n" {
			h.push(process.ExitEvent(process.ExitStatus{
				Code:   -1,
				Signal: unix.SIGTERM,
			}))
		}
	}

	session, err := runSession(t, handle, cfg)

	var exitErr *boot.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, boot.StageProvisioning, exitErr.Stage)
	assert.Equal(t, unix.SIGTERM, exitErr.Status.Signal)
	assert.Equal(t, []string{boot.DefaultCommand + "\n"}, handle.writes)
	assert.True(t, session.Provisioned())
}

func TestSessionExitBetweenPieces(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dialogue.PieceDelay = time.Hour

	handle := newFakeHandle(output(shellPrompt))
	handle.onWrite = func(h *fakeHandle, data string) {
		if data == "01234567" {
			h.push(exit(1))
		}
	}

	_, err := runSession(t, handle, cfg)

	var exitErr *boot.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Status.Code)
	assert.Equal(t, []string{boot.DefaultCommand + "\n", "01234567"}, handle.writes)
}

func TestSessionOutputDuringDialogue(t *testing.T) {
	var transcript bytes.Buffer

	cfg := testConfig(t)
	cfg.Transcript = &transcript

	handle := newFakeHandle(output(shellPrompt))
	handle.onWrite = func(h *fakeHandle, data string) {
		switch data {
		case boot.DefaultCommand + "\n":
			h.push(output("> "))
		case boot.DefaultTerminator:
			h.push(output("\r\n"+shellPrompt), exit(0))
		}
	}

	session, err := runSession(t, handle, cfg)

	require.ErrorIs(t, err, boot.ErrProcessExited)
	assert.Equal(t, provisioningWrites(), handle.writes)
	assert.Equal(t, boot.StageReady, session.Stage())
	assert.Equal(t, shellPrompt+"> \r\n"+shellPrompt, transcript.String())
}

func TestSessionWriteAfterExit(t *testing.T) {
	handle := newFakeHandle(output(loginPrompt), exit(0))
	handle.err = process.ErrProcessExited

	_, err := runSession(t, handle, testConfig(t))

	var exitErr *boot.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 0, exitErr.Status.Code)
	assert.Empty(t, handle.writes)
}

func TestSessionEventsClosedWithoutExit(t *testing.T) {
	handle := newFakeHandle(output("Booting...\n"))
	handle.closed = true
	close(handle.events)

	session, err := runSession(t, handle, testConfig(t))

	require.ErrorIs(t, err, boot.ErrProcessExited)

	status, ok := session.ExitStatus()
	require.True(t, ok)
	assert.Equal(t, -1, status.Code)
}

func TestSessionContextCancelled(t *testing.T) {
	handle := newFakeHandle()

	session, err := boot.New(handle, testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = session.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []unix.Signal{unix.SIGKILL}, handle.killed)
	assert.Empty(t, handle.writes)

	_, ok := session.ExitStatus()
	assert.False(t, ok)
}

func TestSessionPublicKeyRemoved(t *testing.T) {
	cfg := testConfig(t)

	handle := newFakeHandle(output(shellPrompt))
	handle.onWrite = func(_ *fakeHandle, data string) {
		if data == boot.DefaultCommand+"\n" {
			require.NoError(t, os.Remove(cfg.PublicKeyPath))
		}
	}

	_, err := runSession(t, handle, cfg)

	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, []string{boot.DefaultCommand + "\n"}, handle.writes)
}

func TestSessionPublicKeyInvalidUTF8(t *testing.T) {
	cfg := testConfig(t)
	cfg.PublicKeyPath = writeKey(t, "ssh-ed25519 \xff\xfe")

	handle := newFakeHandle(output(shellPrompt))

	_, err := runSession(t, handle, cfg)

	require.ErrorContains(t, err, "not valid UTF-8")
	assert.Equal(t, []string{boot.DefaultCommand + "\n"}, handle.writes)
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Username = ""

	handle := newFakeHandle()

	_, err := boot.New(handle, cfg)

	require.ErrorIs(t, err, &boot.ConfigError{})
	assert.Empty(t, handle.killed)
}
