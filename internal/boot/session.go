// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package boot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/aibor/vmprovision/internal/console"
	"github.com/aibor/vmprovision/internal/process"
	"github.com/aibor/vmprovision/internal/sys"
	"golang.org/x/sys/unix"
)

var errInvalidPublicKey = errors.New("public key is not valid UTF-8")

// Handle is the running guest process a [Session] drives. It is implemented
// by [process.Process].
type Handle interface {
	// Events returns the output and exit events of the process. The channel
	// is closed after the exit event.
	Events() <-chan process.Event
	// Write sends data to the console of the process.
	Write(data []byte) (int, error)
	// Kill sends the given signal to the process.
	Kill(sig unix.Signal) error
}

type transition struct {
	stage  Stage
	prompt console.Prompt
}

type action func(s *Session, ctx context.Context) error

// transitions maps the stage and the classified prompt to the action to run.
// Combinations not present are ignored.
var transitions = map[transition]action{
	{StageAwaitingLogin, console.PromptLogin}: (*Session).login,
	{StageAwaitingLogin, console.PromptShell}: (*Session).provision,
}

// Session drives a booting guest over its console: it logs in on the login
// prompt and sends the provisioning dialogue on the first shell prompt.
//
// A Session owns its [Handle]. [Session.Run] is the only consumer of its
// events and the only writer to it.
type Session struct {
	handle        Handle
	cfg           Config
	publicKeyPath string
	transcript    io.Writer

	lines   console.LineBuffer
	backlog []process.Event

	stage       atomic.Int32
	provisioned atomic.Bool
	ready       chan struct{}

	exitStatus *process.ExitStatus
}

// New creates a new [Session] for the given process handle. The config is
// validated first. On error, the handle is left untouched.
func New(handle Handle, cfg Config) (*Session, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	publicKeyPath, err := sys.AbsolutePath(cfg.PublicKeyPath)
	if err != nil {
		return nil, &ConfigError{"public key", err}
	}

	transcript := cfg.Transcript
	if transcript == nil {
		transcript = io.Discard
	}

	session := &Session{
		handle:        handle,
		cfg:           cfg,
		publicKeyPath: publicKeyPath,
		transcript:    transcript,
		ready:         make(chan struct{}),
	}
	session.stage.Store(int32(StageAwaitingLogin))

	return session, nil
}

// Stage returns the current stage.
func (s *Session) Stage() Stage {
	return Stage(s.stage.Load())
}

// Provisioned returns true once the provisioning dialogue has started. It
// never goes back to false.
func (s *Session) Provisioned() bool {
	return s.provisioned.Load()
}

// Ready returns a channel that is closed once the provisioning dialogue has
// been sent completely.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// ExitStatus returns the exit status of the process, if it has terminated.
// Must not be called before [Session.Run] returned.
func (s *Session) ExitStatus() (process.ExitStatus, bool) {
	if s.exitStatus == nil {
		return process.ExitStatus{}, false
	}

	return *s.exitStatus, true
}

// Run processes the events of the process until it terminates or the
// context is cancelled.
//
// It returns an [ExitError] if the process terminated and the context error
// if the context is cancelled. In any case the process is killed before Run
// returns.
func (s *Session) Run(ctx context.Context) error {
	defer s.release()

	slog.Debug("Session started", slog.String("stage", s.Stage().String()))

	for {
		// Output received while the dialogue was in progress is handled in
		// order before new events are read.
		for len(s.backlog) > 0 {
			event := s.backlog[0]
			s.backlog = s.backlog[1:]

			err := s.onOutput(ctx, event.Data)
			if err != nil {
				return s.abort(ctx, err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-s.handle.Events():
			if !ok {
				return s.exited(process.ExitStatus{Code: -1})
			}

			err := s.handleEvent(ctx, event)
			if err != nil {
				return s.abort(ctx, err)
			}
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, event process.Event) error {
	switch event.Kind {
	case process.EventExit:
		return s.exited(event.Status)
	case process.EventOutput:
		s.mirror(event.Data)
		return s.onOutput(ctx, event.Data)
	default:
		return nil
	}
}

func (s *Session) onOutput(ctx context.Context, chunk []byte) error {
	line, changed := s.lines.Append(chunk)
	if !changed {
		return nil
	}

	prompt := s.cfg.Prompts.Classify(line)
	if prompt == console.PromptNone {
		return nil
	}

	stage := s.Stage()

	slog.Debug("Prompt detected",
		slog.String("prompt", prompt.String()),
		slog.String("stage", stage.String()),
	)

	act, exists := transitions[transition{stage, prompt}]
	if !exists {
		return nil
	}

	return act(s, ctx)
}

func (s *Session) login(_ context.Context) error {
	slog.Info("Logging in", slog.String("username", s.cfg.Username))

	return s.write(s.cfg.Username + "\n")
}

func (s *Session) provision(ctx context.Context) error {
	if s.provisioned.Swap(true) {
		return nil
	}

	s.setStage(StageProvisioning)
	slog.Info("Provisioning public key", slog.String("path", s.publicKeyPath))

	dialogue := s.cfg.Dialogue

	err := s.write(dialogue.Command + "\n")
	if err != nil {
		return err
	}

	err = s.wait(ctx, dialogue.SettleDelay)
	if err != nil {
		return err
	}

	publicKey, err := os.ReadFile(s.publicKeyPath)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}

	if !utf8.Valid(publicKey) {
		return fmt.Errorf("%w: %s", errInvalidPublicKey, s.publicKeyPath)
	}

	writer := console.ChunkWriter{
		Writer:    s.handle,
		PieceBits: dialogue.PieceBits,
		Delay:     dialogue.PieceDelay,
		Sleep:     s.wait,
	}

	err = writer.WriteChunked(ctx, publicKey)
	if err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	err = s.write(dialogue.Terminator)
	if err != nil {
		return err
	}

	s.setStage(StageReady)
	close(s.ready)

	slog.Info("Guest provisioned")

	return nil
}

// wait waits for the given duration while still consuming events. Output is
// mirrored and kept for later processing. If the process exits, wait returns
// an [ExitError] immediately.
func (s *Session) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case event, ok := <-s.handle.Events():
			if !ok {
				return s.exited(process.ExitStatus{Code: -1})
			}

			if event.Kind == process.EventExit {
				return s.exited(event.Status)
			}

			s.mirror(event.Data)
			s.backlog = append(s.backlog, event)
		}
	}
}

func (s *Session) write(data string) error {
	_, err := s.handle.Write([]byte(data))
	if err != nil {
		return fmt.Errorf("write console: %w", err)
	}

	return nil
}

func (s *Session) mirror(data []byte) {
	_, err := s.transcript.Write(data)
	if err != nil {
		slog.Debug("Mirror console output", slog.Any("error", err))
	}
}

func (s *Session) setStage(stage Stage) {
	s.stage.Store(int32(stage))
	slog.Info("Stage changed", slog.String("stage", stage.String()))
}

func (s *Session) exited(status process.ExitStatus) error {
	s.exitStatus = &status

	attrs := []any{
		slog.Int("exit_code", status.Code),
		slog.String("stage", s.Stage().String()),
	}
	if status.Signaled() {
		attrs = append(attrs, slog.String("signal", status.SignalName()))
	}

	if status.Code != 0 || status.Signaled() {
		slog.Warn("Guest terminated", attrs...)
	} else {
		slog.Info("Guest terminated", attrs...)
	}

	return &ExitError{
		Status: status,
		Stage:  s.Stage(),
	}
}

// abort turns a failed console write caused by the process going away into
// an [ExitError] by waiting for the exit event.
func (s *Session) abort(ctx context.Context, err error) error {
	if !errors.Is(err, process.ErrProcessExited) {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-s.handle.Events():
			if !ok {
				return s.exited(process.ExitStatus{Code: -1})
			}

			if event.Kind == process.EventExit {
				return s.exited(event.Status)
			}

			s.mirror(event.Data)
		}
	}
}

// release kills the process and drains its events until the channel is
// closed.
func (s *Session) release() {
	err := s.handle.Kill(unix.SIGKILL)
	if err != nil {
		slog.Debug("Kill process", slog.Any("error", err))
	}

	for event := range s.handle.Events() {
		if event.Kind == process.EventOutput {
			s.mirror(event.Data)
		}
	}
}
