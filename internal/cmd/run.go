// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/aibor/vmprovision/internal/boot"
	"github.com/aibor/vmprovision/internal/process"
	"github.com/aibor/vmprovision/internal/sys"
	"golang.org/x/sys/unix"
)

// IO provides output details for the command.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
}

func loadFlags(args []string, cfg IO) (*flags, error) {
	err := LoadDotEnv(dotEnvFile)
	if err != nil {
		return nil, err
	}

	args, err = MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		args = args[1:]
	}

	flags, err := parseArgs(args, cfg.Stderr)
	if err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	return flags, nil
}

func startQemu(ctx context.Context, flags *flags) (*process.Process, error) {
	qemuSpec := flags.qemuSpec()

	err := qemuSpec.AddDefaultsFor(flags.Arch)
	if err != nil {
		return nil, fmt.Errorf("qemu defaults: %w", err)
	}

	err = qemuSpec.Validate()
	if err != nil {
		return nil, fmt.Errorf("qemu spec: %w", err)
	}

	err = sys.ValidateReadable(qemuSpec.Image)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	args, err := qemuSpec.Arguments()
	if err != nil {
		return nil, fmt.Errorf("qemu args: %w", err)
	}

	slog.Debug("QEMU command",
		slog.String("executable", qemuSpec.Executable),
		slog.Any("args", args),
	)

	proc, err := process.Start(ctx, process.Spec{
		Executable: qemuSpec.Executable,
		Args:       args,
	})
	if err != nil {
		return nil, fmt.Errorf("qemu: %w", err)
	}

	return proc, nil
}

func run(ctx context.Context, flags *flags, cfg IO) error {
	bootCfg := flags.bootConfig(cfg.Stdout)

	// Fail before anything is started.
	err := bootCfg.Validate()
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	proc, err := startQemu(ctx, flags)
	if err != nil {
		return err
	}

	slog.Debug("QEMU started", slog.Int("pid", proc.Pid()))

	session, err := boot.New(proc, bootCfg)
	if err != nil {
		_ = proc.Kill(unix.SIGKILL)

		for range proc.Events() {
			// Drain until closed.
		}

		return fmt.Errorf("new session: %w", err)
	}

	err = session.Run(ctx)

	waitErr := proc.Wait()
	if waitErr != nil {
		slog.Warn("QEMU process", slog.Any("error", waitErr))
	}

	return err
}

func handleParseArgsError(err error) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

func handleRunError(err error) int {
	if err == nil {
		return 0
	}

	// Cancelled by signal. The guest has been stopped as requested.
	if errors.Is(err, context.Canceled) {
		slog.Info("Stopped", slog.Any("reason", err))
		return 0
	}

	var exitErr *boot.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Status.Signaled() {
			slog.Error(err.Error())
			return -1
		}

		if exitErr.Status.Code != 0 {
			slog.Error(err.Error())
		}

		return exitErr.Status.Code
	}

	slog.Error(err.Error())

	return -1
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr, slog.LevelWarn)

	flags, err := loadFlags(args, cfg)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.logLevel())

	if flags.Version {
		buildInfo, err := getBuildInfo()
		if err != nil {
			slog.Error(err.Error())
			return -1
		}

		fmt.Fprintf(cfg.Stdout, "Version: %s\n", buildInfo.Main.Version)

		return 0
	}

	return handleRunError(run(ctx, flags, cfg))
}

func getBuildInfo() (*debug.BuildInfo, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, ErrReadBuildInfo
	}

	return buildInfo, nil
}
