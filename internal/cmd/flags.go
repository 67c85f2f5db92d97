// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aibor/vmprovision/internal/boot"
	"github.com/aibor/vmprovision/internal/console"
	"github.com/aibor/vmprovision/internal/qemu"
	"github.com/aibor/vmprovision/internal/sys"
	"github.com/c2h5oh/datasize"
)

const (
	name = "vmprovision"

	memDefault = 1 * datasize.GB

	smpDefault = 1
	smpMin     = 1
	smpMax     = 64

	pieceBitsMin = 8
	pieceBitsMax = 64 * 1024

	usageMessage = `Usage of 'vmprovision':
    vmprovision [flags...] [-- qemu args...]

Boots the given disk image with QEMU, logs in on the serial console and
installs the given public key for SSH access:
	vmprovision -image=freebsd.qcow2 -publicKey=$HOME/.ssh/id_ed25519.pub

Additional QEMU arguments, like network devices, are passed after "--":
	vmprovision -image=freebsd.qcow2 -publicKey=key.pub -- \
		-netdev user,id=n0,hostfwd=tcp::2222-:22 -device virtio-net,netdev=n0

All vmprovision flags can also be provided via environment variable
VMPROVISION_ARGS, which is also read from a .env file:
	VMPROVISION_ARGS="-image=freebsd.qcow2 -debug" vmprovision

All vmprovision flags can also be provided via file ./.vmprovision-args, with
one argument per line.
`
)

type flags struct {
	QemuBin     string
	Arch        sys.Arch
	Machine     string
	CPUType     string
	BIOSPath    string
	ImagePath   string
	ImageFormat string
	Memory      datasize.ByteSize
	NumCPU      uint64
	NoKVM       bool
	QemuArgs    []qemu.Argument

	PublicKeyPath string
	Username      string
	LoginPrompt   string
	ShellPrompt   string
	Command       string
	Terminator    string
	SettleDelay   time.Duration
	PieceBits     uint64
	PieceDelay    time.Duration

	Quiet   bool
	Debug   bool
	Version bool
}

func newFlags() *flags {
	return &flags{
		Arch:        sys.Native,
		Memory:      memDefault,
		NumCPU:      smpDefault,
		Username:    boot.DefaultUsername,
		LoginPrompt: console.DefaultLoginPrompt,
		ShellPrompt: console.DefaultShellPrompt,
		Command:     boot.DefaultCommand,
		Terminator:  boot.DefaultTerminator,
		SettleDelay: boot.DefaultSettleDelay,
		PieceBits:   console.DefaultPieceBits,
		PieceDelay:  boot.DefaultPieceDelay,
	}
}

// parseArgs parses the given arguments without the program name.
func parseArgs(args []string, output io.Writer) (*flags, error) {
	flags := newFlags()
	flagSet := flags.newFlagSet(output)

	// Parses arguments up to the first one that is not prefixed with a "-" or
	// is "--".
	err := flagSet.Parse(args)
	if err != nil {
		return nil, &ParseArgsError{msg: "flag parse", err: err}
	}

	// With version flag, no other flags are required.
	if flags.Version {
		return flags, nil
	}

	if flags.ImagePath == "" {
		return nil, fail(flagSet, "no image given (use -image)", nil)
	}

	if flags.PublicKeyPath == "" {
		return nil, fail(flagSet, "no public key given (use -publicKey)", nil)
	}

	// All positional arguments are passed to QEMU.
	flags.QemuArgs, err = qemu.ParseArguments(flagSet.Args())
	if err != nil {
		return nil, fail(flagSet, "qemu args", err)
	}

	return flags, nil
}

func (f *flags) newFlagSet(output io.Writer) *flag.FlagSet {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(flagSet.Output(), usageMessage)
		fmt.Fprintln(flagSet.Output(), "\nFlags:")
		flagSet.PrintDefaults()
	}

	flagSet.StringVar(
		&f.QemuBin,
		"qemuBin",
		f.QemuBin,
		"QEMU binary to use (default depends on arch: qemu-system-*)",
	)

	flagSet.Var(
		&f.Arch,
		"arch",
		"guest architecture: amd64, arm64, riscv64",
	)

	flagSet.StringVar(
		&f.Machine,
		"machine",
		f.Machine,
		"QEMU machine type to use (default depends on arch)",
	)

	flagSet.StringVar(
		&f.CPUType,
		"cpu",
		f.CPUType,
		"QEMU CPU type to use (default depends on arch)",
	)

	flagSet.Var(
		(*FilePath)(&f.BIOSPath),
		"bios",
		"path to the firmware to boot with",
	)

	flagSet.Var(
		(*FilePath)(&f.ImagePath),
		"image",
		"path to the disk image to boot",
	)

	flagSet.StringVar(
		&f.ImageFormat,
		"imageFormat",
		f.ImageFormat,
		"format of the disk image (default "+qemu.DefaultImageFormat+")",
	)

	flagSet.TextVar(
		&f.Memory,
		"memory",
		f.Memory,
		"memory for the QEMU VM, like 512MB or 2G",
	)

	flagSet.Var(
		&limitedUintValue{
			Value: &f.NumCPU,
			min:   smpMin,
			max:   smpMax,
		},
		"smp",
		"number of CPUs for the QEMU VM",
	)

	flagSet.BoolVar(
		&f.NoKVM,
		"nokvm",
		f.NoKVM,
		"disable hardware support (default is enabled if present and arch "+
			"matches the host arch)",
	)

	flagSet.Var(
		(*FilePath)(&f.PublicKeyPath),
		"publicKey",
		"path to the public key to install in the guest",
	)

	flagSet.StringVar(
		&f.Username,
		"username",
		f.Username,
		"user to log in as",
	)

	flagSet.StringVar(
		&f.LoginPrompt,
		"loginPrompt",
		f.LoginPrompt,
		"exact console line of the login prompt",
	)

	flagSet.StringVar(
		&f.ShellPrompt,
		"shellPrompt",
		f.ShellPrompt,
		"exact console line of the shell prompt after login",
	)

	flagSet.StringVar(
		&f.Command,
		"command",
		f.Command,
		"shell command that reads the public key from a here-document",
	)

	flagSet.Var(
		&escapedStringValue{Value: &f.Terminator},
		"terminator",
		"sent after the public key to end the here-document. Go escape "+
			"sequences are interpreted",
	)

	flagSet.DurationVar(
		&f.SettleDelay,
		"settleDelay",
		f.SettleDelay,
		"time to wait after the command before sending the public key",
	)

	flagSet.Var(
		&limitedUintValue{
			Value: &f.PieceBits,
			min:   pieceBitsMin,
			max:   pieceBitsMax,
		},
		"pieceBits",
		"size of the public key pieces in bits, must be a multiple of 8",
	)

	flagSet.DurationVar(
		&f.PieceDelay,
		"pieceDelay",
		f.PieceDelay,
		"time to wait between public key pieces",
	)

	flagSet.BoolVar(
		&f.Quiet,
		"quiet",
		f.Quiet,
		"do not print the guest console output",
	)

	flagSet.BoolVar(
		&f.Debug,
		"debug",
		f.Debug,
		"enable debug output",
	)

	flagSet.BoolVar(
		&f.Version,
		"version",
		f.Version,
		"show version and exit",
	)

	return flagSet
}

func (f *flags) logLevel() slog.Level {
	if f.Debug {
		return slog.LevelDebug
	}

	return slog.LevelWarn
}

func (f *flags) qemuSpec() qemu.CommandSpec {
	return qemu.CommandSpec{
		Executable:  f.QemuBin,
		Machine:     f.Machine,
		CPU:         f.CPUType,
		BIOS:        f.BIOSPath,
		Image:       f.ImagePath,
		ImageFormat: f.ImageFormat,
		Memory:      f.Memory,
		SMP:         f.NumCPU,
		NoKVM:       f.NoKVM,
		ExtraArgs:   f.QemuArgs,
	}
}

func (f *flags) bootConfig(transcript io.Writer) boot.Config {
	cfg := boot.DefaultConfig()

	cfg.Username = f.Username
	cfg.PublicKeyPath = f.PublicKeyPath
	cfg.Prompts = cfg.Prompts.
		With(console.PromptLogin, f.LoginPrompt).
		With(console.PromptShell, f.ShellPrompt)
	cfg.Dialogue = boot.Dialogue{
		Command:     f.Command,
		SettleDelay: f.SettleDelay,
		Terminator:  f.Terminator,
		PieceBits:   int(f.PieceBits),
		PieceDelay:  f.PieceDelay,
	}

	if !f.Quiet {
		cfg.Transcript = transcript
	}

	return cfg
}

// fail fails like flag does. It prints the error first and then usage.
func fail(flagSet *flag.FlagSet, msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(flagSet.Output(), err.Error())

	flagSet.Usage()

	return err
}
