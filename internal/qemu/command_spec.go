// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"strconv"

	"github.com/aibor/vmprovision/internal/sys"
	"github.com/c2h5oh/datasize"
)

const (
	machineTypeQ35  = "q35"
	machineTypeVirt = "virt"

	cpuTypeMax = "max"

	// DefaultImageFormat is used if no image format is given.
	DefaultImageFormat = "qcow2"

	// MinMemory is the least amount of memory a guest is started with.
	MinMemory = 64 * datasize.MB

	consoleID = "console"
)

// CommandSpec defines the parameters for a QEMU command that boots a disk
// image with the serial console on stdio.
type CommandSpec struct {
	// Path to the qemu-system binary.
	Executable string

	// QEMU machine type to use. Depends on the QEMU binary used.
	Machine string

	// CPU type to use. Depends on machine type and QEMU binary used.
	CPU string

	// Path to the firmware to boot with. Optional for amd64, usually
	// required for arm64 and riscv64 UEFI images.
	BIOS string

	// Path to the disk image to boot.
	Image string

	// Disk image format as understood by QEMU, like "qcow2" or "raw".
	ImageFormat string

	// Memory for the machine. Rounded down to full MiB.
	Memory datasize.ByteSize

	// Number of CPUs for the guest.
	SMP uint64

	// Disable KVM support.
	NoKVM bool

	// ExtraArgs are passed to the QEMU command as is, like network devices
	// with port forwarding. They must not interfere with the essential
	// arguments set by the command itself or an error is returned by
	// [CommandSpec.Arguments].
	ExtraArgs []Argument
}

// AddDefaultsFor adds architecture specific default values to the given spec
// if the fields are not set yet.
func (s *CommandSpec) AddDefaultsFor(arch sys.Arch) error {
	var (
		executable string
		machine    string
		cpu        string
	)

	switch arch {
	case sys.AMD64:
		executable = "qemu-system-x86_64"
		machine = machineTypeQ35
		cpu = cpuTypeMax
	case sys.ARM64:
		executable = "qemu-system-aarch64"
		machine = machineTypeVirt
		cpu = cpuTypeMax
	case sys.RISCV64:
		executable = "qemu-system-riscv64"
		machine = machineTypeVirt
		cpu = "rv64"
	default:
		return sys.ErrArchNotSupported
	}

	if s.Executable == "" {
		s.Executable = executable
	}

	if s.Machine == "" {
		s.Machine = machine
	}

	if s.CPU == "" {
		s.CPU = cpu
	}

	if s.ImageFormat == "" {
		s.ImageFormat = DefaultImageFormat
	}

	if !s.NoKVM {
		s.NoKVM = !arch.KVMAvailable()
	}

	return nil
}

// Validate checks that all required fields are set.
func (s *CommandSpec) Validate() error {
	if s.Executable == "" {
		return ErrExecutableMissing
	}

	if s.Image == "" {
		return ErrImageMissing
	}

	if s.Memory != 0 && s.Memory < MinMemory {
		return &ArgumentError{
			"memory must be at least " + MinMemory.HumanReadable(),
		}
	}

	return nil
}

// Arguments compiles the argument strings for the QEMU command.
//
// It returns an error if any of the [CommandSpec.ExtraArgs] collides with an
// argument set by the [CommandSpec] fields.
func (s *CommandSpec) Arguments() ([]string, error) {
	return BuildArgumentStrings(s.arguments())
}

func (s *CommandSpec) arguments() []Argument {
	args := []Argument{}

	if s.Machine != "" {
		args = append(args, UniqueArg("machine", s.Machine))
	}

	if s.CPU != "" {
		args = append(args, UniqueArg("cpu", s.CPU))
	}

	if s.SMP != 0 {
		args = append(args, UniqueArg("smp", strconv.FormatUint(s.SMP, 10)))
	}

	if s.Memory != 0 {
		megs := s.Memory.Bytes() / datasize.MB.Bytes()
		args = append(args, UniqueArg("m", strconv.FormatUint(megs, 10)))
	}

	if s.BIOS != "" {
		args = append(args, UniqueArg("bios", s.BIOS))
	}

	if !s.NoKVM {
		args = append(args, UniqueArg("enable-kvm"))
	}

	args = append(args,
		RepeatableArg("drive",
			"file="+s.Image,
			"format="+s.ImageFormat,
			"if=virtio",
		),
		// Serial console on the QEMU process' stdio. Signals are not
		// interpreted, so control characters reach the guest unaltered.
		RepeatableArg("chardev", "stdio", "id="+consoleID, "signal=off"),
		UniqueArg("serial", "chardev:"+consoleID),
		// Disable video output.
		UniqueArg("display", "none"),
		// Disable QEMU monitor.
		UniqueArg("monitor", "none"),
		// Disable all default devices.
		UniqueArg("nodefaults"),
		// Do not load any user config files.
		UniqueArg("no-user-config"),
	)

	return append(args, s.ExtraArgs...)
}
