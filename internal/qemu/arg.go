// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"slices"
	"strings"
)

// Argument is a QEMU argument with or without value.
//
// Its name might be marked to be unique in a list of arguments. Boot defining
// arguments like "-machine" or "-m" must not be given twice, while device
// arguments like "-device" or "-netdev" may be repeated.
type Argument struct {
	name          string
	value         string
	nonUniqueName bool
}

// String implements [fmt.Stringer].
func (a Argument) String() string {
	s := "-" + a.name
	if a.value != "" {
		s += " " + a.value
	}

	return s
}

// Name returns the name of the [Argument].
func (a Argument) Name() string {
	return a.name
}

// Value returns the value of the [Argument].
func (a Argument) Value() string {
	return a.value
}

// Equal compares the [Argument]s.
//
// If the name is marked unique, only names are compared. Otherwise name and
// value are compared.
func (a Argument) Equal(other Argument) bool {
	if a.name != other.name {
		return false
	}

	if a.nonUniqueName {
		return a.value == other.value
	}

	return true
}

// UniqueArg returns a new [Argument] with the given name that is marked as
// unique and so can be used only once. Multiple values are joined with ",".
func UniqueArg(name string, value ...string) Argument {
	return Argument{
		name:  name,
		value: strings.Join(value, ","),
	}
}

// RepeatableArg returns a new [Argument] with the given name that is not
// unique and so can be used multiple times.
func RepeatableArg(name string, value ...string) Argument {
	return Argument{
		name:          name,
		value:         strings.Join(value, ","),
		nonUniqueName: true,
	}
}

// uniqueNames are the argument names that are set by [CommandSpec] itself
// and so must not be given again as pass-through arguments.
var uniqueNames = []string{
	"machine",
	"cpu",
	"smp",
	"m",
	"bios",
	"enable-kvm",
	"display",
	"monitor",
	"serial",
	"nodefaults",
	"no-user-config",
}

// ParseArguments converts a raw command line argument list into [Argument]s.
//
// Each element starting with "-" starts a new argument. A following element
// not starting with "-" is taken as its value. Names known to be set by
// [CommandSpec] are marked unique, so collisions are detected by
// [BuildArgumentStrings].
func ParseArguments(raw []string) ([]Argument, error) {
	args := make([]Argument, 0, len(raw))

	for idx := 0; idx < len(raw); idx++ {
		name, found := strings.CutPrefix(raw[idx], "-")
		if !found || name == "" {
			return nil, &ArgumentError{"not an argument name: " + raw[idx]}
		}

		// Accept GNU style double dash as well.
		name = strings.TrimPrefix(name, "-")

		var value string
		if idx+1 < len(raw) && !strings.HasPrefix(raw[idx+1], "-") {
			idx++
			value = raw[idx]
		}

		if slices.Contains(uniqueNames, name) {
			args = append(args, UniqueArg(name, value))
		} else {
			args = append(args, RepeatableArg(name, value))
		}
	}

	return args, nil
}

// BuildArgumentStrings compiles the [Argument]s into a slice of strings which
// can be used with [exec.Command].
//
// It returns an error if any name uniqueness constraints of any [Argument] is
// violated.
func BuildArgumentStrings(args []Argument) ([]string, error) {
	argStrings := make([]string, 0, len(args)*2)

	for idx, arg := range args {
		if i := slices.IndexFunc(args[:idx], arg.Equal); i != -1 {
			return nil, fmt.Errorf(
				"%w: %s, %s",
				ErrArgumentCollision,
				arg.String(),
				args[i].String(),
			)
		}

		argStrings = append(argStrings, "-"+arg.name)

		if arg.value != "" {
			argStrings = append(argStrings, arg.value)
		}
	}

	return argStrings, nil
}
