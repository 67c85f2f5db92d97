// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strconv"

	"github.com/aibor/vmprovision/internal/sys"
)

// FilePath is a [flag.Value] that resolves the given path to an absolute one.
type FilePath string

func (f *FilePath) String() string {
	return string(*f)
}

func (f *FilePath) Set(s string) error {
	path, err := sys.AbsolutePath(s)
	if err != nil {
		return err //nolint:wrapcheck
	}

	*f = FilePath(path)

	return nil
}

type limitedUintValue struct {
	Value    *uint64
	min, max uint64
}

func (u *limitedUintValue) String() string {
	if u.Value == nil {
		return "0"
	}

	return strconv.FormatUint(*u.Value, 10)
}

func (u *limitedUintValue) Set(s string) error {
	value, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if u.min > 0 && value < u.min {
		return fmt.Errorf("%d < %d: %w", value, u.min, ErrValueOutOfRange)
	}

	if u.max > 0 && value > u.max {
		return fmt.Errorf("%d > %d: %w", value, u.max, ErrValueOutOfRange)
	}

	*u.Value = value

	return nil
}

// escapedStringValue is a string [flag.Value] that interprets Go escape
// sequences like "\n", so control characters can be given on the command
// line.
type escapedStringValue struct {
	Value *string
}

func (e *escapedStringValue) String() string {
	if e.Value == nil {
		return ""
	}

	quoted := strconv.Quote(*e.Value)

	return quoted[1 : len(quoted)-1]
}

func (e *escapedStringValue) Set(s string) error {
	value, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return fmt.Errorf("unquote: %w", err)
	}

	*e.Value = value

	return nil
}
