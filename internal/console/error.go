// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import "errors"

var (
	// ErrInvalidPieceSize is returned if a piece size is not a positive
	// multiple of 8 bits.
	ErrInvalidPieceSize = errors.New("piece size must be a positive multiple of 8 bits")

	// ErrInvalidPrompt is returned for invalid prompt tables.
	ErrInvalidPrompt = errors.New("invalid prompt")
)
