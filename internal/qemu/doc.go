// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu provides utilities for composing QEMU system virtualization
// commands that boot a full disk image with its serial console attached to
// the standard streams of the QEMU process.
//
// The resulting argument list is supposed to be run under a pseudo-terminal,
// so the guest's serial console can be driven like an interactive terminal.
package qemu
