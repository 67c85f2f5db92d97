// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package process runs a command attached to a pseudo-terminal and delivers
// its output and its termination as a single ordered stream of [Event]s.
//
// The terminal is drained continuously into an unbounded queue, so the child
// process never blocks on a full terminal buffer, no matter how slow the
// consumer of the events is.
package process
