// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package console provides the building blocks for driving an interactive
// serial console: accumulating the unframed output stream into the current
// line, classifying that line as a known prompt and writing long payloads in
// small, paced pieces the terminal line discipline does not drop.
package console
