// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package boot drives a booting guest through its serial console.
//
// A [Session] consumes the console output of a guest, waits for the login
// prompt, logs in and, once the shell prompt shows up, runs a one-time
// provisioning dialogue that installs an SSH public key and enables the SSH
// daemon. No agent inside the guest is required.
package boot
