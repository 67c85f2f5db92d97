// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package boot

import "strconv"

// Stage is the progress of a [Session]. Stages only move forward.
type Stage int

const (
	// StageAwaitingLogin is the initial stage. The guest is booting or
	// waiting for the login to complete.
	StageAwaitingLogin Stage = iota
	// StageProvisioning is entered when the provisioning dialogue starts.
	StageProvisioning
	// StageReady is entered once the provisioning dialogue has been sent
	// completely.
	StageReady
)

// String implements [fmt.Stringer].
func (s Stage) String() string {
	switch s {
	case StageAwaitingLogin:
		return "awaiting-login"
	case StageProvisioning:
		return "provisioning"
	case StageReady:
		return "ready"
	default:
		return "stage(" + strconv.Itoa(int(s)) + ")"
	}
}
