// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys_test

import (
	"runtime"
	"testing"

	"github.com/aibor/vmprovision/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchSet(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    sys.Arch
		expectedErr error
	}{
		{
			name:     "amd64",
			input:    "amd64",
			expected: sys.AMD64,
		},
		{
			name:     "arm64",
			input:    "arm64",
			expected: sys.ARM64,
		},
		{
			name:     "riscv64",
			input:    "riscv64",
			expected: sys.RISCV64,
		},
		{
			name:        "unknown",
			input:       "mips",
			expectedErr: sys.ErrArchNotSupported,
		},
		{
			name:        "empty",
			expectedErr: sys.ErrArchNotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var arch sys.Arch

			err := arch.Set(tt.input)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, arch)
		})
	}
}

func TestArchIsNative(t *testing.T) {
	native := sys.Arch(runtime.GOARCH)
	assert.True(t, native.IsNative())

	foreign := sys.Arch("foreign")
	assert.False(t, foreign.IsNative())
	assert.False(t, foreign.KVMAvailable())
}

func TestArchString(t *testing.T) {
	arch := sys.ARM64
	assert.Equal(t, "arm64", arch.String())
}
