// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/aibor/vmprovision/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentEqual(t *testing.T) {
	tests := []struct {
		name  string
		a     qemu.Argument
		b     qemu.Argument
		equal bool
	}{
		{
			name:  "both empty",
			a:     qemu.Argument{},
			b:     qemu.Argument{},
			equal: true,
		},
		{
			name:  "different names",
			a:     qemu.UniqueArg("m"),
			b:     qemu.UniqueArg("smp"),
			equal: false,
		},
		{
			name:  "same unique name",
			a:     qemu.UniqueArg("m", "512"),
			b:     qemu.UniqueArg("m", "1024"),
			equal: true,
		},
		{
			name:  "same non-unique name",
			a:     qemu.RepeatableArg("device", "virtio-rng-pci"),
			b:     qemu.RepeatableArg("device", "virtio-net-pci"),
			equal: false,
		},
		{
			name:  "same non-unique name and value",
			a:     qemu.RepeatableArg("device", "virtio-rng-pci"),
			b:     qemu.RepeatableArg("device", "virtio-rng-pci"),
			equal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b), "a")
			assert.Equal(t, tt.equal, tt.b.Equal(tt.a), "b")
		})
	}
}

func TestArgumentString(t *testing.T) {
	assert.Equal(t, "-nodefaults", qemu.UniqueArg("nodefaults").String())
	assert.Equal(t, "-drive file=a,if=virtio",
		qemu.RepeatableArg("drive", "file=a", "if=virtio").String())
}

func TestBuildArgumentStrings(t *testing.T) {
	t.Run("builds", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.UniqueArg("machine", "q35"),
			qemu.RepeatableArg("device", "virtio-rng-pci"),
			qemu.UniqueArg("nodefaults"),
		}
		expected := []string{
			"-machine", "q35",
			"-device", "virtio-rng-pci",
			"-nodefaults",
		}

		actual, err := qemu.BuildArgumentStrings(args)
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
	})

	t.Run("collision", func(t *testing.T) {
		args := []qemu.Argument{
			qemu.UniqueArg("m", "512"),
			qemu.UniqueArg("m", "1024"),
		}

		_, err := qemu.BuildArgumentStrings(args)
		assert.ErrorIs(t, err, qemu.ErrArgumentCollision)
	})
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name        string
		raw         []string
		expected    []qemu.Argument
		expectedErr error
	}{
		{
			name:     "empty",
			expected: []qemu.Argument{},
		},
		{
			name: "repeatable with values",
			raw: []string{
				"-netdev", "user,id=net0,hostfwd=tcp::2222-:22",
				"-device", "virtio-net-pci,netdev=net0",
			},
			expected: []qemu.Argument{
				qemu.RepeatableArg("netdev", "user,id=net0,hostfwd=tcp::2222-:22"),
				qemu.RepeatableArg("device", "virtio-net-pci,netdev=net0"),
			},
		},
		{
			name: "unique and flags",
			raw:  []string{"--cpu", "host", "-snapshot"},
			expected: []qemu.Argument{
				qemu.UniqueArg("cpu", "host"),
				qemu.RepeatableArg("snapshot"),
			},
		},
		{
			name:        "value without name",
			raw:         []string{"q35"},
			expectedErr: &qemu.ArgumentError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := qemu.ParseArguments(tt.raw)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, actual)
		})
	}
}
