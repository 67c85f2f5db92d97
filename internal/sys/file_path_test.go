// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/vmprovision/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAbsolutePath(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := sys.AbsolutePath("")
		require.ErrorIs(t, err, sys.ErrEmptyPath)
	})

	t.Run("relative", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)

		path, err := sys.AbsolutePath("some/file")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(wd, "some/file"), path)
	})

	t.Run("absolute", func(t *testing.T) {
		path, err := sys.AbsolutePath("/some/file")
		require.NoError(t, err)
		assert.Equal(t, "/some/file", path)
	})
}

func TestValidateReadable(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key.pub")
	require.NoError(t, os.WriteFile(file, []byte("ssh-ed25519 AAAA"), 0o600))

	t.Run("regular file", func(t *testing.T) {
		assert.NoError(t, sys.ValidateReadable(file))
	})

	t.Run("directory", func(t *testing.T) {
		assert.ErrorIs(t, sys.ValidateReadable(dir), sys.ErrNotRegularFile)
	})

	t.Run("missing", func(t *testing.T) {
		err := sys.ValidateReadable(filepath.Join(dir, "missing"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
