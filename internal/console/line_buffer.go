// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
)

// LineBuffer accumulates console output and keeps only the trailing,
// possibly incomplete, line.
//
// Everything up to and including the last newline is discarded, so memory use
// is bounded by the length of the longest line. Data is buffered as raw bytes.
// Multi-byte sequences split across chunks are completed by later chunks.
//
// The zero value is ready to use.
type LineBuffer struct {
	buf []byte
}

// Append adds the chunk to the buffer and returns the observed line, which is
// the content after the last newline.
//
// For an empty chunk, the buffer is not touched and changed is false.
func (b *LineBuffer) Append(chunk []byte) (line string, changed bool) {
	if len(chunk) == 0 {
		return b.Line(), false
	}

	if idx := bytes.LastIndexByte(chunk, '\n'); idx >= 0 {
		// Copy, so the discarded part of the old buffer and the chunk are not
		// retained.
		b.buf = append(b.buf[:0:0], chunk[idx+1:]...)
	} else {
		b.buf = append(b.buf, chunk...)
	}

	return b.Line(), true
}

// Line returns the current line. Invalid UTF-8 sequences are replaced with
// the unicode replacement character.
func (b *LineBuffer) Line() string {
	if len(b.buf) == 0 {
		return ""
	}

	decoded, err := unicode.UTF8.NewDecoder().Bytes(b.buf)
	if err != nil {
		return string(bytes.ToValidUTF8(b.buf, []byte("\uFFFD")))
	}

	return string(decoded)
}

// Len returns the number of raw bytes buffered.
func (b *LineBuffer) Len() int {
	return len(b.buf)
}

// Reset empties the buffer.
func (b *LineBuffer) Reset() {
	b.buf = nil
}
