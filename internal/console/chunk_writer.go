// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package console

import (
	"context"
	"fmt"
	"io"
	"time"
)

// DefaultPieceBits is a conservative piece size well below the common 256
// bytes input line limit of terminal line disciplines.
const DefaultPieceBits = 512

// SleepFunc waits for the given duration. It returns early with an error if
// waiting is aborted.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for the given duration or until the context is done.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	case <-timer.C:
		return nil
	}
}

// Pieces splits the payload into consecutive pieces of pieceBits each. The
// last piece holds the remainder and is never padded.
//
// pieceBits must be a positive multiple of 8, so pieces align to full bytes.
// The result references the payload's memory.
func Pieces(payload []byte, pieceBits int) ([][]byte, error) {
	if pieceBits <= 0 || pieceBits%8 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPieceSize, pieceBits)
	}

	size := pieceBits / 8
	pieces := make([][]byte, 0, (len(payload)+size-1)/size)

	for start := 0; start < len(payload); start += size {
		end := min(start+size, len(payload))
		pieces = append(pieces, payload[start:end])
	}

	return pieces, nil
}

// ChunkWriter writes payloads in small pieces with a delay in between.
//
// Pseudo-terminal line disciplines cap the length of input lines and may drop
// data written in large bursts. Writing small pieces with pacing avoids both.
type ChunkWriter struct {
	// Writer receives the pieces.
	Writer io.Writer

	// PieceBits is the size of each piece in bits. [DefaultPieceBits] is used
	// if 0.
	PieceBits int

	// Delay between two consecutive pieces.
	Delay time.Duration

	// Sleep is used for waiting between pieces. [Sleep] is used if nil.
	Sleep SleepFunc
}

// WriteChunked writes the payload in pieces. It does not wait after the last
// piece. Any write or sleep error aborts immediately.
func (w *ChunkWriter) WriteChunked(ctx context.Context, payload []byte) error {
	pieceBits := w.PieceBits
	if pieceBits == 0 {
		pieceBits = DefaultPieceBits
	}

	pieces, err := Pieces(payload, pieceBits)
	if err != nil {
		return err
	}

	sleep := w.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for idx, piece := range pieces {
		if idx > 0 && w.Delay > 0 {
			err := sleep(ctx, w.Delay)
			if err != nil {
				return fmt.Errorf("piece %d: %w", idx, err)
			}
		}

		_, err := w.Writer.Write(piece)
		if err != nil {
			return fmt.Errorf("piece %d: write: %w", idx, err)
		}
	}

	return nil
}
