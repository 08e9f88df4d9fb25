// Package sse contains the line-oriented framing shared by the upstream
// adapters and the multichat client. Network reads arrive in arbitrary
// fragments; LineBuffer turns them back into whole records.
package sse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
)

const (
	// DataPrefix marks a payload record.
	DataPrefix = "data: "
	// DoneMarker is the end-of-stream sentinel some producers send. It carries no data.
	DoneMarker = "[DONE]"

	readBufferSize = 32 * 1024        // 32KB
	maxLineSize    = 10 * 1024 * 1024 // 10MB
)

// ErrLineTooLong is returned when a single record grows past the buffer limit
// without a line terminator.
var ErrLineTooLong = errors.New("sse: line exceeds maximum size")

// LineBuffer accumulates raw bytes and releases complete lines. A trailing
// partial line is retained until a later Feed completes it.
type LineBuffer struct {
	pending []byte
	max     int
}

// NewLineBuffer returns a buffer that rejects lines longer than max bytes.
// A max of zero selects the default limit.
func NewLineBuffer(max int) *LineBuffer {
	if max <= 0 {
		max = maxLineSize
	}
	return &LineBuffer{max: max}
}

// Feed appends p and returns every line completed by it, without the line
// terminator. A trailing carriage return is dropped so CRLF streams work.
func (b *LineBuffer) Feed(p []byte) ([]string, error) {
	b.pending = append(b.pending, p...)

	var lines []string
	for {
		idx := bytes.IndexByte(b.pending, '\n')
		if idx < 0 {
			break
		}
		line := b.pending[:idx]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		lines = append(lines, string(line))
		b.pending = b.pending[idx+1:]
	}

	if len(b.pending) > b.max {
		b.pending = nil
		return lines, ErrLineTooLong
	}
	// Compact so a long-lived stream does not pin the whole history.
	if len(b.pending) == 0 {
		b.pending = nil
	}
	return lines, nil
}

// Pending reports how many bytes of an incomplete line are held.
func (b *LineBuffer) Pending() int {
	return len(b.pending)
}

// Reset discards any held partial line.
func (b *LineBuffer) Reset() {
	b.pending = nil
}

// Payload returns the data carried by a record and whether the record is a
// payload at all. Non-data records (comments, event names, blank separators)
// and the done sentinel report false.
func Payload(line string) (string, bool) {
	if !strings.HasPrefix(line, DataPrefix) {
		return "", false
	}
	data := strings.TrimPrefix(line, DataPrefix)
	if strings.TrimSpace(data) == DoneMarker {
		return "", false
	}
	return data, true
}

// Scan reads r until EOF, handing each complete line to fn. It returns nil on
// a clean EOF, the first error returned by fn, or the read error. A partial
// line left in the buffer at EOF is discarded: producers terminate every
// record.
func Scan(ctx context.Context, r io.Reader, fn func(line string) error) error {
	buf := NewLineBuffer(0)
	chunk := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := r.Read(chunk)
		if n > 0 {
			lines, err := buf.Feed(chunk[:n])
			for _, line := range lines {
				if fnErr := fn(line); fnErr != nil {
					return fnErr
				}
			}
			if err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}
