// Package fileinfo scans slicer-generated G-code files for embedded
// metadata (layer height, filament usage, print time, and so on) without
// loading the whole file into memory.
package fileinfo

import (
	"errors"
	"io"
)

// ErrNoMoreData is returned by ReverseLineReader.ReadLine once both its
// internal buffer is drained and the underlying source has been read back
// to byte 0.
var ErrNoMoreData = errors.New("fileinfo: no more data")

// ReverseLineReader yields the lines of a seekable byte source back to
// front, one per ReadLine call, without assuming anything about the
// source's own internal buffering. It owns a single fixed-size buffer and
// repositions it with ReadAt as the cursor walks backward.
type ReverseLineReader struct {
	src           io.ReaderAt
	bufSize       int
	buf           []byte
	bufStart      int64 // absolute offset of buf[0] in src
	bufLen        int   // valid bytes in buf
	cursor        int   // index into buf[:bufLen] of the next byte to examine, scanning downward
	atSourceStart bool
}

// NewReverseLineReader returns a reader over src, which has the given total
// size in bytes, using a buffer of bufSize bytes (FileInfoReadBufferSize in
// the configuration table). A single trailing "\n" (or "\r\n") at the very
// end of the source is treated as a line terminator rather than the start
// of a final empty line, matching how a forward line reader would treat it.
func NewReverseLineReader(src io.ReaderAt, size int64, bufSize int) *ReverseLineReader {
	if bufSize <= 0 {
		bufSize = 4096
	}
	end := size
	if end > 0 {
		var last [1]byte
		if n, err := src.ReadAt(last[:], end-1); n == 1 && (err == nil || err == io.EOF) && last[0] == '\n' {
			end--
		}
	}
	return &ReverseLineReader{
		src:      src,
		bufSize:  bufSize,
		bufStart: end,
		cursor:   0,
		bufLen:   0,
	}
}

// fillBuffer loads the bufSize bytes immediately preceding the current
// window, or everything from byte 0 when fewer than bufSize bytes remain
// before it.
func (r *ReverseLineReader) fillBuffer() error {
	if r.bufStart <= 0 {
		r.atSourceStart = true
		return nil
	}
	start := r.bufStart - int64(r.bufSize)
	if start < 0 {
		start = 0
	}
	length := int(r.bufStart - start)
	buf := make([]byte, length)
	n, err := r.src.ReadAt(buf, start)
	if err != nil && err != io.EOF {
		return err
	}
	r.buf = buf[:n]
	r.bufStart = start
	r.bufLen = n
	r.cursor = n
	if start == 0 {
		r.atSourceStart = true
	}
	return nil
}

// ReadLine returns the next line scanning backward from the end of the
// source, with any trailing "\r\n" or "\n" stripped. It returns
// ErrNoMoreData once the whole source has been consumed.
func (r *ReverseLineReader) ReadLine() (string, error) {
	var tail []byte // accumulates buffer fragments, each prepended as we walk left

	for {
		if r.cursor == 0 {
			if r.atSourceStart {
				if len(tail) == 0 {
					return "", ErrNoMoreData
				}
				return trimLineEnding(string(tail)), nil
			}
			if err := r.fillBuffer(); err != nil {
				return "", err
			}
			if r.bufLen == 0 && r.atSourceStart {
				if len(tail) == 0 {
					return "", ErrNoMoreData
				}
				return trimLineEnding(string(tail)), nil
			}
			continue
		}

		idx := lastIndexByte(r.buf[:r.cursor], '\n')
		if idx < 0 {
			tail = prepend(r.buf[:r.cursor], tail)
			r.cursor = 0
			continue
		}

		tail = prepend(r.buf[idx+1:r.cursor], tail)
		r.cursor = idx // the '\n' itself is dropped; it terminates the line before this one
		return trimLineEnding(string(tail)), nil
	}
}

func prepend(chunk []byte, tail []byte) []byte {
	out := make([]byte, len(chunk)+len(tail))
	copy(out, chunk)
	copy(out[len(chunk):], tail)
	return out
}

func lastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}

func trimLineEnding(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}
