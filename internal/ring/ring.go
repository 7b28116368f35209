// Package ring implements a byte FIFO with wrap-aware element access, the
// storage primitive underneath pkg/bufchain's fixed-size buffers.
package ring

import "github.com/vela-embedded/flashio/internal/crc"

// Buffer is a fixed-capacity circular byte FIFO. The zero value is not
// usable; construct with New.
type Buffer struct {
	data     []byte
	writePos int
	readPos  int
}

// New allocates a ring buffer with room for size bytes (one slot is kept
// reserved to distinguish full from empty, so the usable capacity is
// size-1).
func New(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// Reset empties the buffer without zeroing its backing storage.
func (b *Buffer) Reset() {
	b.readPos = 0
	b.writePos = 0
}

// Cap returns the usable capacity (one slot short of len(backing array),
// reserved to disambiguate full from empty).
func (b *Buffer) Cap() int {
	return len(b.data) - 1
}

// Space returns how many more bytes can be written before the buffer is full.
func (b *Buffer) Space() int {
	left := b.readPos - b.writePos - 1
	if left < 0 {
		left += len(b.data)
	}
	return left
}

// Len returns how many unread bytes are currently buffered.
func (b *Buffer) Len() int {
	occupied := b.writePos - b.readPos
	if occupied < 0 {
		occupied += len(b.data)
	}
	return occupied
}

// Write appends as much of src as fits, folding it into crc if non-nil, and
// returns the number of bytes actually written.
func (b *Buffer) Write(src []byte, crc16 *crc.CRC16) int {
	written := 0
	for _, element := range src {
		next := b.writePos + 1
		if next == b.readPos || (next == len(b.data) && b.readPos == 0) {
			break
		}
		b.data[b.writePos] = element
		written++
		if crc16 != nil {
			crc16.Single(element)
		}
		if next == len(b.data) {
			b.writePos = 0
		} else {
			b.writePos = next
		}
	}
	return written
}

// Read copies up to len(dst) unread bytes into dst and advances the read
// cursor, returning the number of bytes copied.
func (b *Buffer) Read(dst []byte) int {
	read := 0
	for i := range dst {
		if b.readPos == b.writePos {
			break
		}
		dst[i] = b.data[b.readPos]
		read++
		b.readPos++
		if b.readPos == len(b.data) {
			b.readPos = 0
		}
	}
	return read
}

// Peek copies up to len(dst) unread bytes into dst starting at the read
// cursor, without consuming them. Unlike Read, repeated calls with the same
// dst return the same bytes until the buffer is next Written to, Read from,
// or Reset: every caller of this buffer re-derives what it needs from
// scratch on each pass rather than committing or discarding a cursor, so
// there is no separate peek-commit step to track.
func (b *Buffer) Peek(dst []byte) int {
	pos := b.readPos
	copied := 0
	for i := range dst {
		if pos == b.writePos {
			break
		}
		dst[i] = b.data[pos]
		copied++
		pos++
		if pos == len(b.data) {
			pos = 0
		}
	}
	return copied
}
