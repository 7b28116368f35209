// Package bufchain implements the fixed-size, offset-tagged buffer and the
// singly linked chain of such buffers used by pkg/ustream to absorb bursty
// DATA arrivals and hand contiguous ranges back to a consumer. Each buffer's
// storage is an internal/ring.Buffer; chains never wrap the way a FIFO
// would, but reuse the ring's fill bookkeeping rather than reinventing it.
package bufchain

import (
	"github.com/vela-embedded/flashio/internal/crc"
	"github.com/vela-embedded/flashio/internal/ring"
)

// DefaultCapacity is a 256-byte buffer size, the same size pkg/ustream
// gives each of its N=4 buffers (ustream.BufferCapacity).
const DefaultCapacity = 256

// Buffer is one fixed-capacity slot tagged with its absolute offset into a
// conceptual byte stream. Buffers are non-owning with respect to any
// chain; Next is the chain's own intrusive link.
type Buffer struct {
	Offset  uint32
	storage *ring.Buffer
	Next    *Buffer
}

// NewBuffer allocates a buffer of the given capacity with offset 0; Reset
// before first use to tag it.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{storage: ring.New(capacity + 1)}
}

// Capacity returns the buffer's usable byte capacity.
func (b *Buffer) Capacity() int { return b.storage.Cap() }

// Fill returns the number of bytes currently held.
func (b *Buffer) Fill() int { return b.storage.Len() }

// Remaining returns how many more bytes can be appended before Full.
func (b *Buffer) Remaining() int { return b.storage.Space() }

// Full reports whether the buffer has no room left.
func (b *Buffer) Full() bool { return b.Remaining() == 0 }

// End returns the absolute offset one past the last filled byte.
func (b *Buffer) End() uint32 { return b.Offset + uint32(b.Fill()) }

// Covers reports whether absolute offset off falls within this buffer's
// tagged window [Offset, Offset+Capacity).
func (b *Buffer) Covers(off uint32) bool {
	return off >= b.Offset && off < b.Offset+uint32(b.Capacity())
}

// Reset empties the buffer and retags it to start at offset.
func (b *Buffer) Reset(offset uint32) {
	b.storage.Reset()
	b.Offset = offset
}

// Append writes data at the buffer's current fill point, optionally folding
// it into crc16, returning how many bytes were accepted (limited by
// remaining capacity).
func (b *Buffer) Append(data []byte, crc16 *crc.CRC16) int {
	return b.storage.Write(data, crc16)
}

// Bytes copies the buffer's filled region into dst without consuming it,
// returning the number of bytes copied.
func (b *Buffer) Bytes(dst []byte) int {
	return b.storage.Peek(dst)
}

// Chain is a singly linked sequence of Buffers addressed by a head
// pointer. The empty chain is a nil head.
type Chain struct {
	head *Buffer
}

// Head returns the first buffer in the chain, or nil if empty.
func (c *Chain) Head() *Buffer { return c.head }

// Empty reports whether the chain holds no buffers.
func (c *Chain) Empty() bool { return c.head == nil }

// PushBack appends buf to the tail of the chain. buf.Next is overwritten.
func (c *Chain) PushBack(buf *Buffer) {
	buf.Next = nil
	if c.head == nil {
		c.head = buf
		return
	}
	cur := c.head
	for cur.Next != nil {
		cur = cur.Next
	}
	cur.Next = buf
}

// PopFront removes and returns the head buffer, or nil if the chain is
// empty.
func (c *Chain) PopFront() *Buffer {
	if c.head == nil {
		return nil
	}
	buf := c.head
	c.head = buf.Next
	buf.Next = nil
	return buf
}

// Len returns the number of buffers currently chained.
func (c *Chain) Len() int {
	n := 0
	for cur := c.head; cur != nil; cur = cur.Next {
		n++
	}
	return n
}

// Buffers returns the chained buffers head-to-tail as a slice, for callers
// that need to iterate, sort, or reorder without repeatedly walking links.
func (c *Chain) Buffers() []*Buffer {
	out := make([]*Buffer, 0, c.Len())
	for cur := c.head; cur != nil; cur = cur.Next {
		out = append(out, cur)
	}
	return out
}

// SetBuffers replaces the chain's contents with the given buffers in order,
// re-linking them; used after reordering a slice obtained from Buffers.
func (c *Chain) SetBuffers(bufs []*Buffer) {
	c.head = nil
	for _, b := range bufs {
		b.Next = nil
	}
	for i, b := range bufs {
		if i+1 < len(bufs) {
			b.Next = bufs[i+1]
		}
	}
	if len(bufs) > 0 {
		c.head = bufs[0]
	}
}

// Span returns [lo, hi) spanning every buffer in the chain: lo is the
// smallest tagged offset, hi the largest fill boundary. Chain order is not
// assumed; buffers are appended at the tail as they're released back to a
// free pool and may sit out of offset order for a while, so this scans all
// of them rather than trusting head/tail to be the extremes. An empty chain
// returns lo==hi==0.
func (c *Chain) Span() (lo, hi uint32) {
	if c.head == nil {
		return 0, 0
	}
	lo = c.head.Offset
	hi = c.head.End()
	for cur := c.head.Next; cur != nil; cur = cur.Next {
		if cur.Offset < lo {
			lo = cur.Offset
		}
		if cur.End() > hi {
			hi = cur.End()
		}
	}
	return lo, hi
}

// Absorb writes data (logically starting at absolute offset off) into
// whichever buffers in the chain cover the relevant byte ranges, one byte
// at a time: a buffer only accepts a byte when its append point coincides
// with that byte's absolute offset, so out-of-window or already-filled
// bytes are silently dropped. Returns the number of bytes actually
// accepted by some buffer.
func (c *Chain) Absorb(off uint32, data []byte, crc16 *crc.CRC16) int {
	accepted := 0
	for i, b := range data {
		target := off + uint32(i)
		for cur := c.head; cur != nil; cur = cur.Next {
			if cur.Covers(target) && cur.End() == target && !cur.Full() {
				if cur.Append([]byte{b}, crc16) == 1 {
					accepted++
				}
				break
			}
		}
	}
	return accepted
}
