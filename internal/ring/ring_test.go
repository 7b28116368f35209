package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vela-embedded/flashio/internal/crc"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := New(8)
	n := b.Write([]byte("hello"), nil)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, b.Len())

	out := make([]byte, 5)
	assert.Equal(t, 5, b.Read(out))
	assert.Equal(t, "hello", string(out))
	assert.Equal(t, 0, b.Len())
}

func TestWriteStopsWhenFull(t *testing.T) {
	b := New(4) // 3 usable bytes
	n := b.Write([]byte("abcdef"), nil)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, b.Space())
}

func TestWrapAroundPreservesOrder(t *testing.T) {
	b := New(4)
	b.Write([]byte("ab"), nil)
	out := make([]byte, 1)
	b.Read(out) // consume 'a', freeing a slot so the next write can wrap writePos back to 0
	b.Write([]byte("cd"), nil)

	rest := make([]byte, 3)
	n := b.Read(rest)
	assert.Equal(t, 3, n)
	assert.Equal(t, "bcd", string(rest[:n]))
}

func TestWriteFoldsCRC(t *testing.T) {
	b := New(16)
	c := crc.CRC16(0)
	b.Write([]byte{10}, &c)
	assert.EqualValues(t, 0xA14A, c)
}

func TestPeekDoesNotConsume(t *testing.T) {
	b := New(16)
	b.Write([]byte("0123456789"), nil)

	peeked := make([]byte, 4)
	assert.Equal(t, 4, b.Peek(peeked))
	assert.Equal(t, "0123", string(peeked))
	assert.Equal(t, 10, b.Len(), "peek must not consume bytes")

	// Peeking again returns the same bytes: there is no cursor to commit.
	assert.Equal(t, 4, b.Peek(peeked))
	assert.Equal(t, "0123", string(peeked))
}

func TestPeekShorterThanFill(t *testing.T) {
	b := New(16)
	b.Write([]byte("abc"), nil)

	out := make([]byte, 2)
	assert.Equal(t, 2, b.Peek(out))
	assert.Equal(t, "ab", string(out))
	assert.Equal(t, 3, b.Len())
}
