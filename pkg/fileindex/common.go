// Package fileindex scans a SPIFLASH device once at boot and builds an
// in-memory directory of files, each a singly linked list of segments,
// using the fixed on-flash segment header layout. The scanner runs purely
// off the fast tick and never blocks.
package fileindex

import "errors"

// on-flash segment header layout constants.
const (
	stxByte     = 0xA5
	headerSize  = 15 // STX through data-crc32
	headerTotal = headerSize + 4
	readChunk   = 30
	flagValid   = 1 << 0
	flagDeleted = 1 << 1
)

// ErrOutOfMemory is returned (and treated as fatal) when indexing would
// exceed the configured MaxFiles/MaxSegmentsPerFile bound.
var ErrOutOfMemory = errors.New("fileindex: allocation limit exceeded")

// Result is the tagged outcome of a random-access lookup.
type Result uint8

const (
	ResultOK Result = iota
	ResultNotFound
)

func (r Result) Error() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultNotFound:
		return "not found"
	default:
		return "unknown result"
	}
}
