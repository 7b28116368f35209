// Package crc implements the two checksum algorithms used on the wire:
// CRC-16/CCITT for packet framing and CRC-32C (Castagnoli, reversed) for
// on-flash segment headers and payloads.
package crc

// CRC16 is a CRC-16/CCITT (poly 0x1021, not reflected) running state. The
// zero value is a valid starting state for an init of 0; callers needing
// the 0xFFFF packet-header init should start from CRC16(0xFFFF).
type CRC16 uint16

// Single folds one byte into the running CRC.
func (c *CRC16) Single(b byte) {
	crc := *c
	crc ^= CRC16(b) << 8
	for i := 0; i < 8; i++ {
		if crc&0x8000 != 0 {
			crc = (crc << 1) ^ 0x1021
		} else {
			crc = crc << 1
		}
	}
	*c = crc
}

// Block folds a byte slice into the running CRC.
func (c *CRC16) Block(data []byte) {
	for _, b := range data {
		c.Single(b)
	}
}

// CRC16Ccitt computes a fresh CRC-16/CCITT over data starting from init.
func CRC16Ccitt(init uint16, data []byte) uint16 {
	crc := CRC16(init)
	crc.Block(data)
	return uint16(crc)
}

// crc32cTable is the byte-indexed lookup table for CRC-32C (Castagnoli),
// reversed polynomial 0x82F63B78.
var crc32cTable = func() [256]uint32 {
	const poly = 0x82F63B78
	var table [256]uint32
	for i := range table {
		c := uint32(i)
		for j := 0; j < 8; j++ {
			if c&1 != 0 {
				c = (c >> 1) ^ poly
			} else {
				c = c >> 1
			}
		}
		table[i] = c
	}
	return table
}()

// CRC32C is a CRC-32C (Castagnoli) running state, folded with an inverted
// running value per the standard invert/fold/invert convention:
// Reset/Update/Sum hide the inversion from callers.
type CRC32C struct {
	state uint32
}

// NewCRC32C returns a CRC32C ready to fold bytes, equivalent to an initial
// value of 0 with the running state pre-inverted.
func NewCRC32C() *CRC32C {
	return &CRC32C{state: 0xFFFFFFFF}
}

// Update folds data into the running checksum.
func (c *CRC32C) Update(data []byte) {
	crc := c.state
	for _, b := range data {
		crc = crc32cTable[byte(crc)^b] ^ (crc >> 8)
	}
	c.state = crc
}

// Sum returns the finalized checksum (final xor-out applied).
func (c *CRC32C) Sum() uint32 {
	return c.state ^ 0xFFFFFFFF
}

// Sum32C computes CRC-32C over a contiguous byte slice in one call.
func Sum32C(data []byte) uint32 {
	c := NewCRC32C()
	c.Update(data)
	return c.Sum()
}

// Segments computes CRC-32C across a sequence of byte slices as if they
// were concatenated, without requiring the caller to materialize the
// concatenation — used for CRCing ring-buffer fragments or multi-buffer
// chains in one pass.
func Segments(segments ...[]byte) uint32 {
	c := NewCRC32C()
	for _, s := range segments {
		c.Update(s)
	}
	return c.Sum()
}
