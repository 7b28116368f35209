package fileindex

import "github.com/vela-embedded/flashio/internal/crc"

// Segment is a materialized, validated on-flash segment record.
type Segment struct {
	Address  uint32
	UniqueID uint32
	OrderNo  uint16
	Version  uint8
	Length   uint16
	DataCRC  uint32

	Next *Segment
}

// parsedHeader is the raw header fields before acceptance is decided.
type parsedHeader struct {
	uniqueID  uint32
	orderNo   uint16
	version   uint8
	length    uint16
	flags     uint8
	dataCRC   uint32
	headerCRC uint32
}

// parseHeader decodes buf (must be at least headerTotal bytes) and reports
// whether it is structurally valid: STX, header CRC over bytes 0..14 with
// the flags byte forced to 0xFF, and the valid-bit set. The deleted-bit is
// left for the caller to act on: a deleted segment is skipped by its
// length rather than treated as corrupt.
func parseHeader(buf []byte) (parsedHeader, bool) {
	var h parsedHeader
	if len(buf) < headerTotal || buf[0] != stxByte {
		return h, false
	}

	h.uniqueID = uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16 | uint32(buf[4])<<24
	h.orderNo = uint16(buf[5]) | uint16(buf[6])<<8
	h.version = buf[7]
	h.length = uint16(buf[8]) | uint16(buf[9])<<8
	h.flags = buf[10]
	h.dataCRC = uint32(buf[11]) | uint32(buf[12])<<8 | uint32(buf[13])<<16 | uint32(buf[14])<<24
	h.headerCRC = uint32(buf[15]) | uint32(buf[16])<<8 | uint32(buf[17])<<16 | uint32(buf[18])<<24

	var crcBuf [headerSize]byte
	copy(crcBuf[:], buf[:headerSize])
	crcBuf[10] = 0xFF
	if crc.Sum32C(crcBuf[:]) != h.headerCRC {
		return h, false
	}

	if !isValid(h.flags) {
		return h, false
	}

	return h, true
}

// isValid and isDeleted decode the active-low flags byte: a flag is SET
// when its bit reads 0, so an erased byte (0xFF) decodes as both flags
// clear, which is why flags are stored inverted on flash in the first
// place.
func isValid(raw uint8) bool   { return raw&flagValid == 0 }
func isDeleted(raw uint8) bool { return raw&flagDeleted == 0 }

// EncodeFlags returns the on-flash flags byte for the given logical
// valid/deleted state, applying the same active-low convention isValid
// and isDeleted decode.
func EncodeFlags(valid, deleted bool) uint8 {
	b := uint8(0xFF)
	if valid {
		b &^= flagValid
	}
	if deleted {
		b &^= flagDeleted
	}
	return b
}

func (h parsedHeader) toSegment(address uint32) *Segment {
	return &Segment{
		Address:  address,
		UniqueID: h.uniqueID,
		OrderNo:  h.orderNo,
		Version:  h.version,
		Length:   h.length,
		DataCRC:  h.dataCRC,
	}
}
