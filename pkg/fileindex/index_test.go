package fileindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vela-embedded/flashio/internal/crc"
	"github.com/vela-embedded/flashio/pkg/spiflash"
)

const (
	testSectorSize = 4096
	testFlashSize  = testSectorSize * 4
)

// memHost is a synchronous in-memory SPIFLASH host: each transaction is
// served immediately and its TxDone/TxRxDone is delivered by pump, which
// runIndex calls between spiflash.Driver Service calls.
type memHost struct {
	driver      *spiflash.Driver
	flash       []byte
	pendingIsRx bool
	pending     bool
	readAddr    uint32
	awaitingData bool
}

func newMemHost(size int) *memHost {
	h := &memHost{flash: make([]byte, size)}
	for i := range h.flash {
		h.flash[i] = 0xFF
	}
	return h
}

func (h *memHost) ChipSelect(spiflash.Level) error { return nil }

func (h *memHost) Transmit(tx []byte) error {
	h.pending, h.pendingIsRx = true, false
	return nil
}

func (h *memHost) TransmitReceive(tx, rx []byte) error {
	h.pending, h.pendingIsRx = true, true
	switch {
	case len(tx) == 2 && tx[0] == 0x05: // READ-STATUS
		rx[1] = 0
	case len(tx) == 4 && tx[0] == 0x03: // READ command+address
		h.readAddr = uint32(tx[1])<<16 | uint32(tx[2])<<8 | uint32(tx[3])
		h.awaitingData = true
	case len(tx) == 4 && tx[0] == 0x9F: // READ-JEDEC-ID
		// handled by spiflash tests directly; nothing to serve here.
	case h.awaitingData:
		h.awaitingData = false
		addr := int(h.readAddr)
		for i := range rx {
			if addr+i < len(h.flash) {
				rx[i] = h.flash[addr+i]
			}
		}
	}
	return nil
}

func (h *memHost) Status() spiflash.HostStatus { return spiflash.StatusReady }

func (h *memHost) pump() {
	if !h.pending {
		return
	}
	h.pending = false
	if h.pendingIsRx {
		h.driver.TxRxDone()
	} else {
		h.driver.TxDone()
	}
}

// runIndex drives flash Service + Index Service together until Done.
func runIndex(t *testing.T, idx *Index, driver *spiflash.Driver, host *memHost) {
	t.Helper()
	for i := 0; i < 100000 && !idx.Done(); i++ {
		driver.Service()
		host.pump()
		driver.Service()
		idx.Service()
	}
	require.True(t, idx.Done(), "indexing did not complete")
}

// writeSegment encodes a full 19-byte header plus payload at offset off in
// host.flash, matching the on-flash segment header layout.
func writeSegment(host *memHost, off uint32, uniqueID uint32, orderNo uint16, payload []byte) {
	buf := make([]byte, headerTotal+len(payload))
	buf[0] = stxByte
	buf[1] = byte(uniqueID)
	buf[2] = byte(uniqueID >> 8)
	buf[3] = byte(uniqueID >> 16)
	buf[4] = byte(uniqueID >> 24)
	buf[5] = byte(orderNo)
	buf[6] = byte(orderNo >> 8)
	buf[7] = 1 // version
	length := uint16(headerTotal + len(payload))
	buf[8] = byte(length)
	buf[9] = byte(length >> 8)
	buf[10] = EncodeFlags(true, false)
	dataCRC := crc.Sum32C(payload)
	buf[11] = byte(dataCRC)
	buf[12] = byte(dataCRC >> 8)
	buf[13] = byte(dataCRC >> 16)
	buf[14] = byte(dataCRC >> 24)

	var crcBuf [headerSize]byte
	copy(crcBuf[:], buf[:headerSize])
	crcBuf[10] = 0xFF
	headerCRC := crc.Sum32C(crcBuf[:])
	buf[15] = byte(headerCRC)
	buf[16] = byte(headerCRC >> 8)
	buf[17] = byte(headerCRC >> 16)
	buf[18] = byte(headerCRC >> 24)

	copy(buf[headerTotal:], payload)
	copy(host.flash[off:], buf)
}

func TestScannerBlankFlash(t *testing.T) {
	host := newMemHost(testFlashSize)
	d := spiflash.New(host, nil)
	host.driver = d
	spiflash.RegisterPart(spiflash.Info{
		JedecID: [3]byte{0x00, 0x00, 0x01}, FlashSize: testFlashSize,
		PageSize: 256, SectorSize: testSectorSize,
	})
	_, result := d.Configure([3]byte{0x00, 0x00, 0x01})
	require.Equal(t, spiflash.ResultOK, result)

	idx := New(d, Config{}, nil)
	runIndex(t, idx, d, host)

	assert.Equal(t, 0, idx.FileCount())
	assert.NoError(t, idx.Err())
}

func TestScannerThreeSegmentsOneFile(t *testing.T) {
	host := newMemHost(testFlashSize)
	d := spiflash.New(host, nil)
	host.driver = d
	spiflash.RegisterPart(spiflash.Info{
		JedecID: [3]byte{0x00, 0x00, 0x02}, FlashSize: testFlashSize,
		PageSize: 256, SectorSize: testSectorSize,
	})
	_, result := d.Configure([3]byte{0x00, 0x00, 0x02})
	require.Equal(t, spiflash.ResultOK, result)

	const uid = 0x12345678
	writeSegment(host, 0*testSectorSize, uid, 2, []byte("A"))
	writeSegment(host, 1*testSectorSize, uid, 0, []byte("B"))
	writeSegment(host, 2*testSectorSize, uid, 1, []byte("C"))

	idx := New(d, Config{}, nil)
	runIndex(t, idx, d, host)

	require.NoError(t, idx.Err())
	require.Equal(t, 1, idx.FileCount())

	f, res := idx.File(uid)
	require.Equal(t, ResultOK, res)
	require.Equal(t, 3, f.SegmentCount())

	var orderNos []uint16
	for s := f.Segments(); s != nil; s = s.Next {
		orderNos = append(orderNos, s.OrderNo)
	}
	assert.Equal(t, []uint16{2, 1, 0}, orderNos)

	ascending := f.SegmentsAscending()
	require.Len(t, ascending, 3)
	assert.Equal(t, uint16(0), ascending[0].OrderNo)
	assert.Equal(t, uint16(1), ascending[1].OrderNo)
	assert.Equal(t, uint16(2), ascending[2].OrderNo)
}

func TestScannerFatalOnFileLimit(t *testing.T) {
	host := newMemHost(testFlashSize)
	d := spiflash.New(host, nil)
	host.driver = d
	spiflash.RegisterPart(spiflash.Info{
		JedecID: [3]byte{0x00, 0x00, 0x03}, FlashSize: testFlashSize,
		PageSize: 256, SectorSize: testSectorSize,
	})
	_, result := d.Configure([3]byte{0x00, 0x00, 0x03})
	require.Equal(t, spiflash.ResultOK, result)

	writeSegment(host, 0*testSectorSize, 1, 0, []byte("A"))
	writeSegment(host, 1*testSectorSize, 2, 0, []byte("B"))

	idx := New(d, Config{MaxFiles: 1}, nil)
	runIndex(t, idx, d, host)

	require.Error(t, idx.Err())
	assert.ErrorIs(t, idx.Err(), ErrOutOfMemory)
}
