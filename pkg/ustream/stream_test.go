package ustream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLink struct {
	sent [][]byte
}

func (f *fakeLink) Send(packet []byte) error {
	f.sent = append(f.sent, append([]byte(nil), packet...))
	return nil
}

func (f *fakeLink) lastRequest() (offset uint32, length uint16, ok bool) {
	for i := len(f.sent) - 1; i >= 0; i-- {
		pkt := f.sent[i]
		if len(pkt) >= 8 && pkt[0] == pktDataRequest {
			return getU32(pkt[2:6]), getU16(pkt[6:8]), true
		}
	}
	return 0, 0, false
}

func dataPacket(streamID byte, offset uint32, payload []byte) []byte {
	buf := make([]byte, 8+len(payload))
	buf[0] = pktData
	buf[1] = streamID
	putU32(buf[2:6], offset)
	putU16(buf[6:8], uint16(len(payload)))
	copy(buf[8:], payload)
	return buf
}

func TestInitialPullRequestsFullWindow(t *testing.T) {
	link := &fakeLink{}
	mgr := NewManager(nil)
	s := mgr.Open(link, 1024, 0)

	offset, length, ok := link.lastRequest()
	require.True(t, ok)
	assert.Equal(t, uint32(0), offset)
	assert.Equal(t, uint16(1024), length)
	_ = s
}

func TestInitialPullIngestAndReadTriggersNextRequest(t *testing.T) {
	link := &fakeLink{}
	mgr := NewManager(nil)
	s := mgr.Open(link, 1024, 0)

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	mgr.Dispatch(dataPacket(s.ID(), 0, payload))
	mgr.Tick(1)

	count, res := s.Count(0)
	require.Equal(t, ResultOK, res)
	assert.Equal(t, uint32(256), count)

	var out [256]byte
	res = s.Read(0, out[:], 256, nil)
	require.Equal(t, ResultOK, res)
	assert.Equal(t, payload, out[:])

	count, res = s.Count(256)
	require.Equal(t, ResultOK, res)
	assert.Equal(t, uint32(0), count)

	offset, length, ok := link.lastRequest()
	require.True(t, ok)
	assert.Equal(t, uint32(256), offset)
	assert.Equal(t, uint16(768), length)
}

func TestLinkLossForcesClose(t *testing.T) {
	link := &fakeLink{}
	mgr := NewManager(nil)
	s := mgr.Open(link, 1024, 0)

	for ms := uint32(0); ms < linkTimeoutMs; ms += 50 {
		mgr.Tick(50)
	}

	assert.True(t, s.Removed())

	var closeSent bool
	for _, pkt := range link.sent {
		if len(pkt) >= 2 && pkt[0] == pktClose && pkt[1] == s.ID() {
			closeSent = true
		}
	}
	assert.True(t, closeSent)

	res := s.Read(0, make([]byte, 1), 1, nil)
	assert.Equal(t, ResultClosed, res)
}

func TestLivelinessSurvivesPeriodicAlive(t *testing.T) {
	link := &fakeLink{}
	mgr := NewManager(nil)
	s := mgr.Open(link, 1024, 0)

	for i := 0; i < 20; i++ {
		mgr.Dispatch([]byte{pktAlive, s.ID()})
		mgr.Tick(100)
	}

	assert.False(t, s.Removed())
	assert.False(t, s.linkTimedOut)
}

func TestNotEnoughDataWithoutShortOutput(t *testing.T) {
	link := &fakeLink{}
	mgr := NewManager(nil)
	s := mgr.Open(link, 1024, 0)

	res := s.Read(0, make([]byte, 10), 10, nil)
	assert.Equal(t, ResultNotEnoughData, res)
}

func TestShortReadSucceedsWithPartialData(t *testing.T) {
	link := &fakeLink{}
	mgr := NewManager(nil)
	// A stream whose whole length fits inside the single outstanding
	// window: the 4-byte DATA packet completes that window immediately, so
	// the partial buffer holding it is promoted to ready even though it
	// never filled to capacity.
	s := mgr.Open(link, 4, 0)

	payload := []byte{1, 2, 3, 4}
	mgr.Dispatch(dataPacket(s.ID(), 0, payload))
	mgr.Tick(1)

	out := make([]byte, 10)
	var n int
	res := s.Read(0, out, 10, &n)
	require.Equal(t, ResultOK, res)
	assert.Equal(t, 4, n)
	assert.Equal(t, payload, out[:n])
}

func TestManagerAllocatesDistinctIDs(t *testing.T) {
	link := &fakeLink{}
	mgr := NewManager(nil)
	a := mgr.Open(link, 64, 0)
	b := mgr.Open(link, 64, 0)
	assert.NotEqual(t, a.ID(), b.ID())
}
