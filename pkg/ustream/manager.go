package ustream

import (
	"github.com/sirupsen/logrus"
)

// Manager owns the live stream table: stream-id allocation, lookup, and
// fan-out of the slow tick. This is the supervisory bookkeeping layer a
// caller would otherwise have to hand-roll around individual Streams.
type Manager struct {
	logger  *logrus.Entry
	streams []*Stream
	next    byte
}

// NewManager constructs an empty stream table. logger may be nil.
func NewManager(logger *logrus.Entry) *Manager {
	if logger == nil {
		logger = logrus.WithField("component", "ustream")
	}
	return &Manager{logger: logger}
}

// Open allocates a stream-id (scanning the live list with a rolling
// counter, incrementing past collisions), constructs a Stream bound to
// host, and starts it receiving a transfer of the given length/crc.
func (m *Manager) Open(host Host, length uint32, expectedCRC uint32) *Stream {
	id := m.allocateID()
	s := newStream(id, host, m.logger.WithField("stream", id))
	m.streams = append(m.streams, s)
	s.Start(length, expectedCRC)
	return s
}

func (m *Manager) allocateID() byte {
	for {
		id := m.next
		m.next++
		if m.liveIDInUse(id) {
			continue
		}
		return id
	}
}

func (m *Manager) liveIDInUse(id byte) bool {
	for _, s := range m.streams {
		if !s.Removed() && s.ID() == id {
			return true
		}
	}
	return false
}

// Stream looks up a live or recently-removed stream by id.
func (m *Manager) Stream(id byte) (*Stream, bool) {
	for _, s := range m.streams {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// Dispatch routes an incoming packet to the stream named by its byte-1
// stream-id field. Safe to call from interrupt-equivalent context, since
// it only reaches HandleIncoming.
func (m *Manager) Dispatch(packet []byte) {
	if len(packet) < 2 {
		return
	}
	id := packet[1]
	for _, s := range m.streams {
		if s.ID() == id && !s.Removed() {
			s.HandleIncoming(packet)
			return
		}
	}
}

// Tick advances every live stream's timers; the slow-tick entry point.
func (m *Manager) Tick(elapsedMs uint32) {
	for _, s := range m.streams {
		s.Tick(elapsedMs)
	}
}

// Prune drops removed streams from the table, freeing their memory. Not
// required by the core spec but keeps long-lived callers from growing the
// table unbounded.
func (m *Manager) Prune() {
	live := m.streams[:0]
	for _, s := range m.streams {
		if !s.Removed() {
			live = append(live, s)
		}
	}
	m.streams = live
}
