package ustream

import (
	"github.com/sirupsen/logrus"

	"github.com/vela-embedded/flashio/pkg/bufchain"
)

// Stream is one pull-based receiver for a byte sequence of known length
// delivered in a window the stream itself reserves via DATA-REQUEST.
type Stream struct {
	id     byte
	host   Host
	logger *logrus.Entry

	length       uint32
	expectedCRC  uint32
	started      bool
	streamOffset uint32

	free  bufchain.Chain
	ready bufchain.Chain

	requestOutstanding bool
	reqOffset          uint32
	reqLength          uint32

	msSinceTraffic         uint32
	msSinceOwnTraffic      uint32
	msSinceRequestProgress uint32

	opened       bool
	closed       bool
	cancelled    bool
	linkTimedOut bool
	removed      bool

	incoming [][]byte
}

func newStream(id byte, host Host, logger *logrus.Entry) *Stream {
	return &Stream{id: id, host: host, logger: logger}
}

// ID returns the stream's 1-byte identifier.
func (s *Stream) ID() byte { return s.id }

// Removed reports whether the stream has transitioned to its terminal
// state (CLOSE transmitted, no longer addressable for incoming packets).
func (s *Stream) Removed() bool { return s.removed }

// Start begins receiving a transfer of the given length. expectedCRC is
// stored with the stream; received bytes are not checked against it.
func (s *Stream) Start(length uint32, expectedCRC uint32) {
	s.length = length
	s.expectedCRC = expectedCRC
	s.started = true
	s.free = bufchain.Chain{}
	s.ready = bufchain.Chain{}
	for i := 0; i < WindowBuffers; i++ {
		b := bufchain.NewBuffer(BufferCapacity)
		b.Reset(uint32(i) * BufferCapacity)
		s.free.PushBack(b)
	}
	s.maybeRequest(true)
}

// Open latches the opened flag.
func (s *Stream) Open() Result {
	if s.removed {
		return ResultClosed
	}
	s.opened = true
	return ResultOK
}

// Close latches the closed flag; the transition to removed happens on the
// next Tick once CLOSE has been transmitted.
func (s *Stream) Close() Result {
	if s.removed {
		return ResultClosed
	}
	s.closed = true
	return ResultOK
}

// Cancel latches the cancelled flag, forcing the same close path as a
// link timeout: an explicit user-triggered cancel alongside the normal
// read-stream interface.
func (s *Stream) Cancel() Result {
	if s.removed {
		return ResultClosed
	}
	s.cancelled = true
	return ResultOK
}

// Count returns bytes contiguously available starting at offset, advancing
// stream-offset as a side effect and possibly issuing a new DATA-REQUEST.
func (s *Stream) Count(offset uint32) (uint32, Result) {
	if s.removed {
		return 0, ResultClosed
	}
	s.advance(offset)
	return s.readyCountFrom(offset), ResultOK
}

// Read copies up to length bytes starting at offset into out. If short is
// non-nil, it receives the actual count and Read succeeds for any
// available amount; otherwise Read fails with ResultNotEnoughData when
// fewer than length bytes are ready.
func (s *Stream) Read(offset uint32, out []byte, length int, short *int) Result {
	if s.removed {
		return ResultClosed
	}
	s.advance(offset)
	avail := s.readyCountFrom(offset)
	n := uint32(length)
	if avail < n {
		if short == nil {
			return ResultNotEnoughData
		}
		n = avail
	}
	copied := s.copyFromReady(offset, out[:n])
	if short != nil {
		*short = int(copied)
	}
	return ResultOK
}

// HandleIncoming enqueues a received packet for processing on the next
// Tick. Safe to call from interrupt-equivalent receive-notification
// context: it only appends to a slice, never touches the state machine
// directly.
func (s *Stream) HandleIncoming(packet []byte) {
	cp := append([]byte(nil), packet...)
	s.incoming = append(s.incoming, cp)
}

// Tick advances the stream's timers by elapsedMs and drains any incoming
// packets; it is the slow-tick entry point.
func (s *Stream) Tick(elapsedMs uint32) {
	if s.removed {
		return
	}

	s.msSinceTraffic += elapsedMs
	s.msSinceOwnTraffic += elapsedMs
	if s.requestOutstanding {
		s.msSinceRequestProgress += elapsedMs
	}

	s.drainIncoming()

	if s.msSinceTraffic >= linkTimeoutMs {
		s.linkTimedOut = true
	}

	if s.closed || s.cancelled || s.linkTimedOut {
		s.transmit(encodeClose(s.id))
		s.removed = true
		return
	}

	if s.requestOutstanding && s.msSinceRequestProgress >= requestTimeout {
		s.requestOutstanding = false
		s.maybeRequest(true)
	}

	if s.msSinceOwnTraffic >= keepAliveMs {
		s.transmit(encodeKeepAlive(s.id))
	}
}

func (s *Stream) drainIncoming() {
	if len(s.incoming) == 0 {
		return
	}
	pkts := s.incoming
	s.incoming = nil
	for _, pkt := range pkts {
		if d, ok := decodeData(pkt); ok {
			s.handleData(d)
			continue
		}
		if _, ok := decodeAlive(pkt); ok {
			s.msSinceTraffic = 0
		}
	}
}

func (s *Stream) handleData(d decodedData) {
	s.msSinceTraffic = 0

	s.free.Absorb(d.offset, d.payload, nil)

	windowEnd := d.offset + uint32(len(d.payload))
	windowDone := uint64(windowEnd) >= uint64(s.reqOffset)+uint64(s.reqLength)

	for {
		head := s.free.Head()
		if head == nil {
			break
		}
		if head.Full() {
			s.free.PopFront()
			s.ready.PushBack(head)
			continue
		}
		// A partially-filled buffer is only promoted once the request
		// window that was feeding it has been fully delivered, and only
		// once it has stopped receiving further bytes this round (its
		// fill boundary sits exactly at the window's end).
		if windowDone && head.Fill() > 0 && head.End() == windowEnd {
			s.free.PopFront()
			s.ready.PushBack(head)
		}
		break
	}

	if windowDone {
		s.requestOutstanding = false
		s.maybeRequest(true)
	}
}

// maybeRequest computes the next-needed-offset and, if the window needs
// refreshing, reorganizes the free pool and issues a DATA-REQUEST. force
// bypasses the no-op check used when the request is a genuine re-request
// (timeout, or the outstanding window was just fully delivered) rather
// than an opportunistic re-evaluation.
func (s *Stream) maybeRequest(force bool) {
	if s.removed {
		return
	}
	nextNeeded := s.streamOffset + s.readyCountFrom(s.streamOffset)
	if nextNeeded >= s.length {
		return
	}
	if !force && s.requestOutstanding && nextNeeded == s.reqOffset {
		return
	}

	bufs := s.reorganizeFree(nextNeeded)

	freeCap := uint32(len(bufs)) * BufferCapacity
	reqLen := freeCap
	if remain := s.length - nextNeeded; remain < reqLen {
		reqLen = remain
	}
	if reqLen == 0 {
		return
	}

	s.reqOffset, s.reqLength = nextNeeded, reqLen
	s.requestOutstanding = true
	s.msSinceRequestProgress = 0
	s.transmit(encodeDataRequest(s.id, nextNeeded, uint16(reqLen)))
}

// reorganizeFree retags every buffer still sitting in the free pool to a
// fresh, strictly increasing, contiguous run of offsets starting at
// nextNeeded, discarding whatever they previously held, and re-links them
// in that order. Called only once a new request is actually being issued:
// the free pool is about to receive a brand new window, so anything still
// sitting in it is stale.
func (s *Stream) reorganizeFree(nextNeeded uint32) []*bufchain.Buffer {
	bufs := s.free.Buffers()
	for i, b := range bufs {
		b.Reset(nextNeeded + uint32(i)*BufferCapacity)
	}
	s.free.SetBuffers(bufs)
	return bufs
}

// advance moves stream-offset to offset, returning any ready buffers that
// fall entirely behind it to the free pool, then re-evaluates whether a
// request is needed. The three-way interval union decides whether offset
// is a genuine gap (nothing ready, free, or already requested covers it)
// warranting an immediate forced request, as opposed to the ordinary
// opportunistic resizing that runs regardless.
func (s *Stream) advance(offset uint32) {
	if offset > s.streamOffset {
		for {
			head := s.ready.Head()
			if head == nil || head.End() > offset {
				break
			}
			s.ready.PopFront()
			s.free.PushBack(head)
		}
	}
	s.streamOffset = offset

	if s.gapAt(offset) {
		s.maybeRequest(true)
		return
	}
	s.maybeRequest(false)
}

// gapAt reports whether offset falls outside the union of the ready
// chain's span, the free pool's currently tagged span, and the
// outstanding request's window.
func (s *Stream) gapAt(offset uint32) bool {
	var readyIv, freeIv, outstandingIv interval
	if !s.ready.Empty() {
		lo, hi := s.ready.Span()
		readyIv = interval{Lo: lo, Hi: hi}
	}
	if !s.free.Empty() {
		lo, hi := s.free.Span()
		freeIv = interval{Lo: lo, Hi: hi}
	}
	if s.requestOutstanding {
		outstandingIv = interval{Lo: s.reqOffset, Hi: s.reqOffset + s.reqLength}
	}
	u := unionFront(readyIv, freeIv, outstandingIv)
	return offset < u.Lo || offset >= u.Hi
}

// readyCountFrom returns how many contiguous bytes the ready chain holds
// starting at offset.
func (s *Stream) readyCountFrom(offset uint32) uint32 {
	var count uint32
	var expectNext uint32
	started := false
	for b := s.ready.Head(); b != nil; b = b.Next {
		if !started {
			if offset >= b.Offset && offset < b.End() {
				count = b.End() - offset
				expectNext = b.End()
				started = true
			}
			continue
		}
		if b.Offset != expectNext {
			break
		}
		count += uint32(b.Fill())
		expectNext = b.End()
	}
	return count
}

// copyFromReady copies len(dst) bytes starting at absolute offset out of
// the ready chain, assuming readyCountFrom(offset) >= len(dst).
func (s *Stream) copyFromReady(offset uint32, dst []byte) uint32 {
	var tmp [BufferCapacity]byte
	var written uint32
	for b := s.ready.Head(); b != nil && written < uint32(len(dst)); b = b.Next {
		target := offset + written
		if target < b.Offset {
			break
		}
		if target >= b.End() {
			continue
		}
		n := b.Bytes(tmp[:b.Fill()])
		start := target - b.Offset
		avail := uint32(n) - start
		want := uint32(len(dst)) - written
		if avail < want {
			want = avail
		}
		copy(dst[written:written+want], tmp[start:start+want])
		written += want
	}
	return written
}

func (s *Stream) transmit(pkt []byte) {
	if err := s.host.Send(pkt); err != nil {
		s.logger.WithError(err).Warn("ustream: send failed")
	}
	s.msSinceOwnTraffic = 0
}
