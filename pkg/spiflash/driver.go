package spiflash

import (
	"github.com/sirupsen/logrus"
)

// Level is the logic level asserted on chip-select.
type Level uint8

const (
	Low Level = iota
	High
)

// HostStatus reports whether the host's SPI peripheral can accept a new
// transaction right now.
type HostStatus uint8

const (
	StatusReady HostStatus = iota
	StatusBusy
)

// Host is the set of collaborators the host platform must provide.
// ChipSelect/Transmit/TransmitReceive must not block — completion of
// Transmit/TransmitReceive is reported asynchronously by the host calling
// TxDone/TxRxDone on the Driver from interrupt context.
type Host interface {
	ChipSelect(level Level) error
	Transmit(tx []byte) error
	TransmitReceive(tx, rx []byte) error
	Status() HostStatus
}

// Request is a caller-allocated, caller-owned description of one
// operation. Its address must stay stable and it must not be mutated by
// the caller from Submit until OnComplete returns.
type Request struct {
	Op      Op
	Address uint32
	Data    []byte // read destination or write source, len == Size
	Size    uint32

	// ID receives the 3-byte JEDEC id for OpGetID.
	ID [3]byte

	Result     Result
	Complete   bool
	OnComplete func(*Request)
}

type ioKind uint8

const (
	ioNone ioKind = iota
	ioTx
	ioTxRx
)

// Driver drives a single serial NOR flash device. It owns one
// process-wide active-request slot; only one Request may be in flight.
type Driver struct {
	host   Host
	logger *logrus.Entry

	info    Info
	hasInfo bool

	active *Request
	owner  any

	state driverState

	ioIssued   bool
	ioPending  ioKind
	ticksAwait int
	txDone     bool
	txrxDone   bool

	cmdBuf [20]byte

	afterWriteEnable driverState
	pollPurpose      pollPurpose

	curAddress     uint32
	bytesRemaining uint32
	dataOffset     uint32
	pageSpace      uint32

	readPhase int

	eraseChip bool
}

// pollPurpose tells the shared status-poll sub-machine what to do once
// BSY and WEL both read clear.
type pollPurpose uint8

const (
	pollPurposeWriteContinue pollPurpose = iota
	pollPurposeEraseDone
)

// New constructs a driver bound to host. logger may be nil, in which case
// a default logrus entry is used.
func New(host Host, logger *logrus.Entry) *Driver {
	if logger == nil {
		logger = logrus.WithField("component", "spiflash")
	}
	return &Driver{host: host, logger: logger, state: stateIdle}
}

// TxDone is called by the host from interrupt context when a Transmit
// completes. It only sets a flag; it must never call back into the state
// machine directly.
func (d *Driver) TxDone() { d.txDone = true }

// TxRxDone is called by the host from interrupt context when a
// TransmitReceive completes.
func (d *Driver) TxRxDone() { d.txrxDone = true }

// Configure installs flash geometry for subsequent Read/Write/Erase size
// math, looking jedecID up in the built-in (and any loaded override)
// table. It returns ResultNotSupported for an unrecognized id without
// touching the driver's prior configuration.
func (d *Driver) Configure(jedecID [3]byte) (Info, Result) {
	info, ok := lookup(jedecID)
	if !ok {
		d.logger.WithField("jedec_id", jedecID).Warn("unrecognized flash id")
		return Info{}, ResultNotSupported
	}
	d.info = info
	d.hasInfo = true
	return info, ResultOK
}

// Info returns the currently configured flash geometry, if any.
func (d *Driver) Info() (Info, bool) { return d.info, d.hasInfo }

// Submit enqueues req as the active request, owned by owner. It returns
// ResultInUse if a different owner's request is in flight, ResultBusy if
// the same owner already has one in flight, or ResultOK once req has been
// accepted (completion is reported later via req.OnComplete).
func (d *Driver) Submit(owner any, req *Request) Result {
	if d.active != nil {
		if d.owner == owner {
			return ResultBusy
		}
		return ResultInUse
	}

	req.Result = ResultOK
	req.Complete = false
	d.active = req
	d.owner = owner
	d.ioIssued = false
	d.ioPending = ioNone
	d.ticksAwait = 0
	d.txDone = false
	d.txrxDone = false

	switch req.Op {
	case OpGetID:
		d.state = stateGetIDSelect
	case OpRead:
		d.curAddress = req.Address
		d.dataOffset = 0
		d.readPhase = 0
		d.state = stateReadSelect
	case OpWrite:
		if !d.hasInfo {
			d.failSync(req, ResultNotSupported)
			return ResultOK
		}
		d.curAddress = req.Address
		d.bytesRemaining = req.Size
		d.dataOffset = 0
		d.afterWriteEnable = stateProgramSelect
		d.state = stateWriteEnableSelect
	case OpEraseSector:
		if !d.hasInfo {
			d.failSync(req, ResultNotSupported)
			return ResultOK
		}
		d.curAddress = req.Address
		d.eraseChip = false
		d.afterWriteEnable = stateEraseSelect
		d.state = stateWriteEnableSelect
	case OpEraseChip:
		d.eraseChip = true
		d.afterWriteEnable = stateEraseSelect
		d.state = stateWriteEnableSelect
	}
	return ResultOK
}

// failSync completes req synchronously (used for submit-time validation
// failures that never touch the bus).
func (d *Driver) failSync(req *Request, result Result) {
	req.Result = result
	req.Complete = true
	d.active = nil
	d.owner = nil
	d.state = stateIdle
	if req.OnComplete != nil {
		req.OnComplete(req)
	}
}

// complete finalizes the active request with result, releases
// chip-select, and invokes the completion callback exactly once.
func (d *Driver) complete(result Result) {
	req := d.active
	_ = d.host.ChipSelect(High)
	d.state = stateIdle
	d.active = nil
	d.owner = nil
	req.Result = result
	req.Complete = true
	cb := req.OnComplete
	if cb != nil {
		cb(req)
	}
}

// issueTransmit begins a Transmit and arms the completion flag.
func (d *Driver) issueTransmit(buf []byte) {
	d.txDone = false
	d.ioPending = ioTx
	d.ticksAwait = 0
	if err := d.host.Transmit(buf); err != nil {
		d.logger.WithError(err).Warn("spi transmit failed")
	}
}

// issueTransmitReceive begins a TransmitReceive and arms the completion
// flag.
func (d *Driver) issueTransmitReceive(buf []byte) {
	d.txrxDone = false
	d.ioPending = ioTxRx
	d.ticksAwait = 0
	if err := d.host.TransmitReceive(buf, buf); err != nil {
		d.logger.WithError(err).Warn("spi transmit-receive failed")
	}
}

// ioDone reports whether the pending transaction's completion flag has
// been set by the ISR, clearing it if so.
func (d *Driver) ioDone() bool {
	switch d.ioPending {
	case ioTx:
		if d.txDone {
			d.txDone = false
			d.ioPending = ioNone
			return true
		}
	case ioTxRx:
		if d.txrxDone {
			d.txrxDone = false
			d.ioPending = ioNone
			return true
		}
	}
	return false
}

// Service is the fast-tick entry point: it advances the active state
// machine by at most the work needed to either complete, block on I/O, or
// reach the next natural boundary.
func (d *Driver) Service() {
	if d.state == stateIdle || d.active == nil {
		return
	}
	d.step()
}

// Tick is the slow-tick entry point: it advances the per-transaction
// timeout while a TransmitReceive/Transmit is outstanding.
func (d *Driver) Tick() {
	if d.active == nil || d.ioPending == ioNone {
		return
	}
	d.ticksAwait++
	if d.ticksAwait >= transactionTimeoutTicks {
		d.logger.WithField("op", d.active.Op).Warn("spi transaction timed out")
		d.ioPending = ioNone
		d.complete(ResultTimeout)
	}
}
