// Package spiflash implements a non-blocking, tick-serviced driver for a
// serial NOR flash device: identification, sector/whole-chip erase,
// page-aware programming, and arbitrary-length reads. The driver issues no
// blocking calls; every operation advances a state machine one step per
// call to Service, completing asynchronously through a callback.
package spiflash

import "fmt"

// wire command bytes.
const (
	cmdReadJedecID = 0x9F
	cmdRead        = 0x03
	cmdPageProgram = 0x02
	cmdReadStatus  = 0x05
	cmdWriteEnable = 0x06
	cmdSectorErase = 0x20
	cmdChipErase   = 0x60
)

// status register bits returned by cmdReadStatus.
const (
	statusBusy uint8 = 0x01
	statusWEL  uint8 = 0x02
)

// transactionTimeoutTicks is the per-SPI-transaction timeout, expressed in
// slow-tick units.
const transactionTimeoutTicks = 10

// Op identifies which operation a Request carries.
type Op uint8

const (
	OpGetID Op = iota
	OpRead
	OpWrite
	OpEraseSector
	OpEraseChip
)

func (o Op) String() string {
	switch o {
	case OpGetID:
		return "get-id"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpEraseSector:
		return "erase-sector"
	case OpEraseChip:
		return "erase-chip"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of a Request, set once before its
// completion callback runs.
type Result uint8

const (
	ResultOK Result = iota
	ResultInUse
	ResultBusy
	ResultTimeout
	ResultNotSupported
)

var resultDescriptions = map[Result]string{
	ResultOK:           "ok",
	ResultInUse:        "driver in use by another owner",
	ResultBusy:         "driver busy with a request from the same owner",
	ResultTimeout:      "SPI transaction timed out",
	ResultNotSupported: "unrecognized flash jedec id",
}

// Description returns a short human-readable description of the result.
func (r Result) Description() string {
	if d, ok := resultDescriptions[r]; ok {
		return d
	}
	return "unknown result"
}

func (r Result) Error() string {
	return fmt.Sprintf("spiflash: %s", r.Description())
}

// driverState steps the single shared state machine. Only one state is
// active at a time; idle means chip-select is released and no request is
// in flight.
type driverState uint8

const (
	stateIdle driverState = iota

	stateGetIDSelect
	stateGetIDTransfer
	stateGetIDDeselect

	stateReadSelect
	stateReadCommand
	stateReadData
	stateReadDeselect

	stateWriteEnableSelect
	stateWriteEnableTransmit
	stateWriteEnableDeselect

	stateProgramSelect
	stateProgramCmd
	stateProgramTransfer
	stateProgramWaitComplete
	stateProgramDeselect

	stateStatusPollSelect
	stateStatusPollTransfer
	stateStatusPollEvaluate
	stateStatusPollDeselect

	stateEraseSelect
	stateEraseTransfer
	stateEraseDeselect

	stateAbort
)
