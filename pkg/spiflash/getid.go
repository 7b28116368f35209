package spiflash

// stepGetID implements: CS-low -> transmit-receive {0x9F,0,0,0} -> copy
// 3-byte id -> CS-high -> complete.
func (d *Driver) stepGetID() {
	switch d.state {
	case stateGetIDSelect:
		_ = d.host.ChipSelect(Low)
		d.cmdBuf[0], d.cmdBuf[1], d.cmdBuf[2], d.cmdBuf[3] = cmdReadJedecID, 0, 0, 0
		d.issueTransmitReceive(d.cmdBuf[:4])
		d.state = stateGetIDTransfer

	case stateGetIDTransfer:
		if !d.ioDone() {
			return
		}
		d.active.ID[0] = d.cmdBuf[1]
		d.active.ID[1] = d.cmdBuf[2]
		d.active.ID[2] = d.cmdBuf[3]
		d.state = stateGetIDDeselect

	case stateGetIDDeselect:
		// Auto-configure geometry from the id just read. The get-id itself
		// completes with ok whether or not the id is recognized; an
		// unrecognized id leaves the driver unconfigured, and an explicit
		// Configure call reports not-supported for it.
		_, _ = d.Configure(d.active.ID)
		d.complete(ResultOK)
	}
}
