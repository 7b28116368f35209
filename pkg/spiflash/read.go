package spiflash

// stepRead implements: CS-low -> transmit-receive 4-byte
// command+24-bit-address (response discarded) -> transmit-receive `size`
// bytes into req.Data -> CS-high -> complete. Both transfers happen under
// a single chip-select assertion.
func (d *Driver) stepRead() {
	req := d.active

	switch d.state {
	case stateReadSelect:
		_ = d.host.ChipSelect(Low)
		d.cmdBuf[0] = cmdRead
		d.cmdBuf[1] = byte(req.Address >> 16)
		d.cmdBuf[2] = byte(req.Address >> 8)
		d.cmdBuf[3] = byte(req.Address)
		d.issueTransmitReceive(d.cmdBuf[:4])
		d.state = stateReadCommand

	case stateReadCommand:
		if !d.ioDone() {
			return
		}
		if req.Size == 0 {
			d.state = stateReadDeselect
			return
		}
		d.issueTransmitReceive(req.Data[:req.Size])
		d.state = stateReadData

	case stateReadData:
		if !d.ioDone() {
			return
		}
		d.state = stateReadDeselect

	case stateReadDeselect:
		d.complete(ResultOK)
	}
}
