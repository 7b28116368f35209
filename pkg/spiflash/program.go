package spiflash

// stepProgram implements one page-program cycle: CS-low -> transmit
// PAGE-PROGRAM+address -> transmit payload (min(remaining, page-space)
// bytes) -> wait for the SPI peripheral to report not-busy -> CS-high ->
// hand off to the shared status-poll loop. Page-space is computed so no
// single program command crosses a page boundary.
func (d *Driver) stepProgram() {
	req := d.active

	switch d.state {
	case stateProgramSelect:
		_ = d.host.ChipSelect(Low)
		d.cmdBuf[0] = cmdPageProgram
		d.cmdBuf[1] = byte(d.curAddress >> 16)
		d.cmdBuf[2] = byte(d.curAddress >> 8)
		d.cmdBuf[3] = byte(d.curAddress)
		d.issueTransmit(d.cmdBuf[:4])
		d.state = stateProgramCmd

	case stateProgramCmd:
		if !d.ioDone() {
			return
		}
		pageSize := uint32(d.info.PageSize)
		pageSpace := pageSize - (d.curAddress & (pageSize - 1))
		d.pageSpace = min32(d.bytesRemaining, pageSpace)
		d.issueTransmit(req.Data[d.dataOffset : d.dataOffset+d.pageSpace])
		d.state = stateProgramTransfer

	case stateProgramTransfer:
		if !d.ioDone() {
			return
		}
		d.state = stateProgramWaitComplete

	case stateProgramWaitComplete:
		if d.host.Status() == StatusBusy {
			return
		}
		d.state = stateProgramDeselect

	case stateProgramDeselect:
		_ = d.host.ChipSelect(High)
		d.curAddress += d.pageSpace
		d.dataOffset += d.pageSpace
		d.bytesRemaining -= d.pageSpace
		d.pollPurpose = pollPurposeWriteContinue
		d.state = stateStatusPollSelect
	}
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
