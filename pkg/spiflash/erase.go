package spiflash

// stepErase implements the erase command transaction shared by
// erase-sector and erase-chip: CS-low -> transmit SECTOR-ERASE+address (or
// CHIP-ERASE with no address) -> CS-high -> hand off to the shared
// status-poll loop.
func (d *Driver) stepErase() {
	switch d.state {
	case stateEraseSelect:
		_ = d.host.ChipSelect(Low)
		if d.eraseChip {
			d.cmdBuf[0] = cmdChipErase
			d.issueTransmit(d.cmdBuf[:1])
		} else {
			d.cmdBuf[0] = cmdSectorErase
			d.cmdBuf[1] = byte(d.curAddress >> 16)
			d.cmdBuf[2] = byte(d.curAddress >> 8)
			d.cmdBuf[3] = byte(d.curAddress)
			d.issueTransmit(d.cmdBuf[:4])
		}
		d.state = stateEraseTransfer

	case stateEraseTransfer:
		if !d.ioDone() {
			return
		}
		d.state = stateEraseDeselect

	case stateEraseDeselect:
		_ = d.host.ChipSelect(High)
		d.pollPurpose = pollPurposeEraseDone
		d.state = stateStatusPollSelect
	}
}
