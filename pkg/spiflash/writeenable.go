package spiflash

// stepWriteEnable implements the shared CS-low -> WRITE-ENABLE -> CS-high
// preamble used before every page program and every erase command, then
// hands control to whichever state the caller staged in afterWriteEnable.
func (d *Driver) stepWriteEnable() {
	switch d.state {
	case stateWriteEnableSelect:
		_ = d.host.ChipSelect(Low)
		d.cmdBuf[0] = cmdWriteEnable
		d.issueTransmit(d.cmdBuf[:1])
		d.state = stateWriteEnableTransmit

	case stateWriteEnableTransmit:
		if !d.ioDone() {
			return
		}
		d.state = stateWriteEnableDeselect

	case stateWriteEnableDeselect:
		_ = d.host.ChipSelect(High)
		d.state = d.afterWriteEnable
	}
}
