package spiflash

// stepStatusPoll implements the shared "poll READ-STATUS until BSY=0 and
// WEL=0" loop used after both page programming and erase. Each poll is its
// own CS-low/transceive/CS-high transaction; the loop spans many ticks
// rather than spinning within one.
func (d *Driver) stepStatusPoll() {
	switch d.state {
	case stateStatusPollSelect:
		_ = d.host.ChipSelect(Low)
		d.cmdBuf[0] = cmdReadStatus
		d.cmdBuf[1] = 0
		d.issueTransmitReceive(d.cmdBuf[:2])
		d.state = stateStatusPollTransfer

	case stateStatusPollTransfer:
		if !d.ioDone() {
			return
		}
		d.state = stateStatusPollEvaluate

	case stateStatusPollEvaluate:
		status := d.cmdBuf[1]
		_ = d.host.ChipSelect(High)
		if status&(statusBusy|statusWEL) != 0 {
			// Not yet idle: reissue the poll on the next tick.
			d.state = stateStatusPollSelect
			return
		}
		d.state = stateStatusPollDeselect

	case stateStatusPollDeselect:
		switch d.pollPurpose {
		case pollPurposeWriteContinue:
			if d.bytesRemaining > 0 {
				d.afterWriteEnable = stateProgramSelect
				d.state = stateWriteEnableSelect
				return
			}
			d.complete(ResultOK)
		case pollPurposeEraseDone:
			d.complete(ResultOK)
		}
	}
}
