package spiflash

// step runs the handler for the current state once and returns, so a
// sequence of states advances one state per Service call. A select state
// asserts CS and issues its command in the same call; any state waiting on
// ioDone or host.Status() does at most one check per call.
func (d *Driver) step() {
	switch d.state {
	case stateGetIDSelect, stateGetIDTransfer, stateGetIDDeselect:
		d.stepGetID()

	case stateReadSelect, stateReadCommand, stateReadData, stateReadDeselect:
		d.stepRead()

	case stateWriteEnableSelect, stateWriteEnableTransmit, stateWriteEnableDeselect:
		d.stepWriteEnable()

	case stateProgramSelect, stateProgramCmd, stateProgramTransfer, stateProgramWaitComplete, stateProgramDeselect:
		d.stepProgram()

	case stateStatusPollSelect, stateStatusPollTransfer, stateStatusPollEvaluate, stateStatusPollDeselect:
		d.stepStatusPoll()

	case stateEraseSelect, stateEraseTransfer, stateEraseDeselect:
		d.stepErase()

	case stateAbort:
		d.complete(ResultTimeout)
	}
}
