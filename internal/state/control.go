package state

import "github.com/Tinnci/dnx-go/events"

// handleRESET records the announced GPP reset. The device drops off the
// bus and re-enumerates; the session rides it out and reconnects.
func (d *Dispatcher) handleRESET() (Result, error) {
	d.log(events.LevelInfo, "received RESET - device will re-enumerate")
	d.State.FwDone = true
	d.State.GppReset = true
	return ResultNeedReEnumerate, nil
}

// handleHLTSuccess records a successful firmware update.
func (d *Dispatcher) handleHLTSuccess() (Result, error) {
	d.log(events.LevelInfo, "firmware update successful")
	d.State.FwDone = true
	d.State.IfwiDone = true
	return ResultFwDone, nil
}

// handleHLT0 records the benign zero-size halt.
func (d *Dispatcher) handleHLT0() (Result, error) {
	d.log(events.LevelWarn, "DnX FW or IFWI size is 0")
	d.State.FwDone = true
	return ResultFwDone, nil
}

// handleDONE records overall completion.
func (d *Dispatcher) handleDONE() (Result, error) {
	d.log(events.LevelInfo, "all operations complete")
	d.State.OsDone = true
	d.emit(events.Complete{})
	return ResultComplete, nil
}
