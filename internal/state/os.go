package state

import (
	"github.com/Tinnci/dnx-go/events"
	"github.com/Tinnci/dnx-go/payload"
	"github.com/Tinnci/dnx-go/protocol"
)

// handleDORM enters OS recovery mode.
func (d *Dispatcher) handleDORM() (Result, error) {
	d.log(events.LevelInfo, "entering OS recovery mode")
	d.State.GotoState(StateOsNormal)
	return ResultContinue, nil
}

// handleROSIP sends the 512-byte OSIP table and arms the OS image
// cursor for the RIMG requests that follow.
func (d *Dispatcher) handleROSIP() (Result, error) {
	d.log(events.LevelDebug, "sending OSIP partition table")

	os := d.Inputs.OsImage
	if os == nil {
		d.log(events.LevelWarn, "no OS image available for ROSIP")
		return ResultContinue, nil
	}

	if err := d.send("OSIP", os.OsipBytes()); err != nil {
		return ResultContinue, err
	}
	d.State.OsCursor = payload.NewChunkCursor(len(os.ImageData()), protocol.ChunkSize128K)
	return ResultContinue, nil
}

// handleRIMG sends the next OS image chunk.
func (d *Dispatcher) handleRIMG() (Result, error) {
	os := d.Inputs.OsImage
	if os == nil {
		d.log(events.LevelWarn, "no OS image available for RIMG")
		return ResultContinue, nil
	}

	chunk, ok := d.State.OsCursor.Next(os.ImageData())
	if !ok {
		d.log(events.LevelDebug, "OS image already exhausted")
		return ResultContinue, nil
	}

	if err := d.send("OS image", chunk); err != nil {
		return ResultContinue, err
	}
	d.emit(events.Progress{
		Phase:     events.PhaseOsDownload,
		Operation: "OS Image",
		Current:   uint64(d.State.OsCursor.Current),
		Total:     uint64(d.State.OsCursor.Total),
	})
	return ResultContinue, nil
}

// handleEOIU acknowledges the end of the OS image transfer.
func (d *Dispatcher) handleEOIU() (Result, error) {
	d.log(events.LevelInfo, "OS image transfer complete")
	return ResultContinue, nil
}
