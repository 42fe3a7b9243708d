package state

import (
	"fmt"

	"github.com/Tinnci/dnx-go/events"
	"github.com/Tinnci/dnx-go/payload"
	"github.com/Tinnci/dnx-go/protocol"
)

// handleDFRM answers the virgin-part announcement. With IFWI wipe
// enabled a virgin part needs no wipe, so the FW stage ends without a
// single write.
func (d *Dispatcher) handleDFRM() (Result, error) {
	d.log(events.LevelInfo, "virgin part detected - starting firmware download")

	if d.State.IfwiWipe {
		d.log(events.LevelInfo, "part is virgin, no IFWI to wipe")
		d.State.FwDone = true
		d.State.IfwiDone = false
		return ResultFwDone, nil
	}

	d.emit(events.PhaseChanged{From: events.PhaseHandshake, To: events.PhaseFirmwareDownload})
	d.State.GotoState(StateFwNormal)
	return ResultContinue, nil
}

// handleDxxM answers the non-virgin announcement with the dynamic
// 24-byte DnX header derived from the loader size and GP flags.
func (d *Dispatcher) handleDxxM() (Result, error) {
	d.log(events.LevelInfo, "non-virgin part detected")

	isDnxOs := d.State.GPFlags&0x20 != 0
	switch {
	case d.State.IfwiWipe:
		d.State.GotoState(StateFwWipe)
	case isDnxOs:
		d.State.GotoState(StateFwMisc)
	default:
		d.State.GotoState(StateFwNormal)
	}

	d.emit(events.PhaseChanged{From: events.PhaseHandshake, To: events.PhaseFirmwareDownload})

	if d.Inputs.FwDnx == nil {
		d.log(events.LevelWarn, "no FW DnX data to build dynamic header from")
		return ResultContinue, nil
	}

	header := protocol.NewDnxHeader(uint32(len(d.Inputs.FwDnx)), d.State.GPFlags)
	if err := d.send("DnX header", header.Marshal()); err != nil {
		return ResultContinue, err
	}
	return ResultContinue, nil
}

// handleDXBL sends the stage-one loader the current state calls for:
// the OS loader in OS states, the misc loader in FW-Misc when present,
// the FW loader otherwise.
func (d *Dispatcher) handleDXBL() (Result, error) {
	d.log(events.LevelInfo, "sending DnX binary")

	var data []byte
	if d.State.State.IsOs() {
		data = d.Inputs.OsDnx
	} else if d.State.State == StateFwMisc && d.Inputs.MiscDnx != nil {
		data = d.Inputs.MiscDnx
	} else {
		data = d.Inputs.FwDnx
	}

	if data == nil {
		d.log(events.LevelWarn, "no DnX data available for current state")
		return ResultContinue, nil
	}

	if err := d.send("DnX binary", data); err != nil {
		return ResultContinue, err
	}
	d.emit(events.Progress{
		Phase:     d.currentPhase(),
		Operation: "DnX binary",
		Current:   uint64(len(data)),
		Total:     uint64(len(data)),
	})
	return ResultContinue, nil
}

// handleRUPHS sends the profile header size as a little-endian u32.
func (d *Dispatcher) handleRUPHS() (Result, error) {
	d.log(events.LevelDebug, "sending FW update profile header size")

	var size []byte
	if fw := d.Inputs.FwImage; fw != nil {
		size = fw.ProfileHeaderSizeLE()
	} else {
		// No image loaded; fall back to the largest known layout.
		size = []byte{protocol.ProfileHeaderSizeD0, 0, 0, 0}
	}
	return ResultContinue, d.send("profile header size", size)
}

// handleRUPH sends the raw profile header block.
func (d *Dispatcher) handleRUPH() (Result, error) {
	d.log(events.LevelDebug, "sending FW update profile header")

	fw := d.Inputs.FwImage
	if fw == nil {
		d.log(events.LevelWarn, "no FW image available for RUPH")
		return ResultContinue, nil
	}
	return ResultContinue, d.send("profile header", fw.ProfileHeaderBytes())
}

// handleDMIP sends the module-info-pointer block, which lives in the
// image's 24-byte DnX header region.
func (d *Dispatcher) handleDMIP() (Result, error) {
	d.log(events.LevelDebug, "sending MIP")

	fw := d.Inputs.FwImage
	if fw == nil {
		d.log(events.LevelWarn, "no FW image available for DMIP")
		return ResultContinue, nil
	}
	return ResultContinue, d.send("MIP", fw.DnxHeaderBytes())
}

// handleLOFW sends the first 128 KiB firmware half.
func (d *Dispatcher) handleLOFW() (Result, error) {
	return d.sendFwHalf("LOFW", (*payload.FirmwareImage).Lofw)
}

// handleHIFW sends the second 128 KiB firmware half.
func (d *Dispatcher) handleHIFW() (Result, error) {
	return d.sendFwHalf("HIFW", (*payload.FirmwareImage).Hifw)
}

func (d *Dispatcher) sendFwHalf(name string, get func(*payload.FirmwareImage) []byte) (Result, error) {
	d.log(events.LevelDebug, fmt.Sprintf("sending %s", name))

	data := d.fwRegion(get)
	if len(data) == 0 {
		d.log(events.LevelWarn, fmt.Sprintf("%s region is empty", name))
		return ResultContinue, nil
	}
	if err := d.send(name, data); err != nil {
		return ResultContinue, err
	}
	d.emit(events.Progress{
		Phase:     events.PhaseFirmwareDownload,
		Operation: name,
		Current:   uint64(len(data)),
		Total:     uint64(len(data)),
	})
	return ResultContinue, nil
}

// handleDCFI00 builds and sends the Chaabi payload, then arms the IFWI
// cursor over the bytes preceding the Token+FW section for the DIFWI
// requests that follow.
func (d *Dispatcher) handleDCFI00() (Result, error) {
	d.log(events.LevelInfo, "device requested Chaabi FW (DCFI00)")

	dnx := d.Inputs.FwDnx
	if dnx == nil {
		d.log(events.LevelWarn, "no FW DnX data available for DCFI00")
		return ResultContinue, nil
	}

	chaabi, err := payload.BuildChaabiPayload(dnx)
	if err != nil {
		// The device is demanding content that cannot be constructed.
		d.log(events.LevelError, err.Error())
		return ResultContinue, err
	}

	if err := d.send("Chaabi FW", chaabi); err != nil {
		return ResultContinue, err
	}
	d.emit(events.Progress{
		Phase:     events.PhaseFirmwareDownload,
		Operation: "Chaabi FW",
		Current:   uint64(len(chaabi)),
		Total:     uint64(len(chaabi)),
	})

	if start, _, ok := payload.FindChaabiRange(dnx); ok {
		d.State.IfwiCursor = payload.NewChunkCursor(start, protocol.ChunkSize128K)
	}
	return ResultContinue, nil
}

// handleDIFWI sends the next IFWI chunk. An out-of-order request before
// DCFI00 arms the cursor lazily with the same marker scan.
func (d *Dispatcher) handleDIFWI() (Result, error) {
	dnx := d.Inputs.FwDnx
	if dnx == nil {
		d.log(events.LevelWarn, "no FW DnX data available for DIFWI")
		return ResultContinue, nil
	}

	start, _, ok := payload.FindChaabiRange(dnx)
	if !ok {
		d.log(events.LevelWarn, "could not determine IFWI range")
		return ResultContinue, nil
	}

	if d.State.IfwiCursor.Total == 0 {
		d.State.IfwiCursor = payload.NewChunkCursor(start, protocol.ChunkSize128K)
	}

	chunk, ok := d.State.IfwiCursor.Next(dnx[:start])
	if !ok {
		d.log(events.LevelWarn, "no more IFWI chunks to send")
		return ResultContinue, nil
	}

	if err := d.send("IFWI", chunk); err != nil {
		return ResultContinue, err
	}
	d.emit(events.Progress{
		Phase:     events.PhaseFirmwareDownload,
		Operation: "IFWI",
		Current:   uint64(d.State.IfwiCursor.Current),
		Total:     uint64(d.State.IfwiCursor.Total),
	})
	return ResultContinue, nil
}
