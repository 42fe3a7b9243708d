package state

import (
	"fmt"

	"github.com/Tinnci/dnx-go/events"
	"github.com/Tinnci/dnx-go/payload"
	"github.com/Tinnci/dnx-go/protocol"
	"github.com/Tinnci/dnx-go/transport"
)

// Result tells the session loop what to do after a handled ACK.
type Result int

const (
	// ResultContinue keeps reading ACKs.
	ResultContinue Result = iota
	// ResultFwDone ends the firmware stage.
	ResultFwDone
	// ResultOsDone ends the OS stage.
	ResultOsDone
	// ResultComplete ends the session successfully.
	ResultComplete
	// ResultNeedReEnumerate asks the session to ride out a device
	// reset and reconnect.
	ResultNeedReEnumerate
)

// DeviceError is a fatal error code reported by the device as an ER??
// ACK.
type DeviceError struct {
	Code uint32
	Ack  string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error: %s", e.Ack)
}

// Inputs carries the loaded session inputs handlers answer requests
// from. All slices and images are read-only.
type Inputs struct {
	FwDnx   []byte
	FwImage *payload.FirmwareImage
	OsDnx   []byte
	OsImage *payload.OsImage
	MiscDnx []byte
}

// Dispatcher answers one device ACK at a time. It owns no goroutines;
// the session loop reads ACKs and feeds them in.
type Dispatcher struct {
	Transport transport.Transport
	Observer  events.Observer
	State     *Context
	Inputs    Inputs
}

// HandleAck dispatches one ACK to its handler. Widest tags are matched
// first to avoid prefix collisions. Unknown tags are logged and
// skipped; device-reported ER?? tags abort the session.
func (d *Dispatcher) HandleAck(ack protocol.AckCode) (Result, error) {
	d.emit(events.AckReceived{Ack: ack.ASCII()})

	if ack.IsError() {
		msg := fmt.Sprintf("device error: %s", ack.ASCII())
		d.emit(events.Error{Code: uint32(ack.Value()), Message: msg})
		return ResultContinue, &DeviceError{Code: uint32(ack.Value()), Ack: ack.ASCII()}
	}

	// 5+ byte tags first.
	switch {
	case ack.Matches64(protocol.AckOSIPSz):
		d.log(events.LevelDebug, "received OSIP size request")
		return ResultContinue, nil
	case ack.Matches64(protocol.AckDCFI00):
		return d.handleDCFI00()
	case ack.Matches64(protocol.AckRUPHS):
		return d.handleRUPHS()
	case ack.Matches64(protocol.AckDIFWI):
		return d.handleDIFWI()
	case ack.Matches64(protocol.AckRESET):
		return d.handleRESET()
	case ack.Matches64(protocol.AckPSFW1):
		return d.sendChunked("PSFW1", d.fwRegion((*payload.FirmwareImage).Psfw1), &d.State.Psfw1Cursor)
	case ack.Matches64(protocol.AckPSFW2):
		return d.sendChunked("PSFW2", d.fwRegion((*payload.FirmwareImage).Psfw2), &d.State.Psfw2Cursor)
	case ack.Matches64(protocol.AckVEDFW):
		return d.sendChunked("VEDFW", d.fwRegion((*payload.FirmwareImage).Vedfw), &d.State.VedfwCursor)
	case ack.Matches64(protocol.AckROSIP):
		return d.handleROSIP()
	}

	// 4-byte tags.
	switch {
	case ack.Matches32(protocol.AckDFRM):
		return d.handleDFRM()
	case ack.Matches32(protocol.AckDxxM):
		return d.handleDxxM()
	case ack.Matches32(protocol.AckDXBL):
		return d.handleDXBL()
	case ack.Matches32(protocol.AckRUPH):
		return d.handleRUPH()
	case ack.Matches32(protocol.AckDMIP):
		return d.handleDMIP()
	case ack.Matches32(protocol.AckLOFW):
		return d.handleLOFW()
	case ack.Matches32(protocol.AckHIFW):
		return d.handleHIFW()
	case ack.Matches32(protocol.AckSSFW):
		return d.sendChunked("SSFW", d.fwRegion((*payload.FirmwareImage).Ssfw), &d.State.SsfwCursor)
	case ack.Matches32(protocol.AckHLTS):
		return d.handleHLTSuccess()
	case ack.Matches32(protocol.AckHLT0):
		return d.handleHLT0()
	case ack.Matches32(protocol.AckDONE):
		return d.handleDONE()
	case ack.Matches32(protocol.AckDORM):
		return d.handleDORM()
	case ack.Matches32(protocol.AckRIMG):
		return d.handleRIMG()
	case ack.Matches32(protocol.AckEOIU):
		return d.handleEOIU()
	}

	d.log(events.LevelWarn, fmt.Sprintf("unhandled ACK: %s", ack.ASCII()))
	return ResultContinue, nil
}

// fwRegion resolves a firmware image region accessor, tolerating a
// missing image.
func (d *Dispatcher) fwRegion(get func(*payload.FirmwareImage) []byte) []byte {
	if d.Inputs.FwImage == nil {
		return nil
	}
	return get(d.Inputs.FwImage)
}

// send writes one host-to-device message and reports it as a Tx packet.
func (d *Dispatcher) send(kind string, data []byte) error {
	if _, err := d.Transport.Write(data); err != nil {
		return err
	}
	d.emit(events.Packet{
		Direction: events.Tx,
		Kind:      kind,
		Length:    len(data),
		Preview:   preview(data),
	})
	return nil
}

func (d *Dispatcher) emit(e events.Event) {
	if d.Observer != nil {
		d.Observer.OnEvent(e)
	}
}

func (d *Dispatcher) log(level events.LogLevel, message string) {
	d.emit(events.Log{Level: level, Message: message})
}

// currentPhase maps the downloader state to the observable phase.
func (d *Dispatcher) currentPhase() events.Phase {
	if d.State.State.IsOs() {
		return events.PhaseOsDownload
	}
	return events.PhaseFirmwareDownload
}

func preview(data []byte) []byte {
	n := len(data)
	if n > 16 {
		n = 16
	}
	out := make([]byte, n)
	copy(out, data[:n])
	return out
}
