// Package dnx recovers Intel Medfield and Moorefield platforms over USB
// by driving the Download-and-Execute handshake: it transmits a
// stage-one loader to a device in ROM recovery mode, answers the
// device's request/ACK conversation for every IFWI component, optionally
// replays the pattern for an OS recovery image, and rides out the bus
// re-enumeration that follows a successful platform reset.
package dnx

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Tinnci/dnx-go/events"
	"github.com/Tinnci/dnx-go/internal/logging"
	"github.com/Tinnci/dnx-go/internal/state"
	"github.com/Tinnci/dnx-go/payload"
	"github.com/Tinnci/dnx-go/protocol"
	"github.com/Tinnci/dnx-go/transport"
)

const (
	// DefaultWaitTimeout bounds each wait for a device to enumerate.
	DefaultWaitTimeout = 300 * time.Second

	// DefaultReEnumerateDelay gives a resetting device time to drop off
	// the bus before the session polls for its return.
	DefaultReEnumerateDelay = 2 * time.Second

	devicePollInterval = 100 * time.Millisecond
	ioRetryDelay       = 50 * time.Millisecond
)

// SessionConfig is the immutable input of one recovery session. Paths
// left empty are simply not loaded; the device only receives answers
// for content that is present.
type SessionConfig struct {
	// FwDnxPath is the FW DnX stage-one loader (dnx_fwr.bin).
	FwDnxPath string
	// FwImagePath is the IFWI firmware image (ifwi.bin).
	FwImagePath string
	// OsDnxPath is the OS recovery stage-one loader.
	OsDnxPath string
	// OsImagePath is the OSIP-prefixed OS recovery image.
	OsImagePath string
	// MiscDnxPath is the misc loader used in DnX-OS mode.
	MiscDnxPath string

	// GPFlags is the 32-bit general-purpose flag word sent in the
	// dynamic DnX header. Bit 0x20 selects DnX-OS mode.
	GPFlags uint32
	// IfwiWipe enables IFWI wipe mode.
	IfwiWipe bool
	// WaitTimeout bounds each device wait; zero means
	// DefaultWaitTimeout.
	WaitTimeout time.Duration
}

// Options carries the injectable collaborators of a session.
type Options struct {
	// Observer receives session events; nil discards them.
	Observer events.Observer
	// Logger for host-process diagnostics; nil uses the default.
	Logger *logging.Logger
	// Open produces the transport for each connection episode; nil uses
	// the gousb driver.
	Open func() (transport.Transport, error)
	// ReEnumerateDelay overrides the post-reset settle delay.
	ReEnumerateDelay time.Duration
}

// Session drives one device through a complete recovery. It exclusively
// owns the transport for the duration of each connection episode, the
// parsed images, and the protocol state.
type Session struct {
	config   SessionConfig
	observer events.Observer
	logger   *logging.Logger
	open     func() (transport.Transport, error)

	reEnumDelay time.Duration
	metrics     *Metrics
	inputs      state.Inputs
}

// NewSession creates a session for the given configuration.
func NewSession(config SessionConfig, options *Options) *Session {
	if options == nil {
		options = &Options{}
	}

	s := &Session{
		config:      config,
		logger:      options.Logger,
		open:        options.Open,
		reEnumDelay: options.ReEnumerateDelay,
		metrics:     NewMetrics(),
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	if s.open == nil {
		s.open = func() (transport.Transport, error) { return transport.Open() }
	}
	if s.reEnumDelay <= 0 {
		s.reEnumDelay = DefaultReEnumerateDelay
	}
	s.observer = events.Multi(options.Observer, NewMetricsObserver(s.metrics))
	return s
}

// Metrics returns the session counters.
func (s *Session) Metrics() *Metrics { return s.metrics }

// episodeResult is the outcome of one connection episode.
type episodeResult int

const (
	episodeComplete episodeResult = iota
	episodeReEnumerate
)

// Run executes the complete recovery: load inputs, wait for the device,
// drive the ACK conversation, ride out one re-enumeration if the device
// resets, and return once the protocol reports completion or a fatal
// error. Cancellation via ctx is checked between ACKs.
func (s *Session) Run(ctx context.Context) error {
	defer s.metrics.Stop()

	if err := s.loadInputs(); err != nil {
		s.emit(events.Error{Message: err.Error()})
		return err
	}

	st := state.NewContext(s.config.GPFlags, s.config.IfwiWipe)

	for {
		t, err := s.waitForDevice(ctx)
		if err != nil {
			s.emit(events.Error{Message: err.Error()})
			return err
		}
		s.emit(events.DeviceConnected{VID: t.VendorID(), PID: t.ProductID()})

		result, err := s.runEpisode(ctx, t, st)
		t.Close()

		switch {
		case err != nil:
			// Device errors already produced their Error event inside
			// the dispatcher.
			if !IsCode(err, ErrCodeDeviceError) {
				s.emit(events.Error{Message: err.Error()})
			}
			return err
		case result == episodeComplete:
			return nil
		case result == episodeReEnumerate:
			s.emit(events.DeviceDisconnected{})
			s.logger.Info("device resetting, waiting for re-enumeration",
				"delay", s.reEnumDelay)
			if err := sleepCtx(ctx, s.reEnumDelay); err != nil {
				return WrapError("RE_ENUMERATE", ErrCodeAborted, err)
			}
		}
	}
}

// runEpisode drives the dispatch loop for one connection. The opening
// preamble is suppressed on post-reset re-entry: the device is already
// talking.
func (s *Session) runEpisode(ctx context.Context, t transport.Transport, st *state.Context) (episodeResult, error) {
	if !st.GppReset {
		s.emit(events.PhaseChanged{From: events.PhaseWaitingForDevice, To: events.PhaseHandshake})

		preamble := make([]byte, 4)
		binary.LittleEndian.PutUint32(preamble, protocol.PreambleDnER)
		if _, err := t.Write(preamble); err != nil {
			return 0, WrapError("HANDSHAKE", ErrCodeTransport, err)
		}
		s.emit(events.Packet{Direction: events.Tx, Kind: "preamble", Length: len(preamble), Preview: preamble})
		s.logger.Info("sent preamble", "preamble", "DnER")
	}

	disp := &state.Dispatcher{
		Transport: t,
		Observer:  s.observer,
		State:     st,
		Inputs:    s.inputs,
	}

	for st.ShouldContinue() {
		select {
		case <-ctx.Done():
			st.Abort = true
			return 0, WrapError("DISPATCH", ErrCodeAborted, ctx.Err())
		default:
		}

		ack, err := t.ReadAck()
		if err != nil {
			switch {
			case transport.IsCode(err, transport.ErrCodeTimeout):
				// The device is within its rights to stay silent
				// (e.g. during reset preparation). Keep polling.
				continue
			case transport.IsCode(err, transport.ErrCodeDisconnected):
				return episodeReEnumerate, nil
			default:
				// Transient bus upsets are expected around
				// re-enumeration; back off and retry.
				s.logger.Warn("read error, retrying", "error", err)
				if err := sleepCtx(ctx, ioRetryDelay); err != nil {
					return 0, WrapError("DISPATCH", ErrCodeAborted, err)
				}
				continue
			}
		}

		result, err := disp.HandleAck(ack)
		if err != nil {
			var devErr *state.DeviceError
			switch {
			case errors.As(err, &devErr):
				return 0, WrapError("DISPATCH", ErrCodeDeviceError, devErr)
			case transport.IsCode(err, transport.ErrCodeDisconnected):
				return episodeReEnumerate, nil
			case transport.IsCode(err, transport.ErrCodeWriteFailed),
				transport.IsCode(err, transport.ErrCodeTimeout):
				s.logger.Warn("write error, retrying", "error", err)
				if err := sleepCtx(ctx, ioRetryDelay); err != nil {
					return 0, WrapError("DISPATCH", ErrCodeAborted, err)
				}
				continue
			case errors.Is(err, payload.ErrMarkerNotFound):
				return 0, WrapError("DISPATCH", ErrCodeMarkerNotFound, err)
			default:
				return 0, WrapError("DISPATCH", ErrCodeTransport, err)
			}
		}

		switch result {
		case state.ResultContinue:
		case state.ResultFwDone:
			s.emit(events.PhaseChanged{From: events.PhaseFirmwareDownload, To: events.PhaseOsDownload})
		case state.ResultOsDone:
			s.emit(events.PhaseChanged{From: events.PhaseOsDownload, To: events.PhaseComplete})
		case state.ResultComplete:
			return episodeComplete, nil
		case state.ResultNeedReEnumerate:
			s.emit(events.PhaseChanged{From: events.PhaseFirmwareDownload, To: events.PhaseDeviceReset})
			return episodeReEnumerate, nil
		}
	}

	if st.Abort {
		return 0, NewError("DISPATCH", ErrCodeAborted, "session aborted")
	}

	// Terminal condition reached without an explicit DONE.
	s.emit(events.Complete{})
	return episodeComplete, nil
}

// waitForDevice polls the transport opener until a device enumerates or
// the wait timeout expires.
func (s *Session) waitForDevice(ctx context.Context) (transport.Transport, error) {
	timeout := s.config.WaitTimeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	deadline := time.Now().Add(timeout)

	s.logger.Info("waiting for device", "timeout", timeout)
	for {
		select {
		case <-ctx.Done():
			return nil, WrapError("WAIT_DEVICE", ErrCodeAborted, ctx.Err())
		default:
		}

		t, err := s.open()
		if err == nil {
			s.logger.Info("device found",
				"vid", fmt.Sprintf("%04X", t.VendorID()),
				"pid", fmt.Sprintf("%04X", t.ProductID()))
			return t, nil
		}
		if !transport.IsCode(err, transport.ErrCodeDeviceNotFound) {
			return nil, WrapError("WAIT_DEVICE", ErrCodeTransport, err)
		}
		if time.Now().After(deadline) {
			return nil, NewError("WAIT_DEVICE", ErrCodeWaitTimeout,
				fmt.Sprintf("no device after %s", timeout))
		}
		if err := sleepCtx(ctx, devicePollInterval); err != nil {
			return nil, WrapError("WAIT_DEVICE", ErrCodeAborted, err)
		}
	}
}

// loadInputs reads each configured file into memory and parses the FW
// and OS images. Parse failures are fatal before any transport
// activity.
func (s *Session) loadInputs() error {
	read := func(path, what string) ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, WrapError("LOAD", ErrCodeParse, fmt.Errorf("%s: %w", what, err))
		}
		s.logger.Info("loaded input", "what", what, "path", path, "bytes", len(data))
		return data, nil
	}

	var err error
	if s.config.FwDnxPath != "" {
		if s.inputs.FwDnx, err = read(s.config.FwDnxPath, "FW DnX"); err != nil {
			return err
		}
	}
	if s.config.FwImagePath != "" {
		data, err := read(s.config.FwImagePath, "FW image")
		if err != nil {
			return err
		}
		fw, err := payload.ParseFirmware(data)
		if err != nil {
			return WrapError("LOAD", ErrCodeParse, err)
		}
		s.inputs.FwImage = fw
		s.describeFirmware(fw)
	}
	if s.config.OsDnxPath != "" {
		if s.inputs.OsDnx, err = read(s.config.OsDnxPath, "OS DnX"); err != nil {
			return err
		}
	}
	if s.config.OsImagePath != "" {
		data, err := read(s.config.OsImagePath, "OS image")
		if err != nil {
			return err
		}
		osImg, err := payload.ParseOs(data)
		if err != nil {
			return WrapError("LOAD", ErrCodeParse, err)
		}
		if osImg.NonStandardSignature {
			s.emit(events.Log{Level: events.LevelWarn,
				Message: fmt.Sprintf("non-standard OSIP signature 0x%08X", osImg.Osip().Signature)})
		}
		s.inputs.OsImage = osImg
	}
	if s.config.MiscDnxPath != "" {
		if s.inputs.MiscDnx, err = read(s.config.MiscDnxPath, "Misc DnX"); err != nil {
			return err
		}
	}
	return nil
}

// describeFirmware reports version and trailer info found in the
// loaded firmware image.
func (s *Session) describeFirmware(fw *payload.FirmwareImage) {
	if versions, ok := payload.ExtractVersions(fw.Raw()); ok {
		s.emit(events.Log{Level: events.LevelInfo,
			Message: fmt.Sprintf("image FW versions: %s", versions)})
	}
	if fuph, ok := fw.Fuph(); ok {
		s.emit(events.Log{Level: events.LevelDebug, Message: fuph.String()})
	}
}

func (s *Session) emit(e events.Event) {
	if s.observer != nil {
		s.observer.OnEvent(e)
	}
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
