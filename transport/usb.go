package transport

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/gousb"

	"github.com/Tinnci/dnx-go/protocol"
)

// DefaultReadTimeout bounds a single bulk IN transfer. The dispatch
// loop treats timeouts as "keep polling", so this only sets the poll
// granularity while the device is silent.
const DefaultReadTimeout = 5 * time.Second

// USBTransport drives a DnX-mode device through gousb. It owns the
// libusb context, the opened device, configuration 1, interface 0 and
// the lowest-numbered bulk IN and bulk OUT endpoints on alt-setting 0.
type USBTransport struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epIn   *gousb.InEndpoint
	epOut  *gousb.OutEndpoint

	vid uint16
	pid uint16

	readTimeout time.Duration
	gone        atomic.Bool
}

// Open opens the first device matching the Intel vendor id and any
// supported DnX product id.
func Open() (*USBTransport, error) {
	var lastErr error
	for _, pid := range protocol.SupportedProductIDs {
		t, err := OpenWithIDs(protocol.IntelVendorID, pid)
		if err == nil {
			return t, nil
		}
		if !IsCode(err, ErrCodeDeviceNotFound) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = NewError("OPEN", ErrCodeDeviceNotFound, "no supported device present")
	}
	return nil, lastErr
}

// OpenWithIDs opens a device with a specific VID/PID.
func OpenWithIDs(vid, pid uint16) (*USBTransport, error) {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, WrapError("OPEN", ErrCodeOpenFailed, err)
	}
	if device == nil {
		ctx.Close()
		return nil, NewError("OPEN", ErrCodeDeviceNotFound,
			"no device with matching VID/PID")
	}

	config, err := device.Config(1)
	if err != nil {
		device.Close()
		ctx.Close()
		return nil, WrapError("OPEN", ErrCodeOpenFailed, err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		device.Close()
		ctx.Close()
		return nil, WrapError("OPEN", ErrCodeClaimFailed, err)
	}

	// First bulk IN/OUT pair on the claimed interface, alt-setting 0.
	// Lowest endpoint number wins so the choice is deterministic when a
	// device exposes several bulk pairs.
	inNum, outNum := -1, -1
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionIn {
			if inNum < 0 || ep.Number < inNum {
				inNum = ep.Number
			}
		} else if outNum < 0 || ep.Number < outNum {
			outNum = ep.Number
		}
	}
	if inNum < 0 || outNum < 0 {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, NewError("OPEN", ErrCodeEndpointNotFound,
			"interface 0 has no bulk IN/OUT pair")
	}

	epIn, err := intf.InEndpoint(inNum)
	if err == nil {
		var epOut *gousb.OutEndpoint
		epOut, err = intf.OutEndpoint(outNum)
		if err == nil {
			return &USBTransport{
				ctx:         ctx,
				device:      device,
				config:      config,
				intf:        intf,
				epIn:        epIn,
				epOut:       epOut,
				vid:         vid,
				pid:         pid,
				readTimeout: DefaultReadTimeout,
			}, nil
		}
	}

	intf.Close()
	config.Close()
	device.Close()
	ctx.Close()
	return nil, WrapError("OPEN", ErrCodeEndpointNotFound, err)
}

// SetReadTimeout overrides the per-transfer read timeout.
func (t *USBTransport) SetReadTimeout(d time.Duration) {
	if d > 0 {
		t.readTimeout = d
	}
}

// Write implements Transport.
func (t *USBTransport) Write(data []byte) (int, error) {
	n, err := t.epOut.Write(data)
	if err != nil {
		return n, t.classify("WRITE", ErrCodeWriteFailed, err)
	}
	return n, nil
}

// Read implements Transport.
func (t *USBTransport) Read(maxLen int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.readTimeout)
	defer cancel()

	buf := make([]byte, maxLen)
	n, err := t.epIn.ReadContext(ctx, buf)
	if err != nil {
		return nil, t.classify("READ", ErrCodeReadFailed, err)
	}
	return buf[:n], nil
}

// ReadAck implements Transport.
func (t *USBTransport) ReadAck() (protocol.AckCode, error) {
	return ReadAckFrom(t)
}

// IsConnected implements Transport.
func (t *USBTransport) IsConnected() bool {
	return !t.gone.Load()
}

// VendorID implements Transport.
func (t *USBTransport) VendorID() uint16 { return t.vid }

// ProductID implements Transport.
func (t *USBTransport) ProductID() uint16 { return t.pid }

// Close implements Transport.
func (t *USBTransport) Close() error {
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
	if t.config != nil {
		t.config.Close()
		t.config = nil
	}
	if t.device != nil {
		t.device.Close()
		t.device = nil
	}
	if t.ctx != nil {
		t.ctx.Close()
		t.ctx = nil
	}
	return nil
}

// classify maps gousb and context failures onto the transport error
// taxonomy.
func (t *USBTransport) classify(op string, fallback ErrorCode, err error) error {
	switch {
	case errors.Is(err, gousb.ErrorNoDevice) || errors.Is(err, gousb.TransferNoDevice):
		t.gone.Store(true)
		return WrapError(op, ErrCodeDisconnected, err)
	case errors.Is(err, gousb.ErrorTimeout) ||
		errors.Is(err, gousb.TransferTimedOut) ||
		errors.Is(err, context.DeadlineExceeded):
		return WrapError(op, ErrCodeTimeout, err)
	default:
		return WrapError(op, fallback, err)
	}
}
