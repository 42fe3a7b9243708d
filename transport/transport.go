// Package transport provides the bidirectional byte channel a recovery
// session drives: a gousb-backed implementation for real hardware and a
// scripted mock for tests. The session consumes the Transport interface
// only; the concrete driver is injected.
package transport

import "github.com/Tinnci/dnx-go/protocol"

// Transport is a byte-level channel to the bulk IN/OUT endpoint pair of
// one claimed USB interface.
type Transport interface {
	// Write sends the exact byte slice over the bulk OUT endpoint.
	// Fails with ErrCodeWriteFailed on I/O error, ErrCodeDisconnected
	// on surprise removal.
	Write(data []byte) (int, error)

	// Read receives one bulk IN transfer of at most maxLen bytes.
	// Fails with ErrCodeTimeout, ErrCodeDisconnected or
	// ErrCodeReadFailed.
	Read(maxLen int) ([]byte, error)

	// ReadAck reads one transfer and decodes it as an ACK code.
	ReadAck() (protocol.AckCode, error)

	// IsConnected reports whether the device is still present.
	IsConnected() bool

	// VendorID returns the USB vendor id of the open device.
	VendorID() uint16

	// ProductID returns the USB product id of the open device.
	ProductID() uint16

	// Close releases the interface and device.
	Close() error
}

// ReadAckFrom is the shared ReadAck implementation: one max-packet read
// decoded as an AckCode.
func ReadAckFrom(t Transport) (protocol.AckCode, error) {
	data, err := t.Read(protocol.MaxPacketSize)
	if err != nil {
		return protocol.AckCode{}, err
	}
	if len(data) == 0 {
		return protocol.AckCode{}, NewError("READ_ACK", ErrCodeReadFailed, "empty ACK response")
	}
	return protocol.AckFromBytes(data), nil
}
