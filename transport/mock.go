package transport

import (
	"sync"

	"github.com/Tinnci/dnx-go/protocol"
)

// MockTransport is a scripted in-memory transport for exercising the
// dispatch layer without hardware. Reads pop pre-queued ACK responses;
// writes are recorded for verification. All methods are safe for
// concurrent use.
type MockTransport struct {
	mu        sync.Mutex
	ackQueue  [][]byte
	writeLog  [][]byte
	vid       uint16
	pid       uint16
	connected bool

	readCalls  int
	writeCalls int
}

// NewMock creates a connected mock with the default recovery-mode
// identity.
func NewMock() *MockTransport {
	return &MockTransport{
		vid:       protocol.IntelVendorID,
		pid:       protocol.SupportedProductIDs[0],
		connected: true,
	}
}

// QueueAck queues raw ACK bytes to be returned by the next read.
func (m *MockTransport) QueueAck(ack []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(ack))
	copy(cp, ack)
	m.ackQueue = append(m.ackQueue, cp)
}

// QueueAck32 queues a 4-byte ACK from a constant.
func (m *MockTransport) QueueAck32(ack uint32) {
	m.QueueAck(protocol.AckFromU32(ack).Bytes())
}

// QueueAck64 queues a wider ACK from a constant.
func (m *MockTransport) QueueAck64(ack uint64) {
	m.QueueAck(protocol.AckFromU64(ack).Bytes())
}

// Writes returns a copy of all recorded writes.
func (m *MockTransport) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writeLog))
	for i, w := range m.writeLog {
		cp := make([]byte, len(w))
		copy(cp, w)
		out[i] = cp
	}
	return out
}

// ClearWrites discards the recorded writes.
func (m *MockTransport) ClearWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeLog = nil
}

// Disconnect simulates surprise removal.
func (m *MockTransport) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
}

// Reconnect restores the connection.
func (m *MockTransport) Reconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
}

// SetIDs overrides the reported identity, for re-enumeration tests.
func (m *MockTransport) SetIDs(vid, pid uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vid = vid
	m.pid = pid
}

// CallCounts returns how many reads and writes were issued.
func (m *MockTransport) CallCounts() (reads, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCalls, m.writeCalls
}

// Write implements Transport.
func (m *MockTransport) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls++
	if !m.connected {
		return 0, NewError("WRITE", ErrCodeDisconnected, "mock disconnected")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.writeLog = append(m.writeLog, cp)
	return len(data), nil
}

// Read implements Transport. An empty queue reads as a timeout, like a
// silent device.
func (m *MockTransport) Read(maxLen int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readCalls++
	if !m.connected {
		return nil, NewError("READ", ErrCodeDisconnected, "mock disconnected")
	}
	if len(m.ackQueue) == 0 {
		return nil, NewError("READ", ErrCodeTimeout, "no queued response")
	}
	ack := m.ackQueue[0]
	m.ackQueue = m.ackQueue[1:]
	if len(ack) > maxLen {
		ack = ack[:maxLen]
	}
	return ack, nil
}

// ReadAck implements Transport.
func (m *MockTransport) ReadAck() (protocol.AckCode, error) {
	return ReadAckFrom(m)
}

// IsConnected implements Transport.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// VendorID implements Transport.
func (m *MockTransport) VendorID() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vid
}

// ProductID implements Transport.
func (m *MockTransport) ProductID() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pid
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.Disconnect()
	return nil
}

var _ Transport = (*MockTransport)(nil)
var _ Transport = (*USBTransport)(nil)
