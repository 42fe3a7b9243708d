package dnx

import (
	"sync/atomic"
	"time"
)

// Metrics tracks operational statistics for one recovery session. All
// counters are atomic; readers may sample from any goroutine.
type Metrics struct {
	// Protocol counters
	AcksReceived atomic.Uint64 // ACK tags decoded
	PacketsTx    atomic.Uint64 // host-to-device transfers
	BytesTx      atomic.Uint64 // host-to-device bytes
	ChunksSent   atomic.Uint64 // progress units reported by handlers
	DeviceErrors atomic.Uint64 // fatal errors surfaced to the observer
	Reconnects   atomic.Uint64 // device disappearances seen
	PhaseChanges atomic.Uint64

	// Lifecycle timestamps (UnixNano)
	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a metrics instance stamped with the current time.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// Stop records the session end time.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// Uptime returns the elapsed session time.
func (m *Metrics) Uptime() time.Duration {
	start := m.StartTime.Load()
	end := m.StopTime.Load()
	if end == 0 {
		end = time.Now().UnixNano()
	}
	return time.Duration(end - start)
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	AcksReceived uint64        `json:"acks_received"`
	PacketsTx    uint64        `json:"packets_tx"`
	BytesTx      uint64        `json:"bytes_tx"`
	ChunksSent   uint64        `json:"chunks_sent"`
	DeviceErrors uint64        `json:"device_errors"`
	Reconnects   uint64        `json:"reconnects"`
	PhaseChanges uint64        `json:"phase_changes"`
	Uptime       time.Duration `json:"uptime"`
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		AcksReceived: m.AcksReceived.Load(),
		PacketsTx:    m.PacketsTx.Load(),
		BytesTx:      m.BytesTx.Load(),
		ChunksSent:   m.ChunksSent.Load(),
		DeviceErrors: m.DeviceErrors.Load(),
		Reconnects:   m.Reconnects.Load(),
		PhaseChanges: m.PhaseChanges.Load(),
		Uptime:       m.Uptime(),
	}
}
