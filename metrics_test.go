package dnx

import (
	"testing"

	"github.com/Tinnci/dnx-go/events"
)

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.OnEvent(events.AckReceived{Ack: "DFRM"})
	obs.OnEvent(events.AckReceived{Ack: "LOFW"})
	obs.OnEvent(events.Packet{Direction: events.Tx, Kind: "LOFW", Length: 1024})
	obs.OnEvent(events.Packet{Direction: events.Rx, Kind: "ack", Length: 4})
	obs.OnEvent(events.Progress{Operation: "PSFW1", Current: 1, Total: 2})
	obs.OnEvent(events.PhaseChanged{From: events.PhaseHandshake, To: events.PhaseFirmwareDownload})
	obs.OnEvent(events.DeviceDisconnected{})
	obs.OnEvent(events.Error{Code: 1, Message: "boom"})

	snap := m.Snapshot()
	if snap.AcksReceived != 2 {
		t.Errorf("AcksReceived = %d, want 2", snap.AcksReceived)
	}
	if snap.PacketsTx != 1 {
		t.Errorf("PacketsTx = %d, want 1 (Rx must not count)", snap.PacketsTx)
	}
	if snap.BytesTx != 1024 {
		t.Errorf("BytesTx = %d, want 1024", snap.BytesTx)
	}
	if snap.ChunksSent != 1 {
		t.Errorf("ChunksSent = %d, want 1", snap.ChunksSent)
	}
	if snap.PhaseChanges != 1 {
		t.Errorf("PhaseChanges = %d, want 1", snap.PhaseChanges)
	}
	if snap.Reconnects != 1 {
		t.Errorf("Reconnects = %d, want 1", snap.Reconnects)
	}
	if snap.DeviceErrors != 1 {
		t.Errorf("DeviceErrors = %d, want 1", snap.DeviceErrors)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()
	if m.Uptime() < 0 {
		t.Error("negative uptime")
	}
	m.Stop()
	frozen := m.Uptime()
	if m.Uptime() != frozen {
		t.Error("uptime changed after Stop")
	}
}
