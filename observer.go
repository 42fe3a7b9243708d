package dnx

import "github.com/Tinnci/dnx-go/events"

// MetricsObserver feeds session events into a Metrics instance. The
// session attaches one automatically; callers only see the counters.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer updating the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) OnEvent(e events.Event) {
	switch ev := e.(type) {
	case events.AckReceived:
		o.metrics.AcksReceived.Add(1)
	case events.Packet:
		if ev.Direction == events.Tx {
			o.metrics.PacketsTx.Add(1)
			o.metrics.BytesTx.Add(uint64(ev.Length))
		}
	case events.Progress:
		o.metrics.ChunksSent.Add(1)
	case events.PhaseChanged:
		o.metrics.PhaseChanges.Add(1)
	case events.DeviceDisconnected:
		o.metrics.Reconnects.Add(1)
	case events.Error:
		o.metrics.DeviceErrors.Add(1)
	}
}
