package events

import (
	"fmt"

	"github.com/Tinnci/dnx-go/internal/logging"
)

// NullObserver discards all events.
type NullObserver struct{}

func (NullObserver) OnEvent(Event) {}

// LogObserver forwards events to a logging.Logger.
type LogObserver struct {
	Logger *logging.Logger
}

// NewLogObserver creates an observer writing to the given logger, or
// the default logger when nil.
func NewLogObserver(logger *logging.Logger) *LogObserver {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) OnEvent(e Event) {
	switch ev := e.(type) {
	case DeviceConnected:
		o.Logger.Info("device connected",
			"vid", fmt.Sprintf("%04X", ev.VID), "pid", fmt.Sprintf("%04X", ev.PID))
	case DeviceDisconnected:
		o.Logger.Warn("device disconnected")
	case PhaseChanged:
		o.Logger.Info("phase changed", "from", ev.From, "to", ev.To)
	case Progress:
		pct := uint64(0)
		if ev.Total > 0 {
			pct = ev.Current * 100 / ev.Total
		}
		o.Logger.Debug("progress",
			"phase", ev.Phase, "operation", ev.Operation, "pct", pct)
	case Log:
		switch ev.Level {
		case LevelTrace, LevelDebug:
			o.Logger.Debug(ev.Message)
		case LevelInfo:
			o.Logger.Info(ev.Message)
		case LevelWarn:
			o.Logger.Warn(ev.Message)
		case LevelError:
			o.Logger.Error(ev.Message)
		}
	case AckReceived:
		o.Logger.Debug("ack received", "ack", ev.Ack)
	case Packet:
		o.Logger.Debug("usb packet",
			"dir", ev.Direction, "kind", ev.Kind, "len", ev.Length)
	case Error:
		o.Logger.Error("session error",
			"code", fmt.Sprintf("0x%08X", ev.Code), "message", ev.Message)
	case Complete:
		o.Logger.Info("operation complete")
	}
}

// ChannelObserver buffers events into a bounded queue drained by
// another goroutine (a render loop, typically). On overflow the oldest
// event is dropped; subscribers are view-only, so losing stale events
// under back-pressure is acceptable.
type ChannelObserver struct {
	ch chan Event
}

// NewChannelObserver creates an observer with the given queue capacity.
func NewChannelObserver(capacity int) *ChannelObserver {
	if capacity <= 0 {
		capacity = 256
	}
	return &ChannelObserver{ch: make(chan Event, capacity)}
}

func (o *ChannelObserver) OnEvent(e Event) {
	for {
		select {
		case o.ch <- e:
			return
		default:
		}
		// Queue full: drop the oldest and retry.
		select {
		case <-o.ch:
		default:
		}
	}
}

// Events returns the receive side of the queue.
func (o *ChannelObserver) Events() <-chan Event { return o.ch }

// multiObserver fans events out to several observers in order.
type multiObserver []Observer

func (m multiObserver) OnEvent(e Event) {
	for _, o := range m {
		o.OnEvent(e)
	}
}

// Multi combines observers into one; nil entries are skipped.
func Multi(observers ...Observer) Observer {
	var out multiObserver
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
