package events

import "testing"

func TestChannelObserverDelivery(t *testing.T) {
	sub := NewChannelObserver(8)
	sub.OnEvent(AckReceived{Ack: "DFRM"})
	sub.OnEvent(Complete{})

	if e := <-sub.Events(); e.(AckReceived).Ack != "DFRM" {
		t.Errorf("first event = %#v", e)
	}
	if _, ok := (<-sub.Events()).(Complete); !ok {
		t.Error("second event not Complete")
	}
}

func TestChannelObserverDropsOldest(t *testing.T) {
	sub := NewChannelObserver(2)
	sub.OnEvent(Log{Message: "one"})
	sub.OnEvent(Log{Message: "two"})
	sub.OnEvent(Log{Message: "three"}) // overflow: "one" is dropped

	if e := (<-sub.Events()).(Log); e.Message != "two" {
		t.Errorf("first drained = %q, want %q", e.Message, "two")
	}
	if e := (<-sub.Events()).(Log); e.Message != "three" {
		t.Errorf("second drained = %q, want %q", e.Message, "three")
	}
	select {
	case e := <-sub.Events():
		t.Errorf("unexpected extra event %#v", e)
	default:
	}
}

func TestMulti(t *testing.T) {
	a := NewChannelObserver(4)
	b := NewChannelObserver(4)

	Multi(a, nil, b).OnEvent(Complete{})

	if _, ok := (<-a.Events()).(Complete); !ok {
		t.Error("first observer missed event")
	}
	if _, ok := (<-b.Events()).(Complete); !ok {
		t.Error("second observer missed event")
	}
}

func TestPhaseStrings(t *testing.T) {
	for phase, want := range map[Phase]string{
		PhaseWaitingForDevice: "Waiting for Device",
		PhaseHandshake:        "Handshake",
		PhaseFirmwareDownload: "Firmware Download",
		PhaseOsDownload:       "OS Download",
		PhaseDeviceReset:      "Device Reset",
		PhaseComplete:         "Complete",
		PhaseError:            "Error",
	} {
		if phase.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(phase), phase.String(), want)
		}
	}
	if Tx.String() != "TX" || Rx.String() != "RX" {
		t.Error("direction strings wrong")
	}
}
