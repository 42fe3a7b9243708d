package protocol

import "testing"

func TestAckFromBytes4(t *testing.T) {
	ack := AckFromBytes([]byte("DFRM"))

	if ack.Len() != 4 {
		t.Errorf("Len() = %d, want 4", ack.Len())
	}
	if ack.ASCII() != "DFRM" {
		t.Errorf("ASCII() = %q, want %q", ack.ASCII(), "DFRM")
	}
	if !ack.Matches32(AckDFRM) {
		t.Error("Matches32(AckDFRM) = false, want true")
	}
}

func TestAckFromU64Width(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		width int
		ascii string
	}{
		{"RUPHS", AckRUPHS, 5, "RUPHS"},
		{"PSFW1", AckPSFW1, 5, "PSFW1"},
		{"DCFI00", AckDCFI00, 6, "DCFI00"},
		{"OSIP Sz", AckOSIPSz, 7, "OSIP Sz"},
		{"RESET", AckRESET, 5, "RESET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := AckFromU64(tt.value)
			if ack.Len() != tt.width {
				t.Errorf("Len() = %d, want %d", ack.Len(), tt.width)
			}
			if ack.ASCII() != tt.ascii {
				t.Errorf("ASCII() = %q, want %q", ack.ASCII(), tt.ascii)
			}
			if !ack.Matches64(tt.value) {
				t.Error("Matches64 against own constant = false")
			}
		})
	}
}

func TestAckRoundTrip(t *testing.T) {
	// Decoding the byte form of every tag constant must match the
	// constant, and no other constant of the same width.
	tags32 := []uint32{
		AckDFRM, AckDxxM, AckDXBL, AckRUPH, AckDMIP, AckLOFW, AckHIFW,
		AckSSFW, AckDORM, AckRIMG, AckEOIU, AckDONE, AckHLTS, AckHLT0,
	}
	for _, tag := range tags32 {
		ack := AckFromBytes(AckFromU32(tag).Bytes())
		if !ack.Matches32(tag) {
			t.Errorf("round trip failed for 0x%08X (%s)", tag, ack.ASCII())
		}
		for _, other := range tags32 {
			if other != tag && ack.Matches32(other) {
				t.Errorf("%s also matches 0x%08X", ack.ASCII(), other)
			}
		}
	}

	tags64 := []uint64{AckRUPHS, AckPSFW1, AckPSFW2, AckVEDFW, AckRESET, AckROSIP, AckDIFWI}
	for _, tag := range tags64 {
		ack := AckFromBytes(AckFromU64(tag).Bytes())
		if !ack.Matches64(tag) {
			t.Errorf("round trip failed for 0x%X (%s)", tag, ack.ASCII())
		}
		for _, other := range tags64 {
			if other != tag && ack.Matches64(other) {
				t.Errorf("%s also matches 0x%X", ack.ASCII(), other)
			}
		}
	}
}

func TestAckPrefixCollision(t *testing.T) {
	// RUPHS must not be mistaken for RUPH and vice versa.
	ruphs := AckFromBytes([]byte("RUPHS"))
	if ruphs.Matches64(uint64(AckRUPH)) {
		t.Error("RUPHS matches RUPH as u64")
	}
	if !ruphs.Matches64(AckRUPHS) {
		t.Error("RUPHS does not match itself")
	}

	ruph := AckFromBytes([]byte("RUPH"))
	if ruph.Matches64(AckRUPHS) {
		t.Error("RUPH matches RUPHS")
	}
	if !ruph.Matches32(AckRUPH) {
		t.Error("RUPH does not match itself")
	}
}

func TestAckErrorDetection(t *testing.T) {
	for _, tag := range []uint32{AckER00, AckER01, AckER25, AckERRR, AckERB1} {
		ack := AckFromU32(tag)
		if !ack.IsError() {
			t.Errorf("%s not detected as error", ack.ASCII())
		}
	}

	if AckFromU32(AckDFRM).IsError() {
		t.Error("DFRM detected as error")
	}
	if AckFromBytes([]byte("ER")).IsError() {
		t.Error("2-byte ER detected as error")
	}
	// EOIU starts with 'E' but not "ER".
	if AckFromU32(AckEOIU).IsError() {
		t.Error("EOIU detected as error")
	}
}

func TestAckASCIINonPrintable(t *testing.T) {
	ack := AckFromBytes([]byte{0x01, 'A', 'B', 0xFF})
	if got := ack.ASCII(); got != ".AB." {
		t.Errorf("ASCII() = %q, want %q", got, ".AB.")
	}
}

func TestAckFromBytesTruncates(t *testing.T) {
	ack := AckFromBytes([]byte("ABCDEFGHIJ"))
	if ack.Len() != 8 {
		t.Errorf("Len() = %d, want 8", ack.Len())
	}
	if ack.ASCII() != "ABCDEFGH" {
		t.Errorf("ASCII() = %q, want %q", ack.ASCII(), "ABCDEFGH")
	}
}
