package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDnxHeaderRoundTrip(t *testing.T) {
	h := NewDnxHeader(0x12345678, 0x80000807)
	buf := h.Marshal()

	if len(buf) != DnxHeaderSize {
		t.Fatalf("Marshal() length = %d, want %d", len(buf), DnxHeaderSize)
	}

	parsed, err := UnmarshalDnxHeader(buf)
	if err != nil {
		t.Fatalf("UnmarshalDnxHeader failed: %v", err)
	}
	if parsed.Size != 0x12345678 {
		t.Errorf("Size = 0x%08X, want 0x12345678", parsed.Size)
	}
	if parsed.GPFlags != 0x80000807 {
		t.Errorf("GPFlags = 0x%08X, want 0x80000807", parsed.GPFlags)
	}
	if parsed.Checksum != 0x12345678^0x80000807 {
		t.Errorf("Checksum = 0x%08X, want XOR of size and flags", parsed.Checksum)
	}
	if !parsed.Valid() {
		t.Error("Valid() = false after round trip")
	}
}

func TestDnxHeaderWireLayout(t *testing.T) {
	// Non-virgin scenario: size=len, flags=0, checksum=len^0.
	h := NewDnxHeader(109812, 0)
	buf := h.Marshal()

	if got := binary.LittleEndian.Uint32(buf[0:4]); got != 109812 {
		t.Errorf("size word = %d, want 109812", got)
	}
	for i := 4; i < 20; i += 4 {
		if got := binary.LittleEndian.Uint32(buf[i : i+4]); got != 0 {
			t.Errorf("word at %d = %d, want 0", i, got)
		}
	}
	if got := binary.LittleEndian.Uint32(buf[20:24]); got != 109812 {
		t.Errorf("checksum word = %d, want 109812", got)
	}
}

func TestDnxHeaderShortBuffer(t *testing.T) {
	if _, err := UnmarshalDnxHeader(make([]byte, 23)); err == nil {
		t.Error("UnmarshalDnxHeader accepted a short buffer")
	}
}

func TestProfileHeaderFields(t *testing.T) {
	raw := make([]byte, ProfileHeaderSizeD0)
	binary.LittleEndian.PutUint32(raw[Psfw1SizeOffset:], 0x32000)
	binary.LittleEndian.PutUint32(raw[Psfw2SizeOffset:], 0x32000)
	binary.LittleEndian.PutUint32(raw[SsfwSizeOffset:], 0x8000)
	binary.LittleEndian.PutUint32(raw[RomPatchSizeOffset:], 0x400)

	p, err := ProfileHeaderFrom(raw, ProfileHeaderSizeD0)
	if err != nil {
		t.Fatalf("ProfileHeaderFrom failed: %v", err)
	}

	if p.Psfw1Size() != 0x32000 {
		t.Errorf("Psfw1Size = 0x%X, want 0x32000", p.Psfw1Size())
	}
	if p.Psfw2Size() != 0x32000 {
		t.Errorf("Psfw2Size = 0x%X, want 0x32000", p.Psfw2Size())
	}
	if p.SsfwSize() != 0x8000 {
		t.Errorf("SsfwSize = 0x%X, want 0x8000", p.SsfwSize())
	}
	if p.RomPatchSize() != 0x400 {
		t.Errorf("RomPatchSize = 0x%X, want 0x400", p.RomPatchSize())
	}

	want := []byte{ProfileHeaderSizeD0, 0, 0, 0}
	if !bytes.Equal(p.SizeLE(), want) {
		t.Errorf("SizeLE() = %v, want %v", p.SizeLE(), want)
	}
}

func TestProfileHeaderOldLayoutZeroedRomPatch(t *testing.T) {
	raw := make([]byte, ProfileHeaderSizeOldMfd)
	p, err := ProfileHeaderFrom(raw, ProfileHeaderSizeOldMfd)
	if err != nil {
		t.Fatalf("ProfileHeaderFrom failed: %v", err)
	}
	if p.RomPatchSize() != 0 {
		t.Errorf("RomPatchSize = %d on 0x1C layout, want 0", p.RomPatchSize())
	}
}

func TestOsipHeader(t *testing.T) {
	raw := make([]byte, OsipTableSize)
	binary.LittleEndian.PutUint32(raw[0:4], OsipSignature)
	binary.LittleEndian.PutUint32(raw[4:8], 1)
	binary.LittleEndian.PutUint32(raw[8:12], 2)
	binary.LittleEndian.PutUint32(raw[0x30:], 0x40000)
	binary.LittleEndian.PutUint32(raw[0x30+0x18:], 0x1000)

	osip, err := UnmarshalOsip(raw)
	if err != nil {
		t.Fatalf("UnmarshalOsip failed: %v", err)
	}
	if osip.Signature != OsipSignature {
		t.Errorf("Signature = 0x%08X, want 0x%08X", osip.Signature, OsipSignature)
	}
	if osip.NumPointers != 2 {
		t.Errorf("NumPointers = %d, want 2", osip.NumPointers)
	}
	if len(osip.Bytes()) != OsipTableSize {
		t.Errorf("Bytes() length = %d, want %d", len(osip.Bytes()), OsipTableSize)
	}

	size, ok := osip.PartitionSize(0)
	if !ok || size != 0x40000 {
		t.Errorf("PartitionSize(0) = %d,%v, want 0x40000,true", size, ok)
	}
	size, ok = osip.PartitionSize(1)
	if !ok || size != 0x1000 {
		t.Errorf("PartitionSize(1) = %d,%v, want 0x1000,true", size, ok)
	}
}

func TestOsipHeaderShortBuffer(t *testing.T) {
	if _, err := UnmarshalOsip(make([]byte, OsipTableSize-1)); err == nil {
		t.Error("UnmarshalOsip accepted a short buffer")
	}
}
