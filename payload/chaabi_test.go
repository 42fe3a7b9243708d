package payload

import (
	"bytes"
	"errors"
	"testing"
)

// buildDnxBinary places markers at the given offsets in a zeroed blob.
func buildDnxBinary(t *testing.T, size int, markers map[int]string) []byte {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i * 7)
	}
	for offset, marker := range markers {
		copy(data[offset:], marker)
	}
	return data
}

func TestFindChaabiRangeDTKN(t *testing.T) {
	data := buildDnxBinary(t, 0xA000, map[int]string{
		0x800:  "DTKN",
		0x1000: "CH00",
		0x9000: "CDPH",
	})

	start, end, ok := FindChaabiRange(data)
	if !ok {
		t.Fatal("FindChaabiRange failed")
	}
	if start != 0x800 {
		t.Errorf("start = 0x%X, want 0x800 (DTKN)", start)
	}
	if end != 0x9000 {
		t.Errorf("end = 0x%X, want 0x9000 (CDPH)", end)
	}
}

func TestFindChaabiRangeFallbacks(t *testing.T) {
	// No token markers: CH00 - 0x80.
	data := buildDnxBinary(t, 0xA000, map[int]string{
		0x1000: "CH00",
		0x9000: "CDPH",
	})
	start, _, ok := FindChaabiRange(data)
	if !ok || start != 0x1000-0x80 {
		t.Errorf("CH00 fallback start = 0x%X ok=%v, want 0x%X", start, ok, 0x1000-0x80)
	}

	// $CHT marker: start is $CHT - 0x80.
	data = buildDnxBinary(t, 0xA000, map[int]string{
		0x900:  "$CHT",
		0x1000: "CH00",
		0x9000: "CDPH",
	})
	start, _, ok = FindChaabiRange(data)
	if !ok || start != 0x900-0x80 {
		t.Errorf("$CHT start = 0x%X ok=%v, want 0x%X", start, ok, 0x900-0x80)
	}

	// ChPr marker: start is the marker itself.
	data = buildDnxBinary(t, 0xA000, map[int]string{
		0x700:  "ChPr",
		0x1000: "CH00",
		0x9000: "CDPH",
	})
	start, _, ok = FindChaabiRange(data)
	if !ok || start != 0x700 {
		t.Errorf("ChPr start = 0x%X ok=%v, want 0x700", start, ok)
	}
}

func TestFindChaabiRangeMissingMarkers(t *testing.T) {
	if _, _, ok := FindChaabiRange(make([]byte, 0x4000)); ok {
		t.Error("FindChaabiRange succeeded on zeroed data")
	}
	// CH00 without CDPH.
	data := buildDnxBinary(t, 0x4000, map[int]string{0x1000: "CH00"})
	if _, _, ok := FindChaabiRange(data); ok {
		t.Error("FindChaabiRange succeeded without CDPH")
	}
}

func TestBuildChaabiPayload(t *testing.T) {
	data := buildDnxBinary(t, 0xA000, map[int]string{
		0x800:  "DTKN",
		0x1000: "CH00",
		0x9000: "CDPH",
	})

	got, err := BuildChaabiPayload(data)
	if err != nil {
		t.Fatalf("BuildChaabiPayload failed: %v", err)
	}

	// Last 24 bytes of the file, then Token+FW from DTKN to CDPH.
	want := append([]byte{}, data[len(data)-24:]...)
	want = append(want, data[0x800:0x9000]...)
	if !bytes.Equal(got, want) {
		t.Fatalf("payload mismatch: got %d bytes, want %d", len(got), len(want))
	}
}

func TestBuildChaabiPayloadNoMarkers(t *testing.T) {
	_, err := BuildChaabiPayload(make([]byte, 0x4000))
	if !errors.Is(err, ErrMarkerNotFound) {
		t.Errorf("error = %v, want ErrMarkerNotFound", err)
	}
}
