package payload

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Tinnci/dnx-go/protocol"
)

func buildOsImage(t *testing.T, partitionSizes []int, payloadLen int) []byte {
	t.Helper()

	osip := make([]byte, protocol.OsipTableSize)
	binary.LittleEndian.PutUint32(osip[0:4], protocol.OsipSignature)
	binary.LittleEndian.PutUint32(osip[8:12], uint32(len(partitionSizes)))
	for i, size := range partitionSizes {
		binary.LittleEndian.PutUint32(osip[0x30+i*0x18:], uint32(size))
	}

	img := append([]byte{}, osip...)
	body := make([]byte, payloadLen)
	for i := range body {
		body[i] = byte(i)
	}
	return append(img, body...)
}

func TestParseOs(t *testing.T) {
	img := buildOsImage(t, []int{1024, 2048}, 4096)

	osImg, err := ParseOs(img)
	if err != nil {
		t.Fatalf("ParseOs failed: %v", err)
	}

	if osImg.NumPartitions() != 2 {
		t.Errorf("NumPartitions = %d, want 2", osImg.NumPartitions())
	}
	if osImg.NonStandardSignature {
		t.Error("standard signature flagged as non-standard")
	}
	if len(osImg.OsipBytes()) != protocol.OsipTableSize {
		t.Errorf("OsipBytes length = %d", len(osImg.OsipBytes()))
	}
	if len(osImg.ImageData()) != 4096 {
		t.Errorf("ImageData length = %d, want 4096", len(osImg.ImageData()))
	}

	p0, err := osImg.Partition(0)
	if err != nil || len(p0) != 1024 {
		t.Errorf("Partition(0): len=%d err=%v", len(p0), err)
	}
	p1, err := osImg.Partition(1)
	if err != nil || len(p1) != 2048 {
		t.Errorf("Partition(1): len=%d err=%v", len(p1), err)
	}
	// Partitions are sequential after the table.
	if !bytes.Equal(p0, osImg.ImageData()[:1024]) {
		t.Error("partition 0 does not start at the table end")
	}
	if !bytes.Equal(p1, osImg.ImageData()[1024:1024+2048]) {
		t.Error("partition 1 does not follow partition 0")
	}

	if _, err := osImg.Partition(2); err == nil {
		t.Error("Partition(2) out of range did not fail")
	}
}

func TestParseOsTooSmall(t *testing.T) {
	_, err := ParseOs(make([]byte, protocol.OsipTableSize-1))
	if !errors.Is(err, ErrOsImageTooSmall) {
		t.Errorf("error = %v, want ErrOsImageTooSmall", err)
	}
}

func TestParseOsNonStandardSignature(t *testing.T) {
	img := buildOsImage(t, nil, 128)
	binary.LittleEndian.PutUint32(img[0:4], 0xDEADBEEF)

	osImg, err := ParseOs(img)
	if err != nil {
		t.Fatalf("ParseOs rejected non-standard signature: %v", err)
	}
	if !osImg.NonStandardSignature {
		t.Error("non-standard signature not flagged")
	}
}

func TestParseOsZeroSignature(t *testing.T) {
	img := buildOsImage(t, nil, 128)
	binary.LittleEndian.PutUint32(img[0:4], 0)

	osImg, err := ParseOs(img)
	if err != nil {
		t.Fatalf("ParseOs rejected zero signature: %v", err)
	}
	if osImg.NonStandardSignature {
		t.Error("zero signature flagged as non-standard")
	}
}

func TestOsImageDataEmpty(t *testing.T) {
	img := buildOsImage(t, nil, 0)
	osImg, err := ParseOs(img)
	if err != nil {
		t.Fatalf("ParseOs failed: %v", err)
	}
	if len(osImg.ImageData()) != 0 {
		t.Errorf("ImageData length = %d, want 0", len(osImg.ImageData()))
	}
}
