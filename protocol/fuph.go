package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// FuphMagic marks the Firmware Update Payload Header trailer at the end
// of an IFWI image.
var FuphMagic = []byte("UPH$")

// FUPH field offsets relative to the trailer start. Fields hold dword
// counts; sizes below are already converted to bytes.
const (
	fuphMipOffset   = 0x04
	fuphIfwiOffset  = 0x08
	fuphPsfw1Offset = 0x0C
	fuphPsfw2Offset = 0x10
	fuphSsfwOffset  = 0x14
	fuphSucpOffset  = 0x18
	fuphVedfwOffset = 0x1C

	// FuphHeaderLen is the full 36-byte layout; older images carry a
	// 28-byte trailer without the VEDFW field.
	FuphHeaderLen = 36
)

// FuphHeader describes the component sizes recorded in the UPH$ trailer
// of an IFWI image. It is an alternative to the front profile header and
// is used for inspection and cross-checking, not region layout.
type FuphHeader struct {
	HeaderLen int
	MipSize   uint32
	IfwiSize  uint32
	Psfw1Size uint32
	Psfw2Size uint32
	SsfwSize  uint32
	SucpSize  uint32
	VedfwSize uint32
}

// ParseFuph locates the UPH$ trailer by scanning backwards from the end
// of the image and decodes the component sizes. Returns false when no
// trailer is present.
func ParseFuph(data []byte) (FuphHeader, bool) {
	headerLen, ok := findFuphLen(data)
	if !ok || len(data) < headerLen {
		return FuphHeader{}, false
	}

	fuph := data[len(data)-headerLen:]
	read := func(offset int) uint32 {
		if offset+4 > len(fuph) {
			return 0
		}
		return binary.LittleEndian.Uint32(fuph[offset:offset+4]) * 4
	}

	h := FuphHeader{
		HeaderLen: headerLen,
		MipSize:   read(fuphMipOffset),
		IfwiSize:  read(fuphIfwiOffset),
		Psfw1Size: read(fuphPsfw1Offset),
		Psfw2Size: read(fuphPsfw2Offset),
		SsfwSize:  read(fuphSsfwOffset),
		SucpSize:  read(fuphSucpOffset),
	}
	if headerLen >= FuphHeaderLen {
		h.VedfwSize = read(fuphVedfwOffset)
	}
	return h, true
}

// TotalSize sums all recorded component sizes.
func (h FuphHeader) TotalSize() uint32 {
	return h.MipSize + h.IfwiSize + h.Psfw1Size + h.Psfw2Size +
		h.SsfwSize + h.SucpSize + h.VedfwSize
}

func (h FuphHeader) String() string {
	return fmt.Sprintf("FUPH(len=%d mip=%d ifwi=%d psfw1=%d psfw2=%d ssfw=%d sucp=%d vedfw=%d)",
		h.HeaderLen, h.MipSize, h.IfwiSize, h.Psfw1Size, h.Psfw2Size,
		h.SsfwSize, h.SucpSize, h.VedfwSize)
}

// findFuphLen scans backwards for the UPH$ magic, starting 8 bytes
// before the file end and looking at most 36 bytes further back. The
// returned length runs from just after the magic to the file end.
func findFuphLen(data []byte) (int, bool) {
	const skipBytes = 8
	const maxLen = FuphHeaderLen

	if len(data) < skipBytes+4 {
		return 0, false
	}

	offset := len(data) - skipBytes
	for cnt := 0; cnt <= maxLen; cnt += 4 {
		if offset < 4 {
			break
		}
		if bytes.Equal(data[offset-4:offset], FuphMagic) {
			return cnt + skipBytes, true
		}
		offset -= 4
	}
	return 0, false
}
