package payload

import (
	"encoding/binary"
	"fmt"
)

// fipPattern is the little-endian "$FIP" marker of a firmware image
// profile block.
const fipPattern uint32 = 0x50494624

// Version block offsets inside a FIP block. Each block is 8 bytes
// (minor u16, major u16, checksum u8, reserved), except the CHxx
// entries which carry an extra size/dest word (12 bytes each).
const (
	fipCh00Offset = 4 + 4*8
	fipScucOffset = 4 + 7*8
	fipMiaOffset  = 4 + 9*8
	fipIa32Offset = 4 + 10*8
	fipOemOffset  = 4 + 11*8
	fipIfwiOffset = 4 + 17*8 + 15*12 + 3*8
	fipBlockSize  = 4 + 21*8 + 15*12
)

// Version is a (major, minor) firmware component version.
type Version struct {
	Major uint16
	Minor uint16
}

// Valid reports whether the version carries any data.
func (v Version) Valid() bool { return v.Major != 0 || v.Minor != 0 }

func (v Version) String() string {
	return fmt.Sprintf("%04X.%04X", v.Major, v.Minor)
}

// FirmwareVersions collects the component versions recorded in the FIP
// blocks of an IFWI image.
type FirmwareVersions struct {
	Ifwi     Version
	Scu      Version
	Ia32     Version
	ValHooks Version
	Chaabi   Version
	Mia      Version
}

func (fv FirmwareVersions) String() string {
	return fmt.Sprintf("ifwi=%s scu=%s hooks/oem=%s ia32=%s chaabi=%s mia=%s",
		fv.Ifwi, fv.Scu, fv.ValHooks, fv.Ia32, fv.Chaabi, fv.Mia)
}

// ExtractVersions scans an IFWI image for $FIP blocks and merges the
// per-component versions they record. Later blocks only overwrite
// fields they actually populate. Returns false when no block with
// usable version data is found.
func ExtractVersions(data []byte) (FirmwareVersions, bool) {
	var fv FirmwareVersions

	for offset := 0; offset+fipBlockSize <= len(data); offset += 4 {
		if binary.LittleEndian.Uint32(data[offset:offset+4]) != fipPattern {
			continue
		}
		block := data[offset : offset+fipBlockSize]
		merge(&fv.Chaabi, readVersion(block, fipCh00Offset))
		merge(&fv.Scu, readVersion(block, fipScucOffset))
		merge(&fv.Mia, readVersion(block, fipMiaOffset))
		merge(&fv.Ia32, readVersion(block, fipIa32Offset))
		merge(&fv.ValHooks, readVersion(block, fipOemOffset))
		merge(&fv.Ifwi, readVersion(block, fipIfwiOffset))
	}

	return fv, fv.Ifwi.Valid() || fv.Scu.Valid()
}

func readVersion(block []byte, offset int) Version {
	if offset+4 > len(block) {
		return Version{}
	}
	return Version{
		Minor: binary.LittleEndian.Uint16(block[offset : offset+2]),
		Major: binary.LittleEndian.Uint16(block[offset+2 : offset+4]),
	}
}

func merge(dst *Version, src Version) {
	if src.Minor != 0 {
		dst.Minor = src.Minor
	}
	if src.Major != 0 {
		dst.Major = src.Major
	}
}
