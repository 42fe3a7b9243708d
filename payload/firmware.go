package payload

import (
	"fmt"

	"github.com/Tinnci/dnx-go/protocol"
)

// ParseError is returned when an input blob cannot be parsed.
type ParseError string

func (e ParseError) Error() string { return string(e) }

const (
	ErrFirmwareTooSmall ParseError = "firmware image too small"
	ErrOsImageTooSmall  ParseError = "os image too small"
	ErrMarkerNotFound   ParseError = "chaabi markers not found"
)

// region is a resolved (offset, length) span inside the image bytes.
type region struct {
	offset int
	length int
}

// FirmwareImage is a parsed IFWI blob. Regions follow the canonical
// layout in declared order:
//
//	DnxHeader(24) | ProfileHeader | LOFW(128K) | HIFW(128K) |
//	PSFW1 | PSFW2 | SSFW | RomPatch | VEDFW
//
// Component sizes come from the profile header; VEDFW absorbs whatever
// bytes remain. Empty components are zero-length spans, never absent.
// The image is immutable after construction.
type FirmwareImage struct {
	data    []byte
	profile protocol.ProfileHeader

	psfw1    region
	psfw2    region
	ssfw     region
	romPatch region
	vedfw    region
}

// ParseFirmware parses an IFWI blob. The profile header size defaults
// to the largest known layout (0x24, D0 stepping).
func ParseFirmware(data []byte) (*FirmwareImage, error) {
	return ParseFirmwareWithProfileSize(data, protocol.ProfileHeaderSizeD0)
}

// ParseFirmwareWithProfileSize parses an IFWI blob with an explicit
// profile header size (0x1C, 0x20 or 0x24).
func ParseFirmwareWithProfileSize(data []byte, profileSize int) (*FirmwareImage, error) {
	const minimum = protocol.DnxHeaderSize + 256
	if len(data) < minimum {
		return nil, fmt.Errorf("%w: %d bytes, minimum %d", ErrFirmwareTooSmall, len(data), minimum)
	}

	profile, err := protocol.ProfileHeaderFrom(data[protocol.DnxHeaderSize:], profileSize)
	if err != nil {
		return nil, fmt.Errorf("profile header: %w", err)
	}

	// Size fields are raw byte counts in this layout; the dword-count
	// (x4) convention belongs to the FUPH trailer, not the front header.
	psfw1Size := int(profile.Psfw1Size())
	psfw2Size := int(profile.Psfw2Size())
	ssfwSize := int(profile.SsfwSize())
	romPatchSize := int(profile.RomPatchSize())

	base := protocol.DnxHeaderSize + profileSize
	psfw1Off := base + 2*protocol.ChunkSize128K
	psfw2Off := psfw1Off + psfw1Size
	ssfwOff := psfw2Off + psfw2Size
	romPatchOff := ssfwOff + ssfwSize
	vedfwOff := romPatchOff + romPatchSize
	vedfwSize := 0
	if vedfwOff < len(data) {
		vedfwSize = len(data) - vedfwOff
	}

	return &FirmwareImage{
		data:     data,
		profile:  profile,
		psfw1:    region{psfw1Off, psfw1Size},
		psfw2:    region{psfw2Off, psfw2Size},
		ssfw:     region{ssfwOff, ssfwSize},
		romPatch: region{romPatchOff, romPatchSize},
		vedfw:    region{vedfwOff, vedfwSize},
	}, nil
}

// DnxHeaderBytes returns the leading 24-byte DnX header region.
func (f *FirmwareImage) DnxHeaderBytes() []byte {
	return f.data[:protocol.DnxHeaderSize]
}

// ProfileHeader returns the parsed profile header.
func (f *FirmwareImage) ProfileHeader() protocol.ProfileHeader { return f.profile }

// ProfileHeaderBytes returns the raw profile header block.
func (f *FirmwareImage) ProfileHeaderBytes() []byte { return f.profile.Bytes() }

// ProfileHeaderSizeLE returns the profile header size as the 4-byte
// little-endian answer to RUPHS.
func (f *FirmwareImage) ProfileHeaderSizeLE() []byte { return f.profile.SizeLE() }

// Lofw returns the first 128 KiB firmware half. May be short at EOF.
func (f *FirmwareImage) Lofw() []byte {
	start := protocol.DnxHeaderSize + f.profile.Size()
	return f.clamp(region{start, protocol.ChunkSize128K})
}

// Hifw returns the second 128 KiB firmware half. May be short at EOF.
func (f *FirmwareImage) Hifw() []byte {
	start := protocol.DnxHeaderSize + f.profile.Size() + protocol.ChunkSize128K
	return f.clamp(region{start, protocol.ChunkSize128K})
}

// Psfw1 returns the primary security FW 1 region.
func (f *FirmwareImage) Psfw1() []byte { return f.clamp(f.psfw1) }

// Psfw2 returns the primary security FW 2 region.
func (f *FirmwareImage) Psfw2() []byte { return f.clamp(f.psfw2) }

// Ssfw returns the secondary security FW region.
func (f *FirmwareImage) Ssfw() []byte { return f.clamp(f.ssfw) }

// RomPatch returns the ROM patch region.
func (f *FirmwareImage) RomPatch() []byte { return f.clamp(f.romPatch) }

// Vedfw returns the video codec FW region (everything after RomPatch).
func (f *FirmwareImage) Vedfw() []byte { return f.clamp(f.vedfw) }

// Fuph returns the UPH$ trailer when the image carries one.
func (f *FirmwareImage) Fuph() (protocol.FuphHeader, bool) {
	return protocol.ParseFuph(f.data)
}

// Raw returns the full image bytes.
func (f *FirmwareImage) Raw() []byte { return f.data }

// Len returns the image size.
func (f *FirmwareImage) Len() int { return len(f.data) }

// clamp resolves a span against the image bounds, returning an empty
// slice for out-of-range or zero-length regions.
func (f *FirmwareImage) clamp(r region) []byte {
	if r.length <= 0 || r.offset >= len(f.data) {
		return nil
	}
	end := r.offset + r.length
	if end > len(f.data) {
		end = len(f.data)
	}
	return f.data[r.offset:end]
}
