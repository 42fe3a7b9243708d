package protocol

import "encoding/binary"

// CodecError is returned when a header buffer is malformed.
type CodecError string

func (e CodecError) Error() string { return string(e) }

const (
	ErrInsufficientData CodecError = "insufficient data for header"
)

// DnxHeader is the 24-byte dynamic download header sent in response to
// DxxM on non-virgin parts. All fields are little-endian on the wire:
// size, gp_flags, three reserved words, then checksum = size ^ gp_flags.
type DnxHeader struct {
	Size     uint32
	GPFlags  uint32
	Reserved [3]uint32
	Checksum uint32
}

// NewDnxHeader builds a header with a valid checksum.
func NewDnxHeader(size, gpFlags uint32) DnxHeader {
	return DnxHeader{
		Size:     size,
		GPFlags:  gpFlags,
		Checksum: size ^ gpFlags,
	}
}

// Marshal encodes the header into its 24-byte wire form.
func (h *DnxHeader) Marshal() []byte {
	buf := make([]byte, DnxHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Size)
	binary.LittleEndian.PutUint32(buf[4:8], h.GPFlags)
	binary.LittleEndian.PutUint32(buf[8:12], h.Reserved[0])
	binary.LittleEndian.PutUint32(buf[12:16], h.Reserved[1])
	binary.LittleEndian.PutUint32(buf[16:20], h.Reserved[2])
	binary.LittleEndian.PutUint32(buf[20:24], h.Checksum)
	return buf
}

// UnmarshalDnxHeader decodes a 24-byte DnX header.
func UnmarshalDnxHeader(data []byte) (DnxHeader, error) {
	var h DnxHeader
	if len(data) < DnxHeaderSize {
		return h, ErrInsufficientData
	}
	h.Size = binary.LittleEndian.Uint32(data[0:4])
	h.GPFlags = binary.LittleEndian.Uint32(data[4:8])
	h.Reserved[0] = binary.LittleEndian.Uint32(data[8:12])
	h.Reserved[1] = binary.LittleEndian.Uint32(data[12:16])
	h.Reserved[2] = binary.LittleEndian.Uint32(data[16:20])
	h.Checksum = binary.LittleEndian.Uint32(data[20:24])
	return h, nil
}

// Valid reports whether the XOR checksum matches the size and flags.
func (h *DnxHeader) Valid() bool {
	return h.Checksum == h.Size^h.GPFlags
}

// ProfileHeader is the FW update profile header found immediately after
// the DnX header in an IFWI image. The block is opaque except for the
// four component-size words at fixed offsets; its total size depends on
// the platform stepping (0x1C, 0x20 or 0x24).
type ProfileHeader struct {
	data []byte
	size int
}

// ProfileHeaderFrom extracts the profile header from the bytes that
// follow the DnX header.
func ProfileHeaderFrom(fw []byte, size int) (ProfileHeader, error) {
	if len(fw) < size {
		return ProfileHeader{}, ErrInsufficientData
	}
	data := make([]byte, size)
	copy(data, fw[:size])
	return ProfileHeader{data: data, size: size}, nil
}

// Size returns the detected header size in bytes.
func (p ProfileHeader) Size() int { return p.size }

// Bytes returns the raw header block.
func (p ProfileHeader) Bytes() []byte { return p.data }

// SizeLE returns the header size as the 4-byte little-endian word the
// device expects in answer to RUPHS.
func (p ProfileHeader) SizeLE() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(p.size))
	return buf
}

// Psfw1Size returns the primary security FW 1 size field.
func (p ProfileHeader) Psfw1Size() uint32 { return p.fieldAt(Psfw1SizeOffset) }

// Psfw2Size returns the primary security FW 2 size field.
func (p ProfileHeader) Psfw2Size() uint32 { return p.fieldAt(Psfw2SizeOffset) }

// SsfwSize returns the secondary security FW size field.
func (p ProfileHeader) SsfwSize() uint32 { return p.fieldAt(SsfwSizeOffset) }

// RomPatchSize returns the ROM patch size field at 0x18. All three known
// layouts (0x1C, 0x20, 0x24) hold it; a header too short to hold the
// field reports zero.
func (p ProfileHeader) RomPatchSize() uint32 {
	if p.size <= RomPatchSizeOffset {
		return 0
	}
	return p.fieldAt(RomPatchSizeOffset)
}

func (p ProfileHeader) fieldAt(offset int) uint32 {
	if len(p.data) < offset+4 {
		return 0
	}
	return binary.LittleEndian.Uint32(p.data[offset : offset+4])
}

// OsipHeader is the 512-byte OS Image Package partition table at the
// front of an OS recovery image.
type OsipHeader struct {
	data        []byte
	Signature   uint32
	HeaderSize  uint32
	NumPointers uint32
}

// UnmarshalOsip decodes the fixed 512-byte OSIP view.
func UnmarshalOsip(data []byte) (OsipHeader, error) {
	if len(data) < OsipTableSize {
		return OsipHeader{}, ErrInsufficientData
	}
	raw := make([]byte, OsipTableSize)
	copy(raw, data[:OsipTableSize])
	return OsipHeader{
		data:        raw,
		Signature:   binary.LittleEndian.Uint32(raw[0:4]),
		HeaderSize:  binary.LittleEndian.Uint32(raw[4:8]),
		NumPointers: binary.LittleEndian.Uint32(raw[8:12]),
	}, nil
}

// Bytes returns the full 512-byte table.
func (o OsipHeader) Bytes() []byte { return o.data }

// PartitionSize returns the size field of partition entry n. Entries
// start at 0x30 with a stride of 0x18.
func (o OsipHeader) PartitionSize(n int) (uint32, bool) {
	offset := 0x30 + n*0x18
	if offset+4 > len(o.data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(o.data[offset : offset+4]), true
}
