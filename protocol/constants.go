// Package protocol implements the DnX wire codec: preamble and ACK
// constants, variable-length ACK parsing, and the fixed-layout headers
// exchanged with Medfield/Moorefield ROM loaders.
package protocol

// Preambles sent host-to-device as little-endian 32-bit words.
const (
	// PreambleDnER opens the download handshake.
	PreambleDnER uint32 = 0x52456E44 // "DnER"
	// PreambleIDRQ requests device identification (unused in normal flow).
	PreambleIDRQ uint32 = 0x51524449 // "IDRQ"
	// PreambleBMRQ requests battery status (unused in normal flow).
	PreambleBMRQ uint32 = 0x51524D42 // "BMRQ"
)

// Battery-status (BATI) preambles carried over from the ROM protocol.
const (
	PreambleDBDS  uint32 = 0x53444244 // "DBDS"
	PreambleRRBD  uint32 = 0x44425252 // "RRBD"
	BatiSignature uint32 = 0x42415449 // "BATI"
)

// 4-byte ACK codes, matched as big-endian ASCII.
const (
	AckDFRM uint32 = 0x4446524D // virgin part, start fresh FW download
	AckDxxM uint32 = 0x4478784D // non-virgin part, expects dynamic DnX header
	AckDXBL uint32 = 0x4458424C // ready for DnX loader binary
	AckRUPH uint32 = 0x52555048 // request FW update profile header
	AckDMIP uint32 = 0x444D4950 // request module-info-pointer block
	AckLOFW uint32 = 0x4C4F4657 // request first 128 KiB of FW
	AckHIFW uint32 = 0x48494657 // request second 128 KiB of FW
	AckSSFW uint32 = 0x53534657 // request secondary security FW chunk
	AckDORM uint32 = 0x444F524D // enter OS recovery mode
	AckRIMG uint32 = 0x52494D47 // request next OS image chunk
	AckEOIU uint32 = 0x454F4955 // end of OS update
	AckDONE uint32 = 0x444F4E45 // overall completion
	AckHLTS uint32 = 0x484C5424 // "HLT$" update successful
	AckHLT0 uint32 = 0x484C5430 // input size is zero (soft success)
)

// Longer ACK codes (5-7 bytes). Matched before the 4-byte set to avoid
// prefix collisions (RUPHS vs RUPH, PSFW1 vs PSFW).
const (
	AckRUPHS  uint64 = 0x5255504853     // request profile header size as u32
	AckPSFW1  uint64 = 0x5053465731     // request primary security FW 1 chunk
	AckPSFW2  uint64 = 0x5053465732     // request primary security FW 2 chunk
	AckVEDFW  uint64 = 0x5645444657     // request video codec FW chunk
	AckRESET  uint64 = 0x5245534554     // device will GPP-reset and re-enumerate
	AckROSIP  uint64 = 0x524F534950     // request OSIP table
	AckDIFWI  uint64 = 0x4449465749     // request IFWI chunk (post-Chaabi path)
	AckDCFI00 uint64 = 0x444346493030   // request Chaabi firmware
	AckOSIPSz uint64 = 0x4F53495020537A // "OSIP Sz" informational size request
)

// Device-reported error codes. Any ACK whose first two bytes are "ER"
// is fatal; this table names the codes the ROM is known to emit.
const (
	AckER00 uint32 = 0x45523030
	AckER01 uint32 = 0x45523031
	AckER02 uint32 = 0x45523032
	AckER03 uint32 = 0x45523033
	AckER04 uint32 = 0x45523034
	AckER10 uint32 = 0x45523130
	AckER11 uint32 = 0x45523131
	AckER12 uint32 = 0x45523132
	AckER13 uint32 = 0x45523133
	AckER15 uint32 = 0x45523135
	AckER16 uint32 = 0x45523136
	AckER17 uint32 = 0x45523137
	AckER18 uint32 = 0x45523138
	AckER20 uint32 = 0x45523230
	AckER21 uint32 = 0x45523231
	AckER22 uint32 = 0x45523232
	AckER25 uint32 = 0x45523235
	AckERRR uint32 = 0x45525252
	AckERB0 uint32 = 0x45524230
	AckERB1 uint32 = 0x45524231
)

// Sizes and layout constants.
const (
	// MaxPacketSize is the bulk endpoint max transfer used for ACK reads.
	MaxPacketSize = 0x200

	// ChunkSize128K is the segment size for all chunked component transfers.
	ChunkSize128K = 128 * 1024

	// DnxHeaderSize is the fixed size of the 24-byte DnX header.
	DnxHeaderSize = 0x18

	// Profile header sizes by platform stepping.
	ProfileHeaderSizeD0     = 0x24
	ProfileHeaderSizeC0     = 0x20
	ProfileHeaderSizeOldMfd = 0x1C

	// Component size field offsets inside the profile header.
	Psfw1SizeOffset    = 0x0C
	Psfw2SizeOffset    = 0x10
	SsfwSizeOffset     = 0x14
	RomPatchSizeOffset = 0x18

	// OsipTableSize is the fixed size of the OSIP partition table.
	OsipTableSize = 0x200
)

// OsipSignature is the little-endian "$OS$" marker at the start of an
// OSIP table. Images with a zero signature word are tolerated.
const OsipSignature uint32 = 0x24534F24

// USB identity of devices in DnX recovery mode.
const IntelVendorID uint16 = 0x8086

// SupportedProductIDs lists the PIDs a recovery-mode part may enumerate
// with, including the post-GPP-reset identity.
var SupportedProductIDs = []uint16{0xE004, 0x0A14, 0x0A2C, 0x0A65}
