package payload

import (
	"fmt"

	"github.com/Tinnci/dnx-go/protocol"
)

// OsImage is a parsed OS recovery image: a 512-byte OSIP partition
// table followed by the partition payloads laid out sequentially.
// Immutable after construction.
type OsImage struct {
	data       []byte
	osip       protocol.OsipHeader
	partitions []region
	// NonStandardSignature is set when the OSIP signature word is
	// nonzero but not "$OS$". Parsing continues; callers may warn.
	NonStandardSignature bool
}

// ParseOs parses an OS recovery image. Inputs shorter than the OSIP
// table are rejected.
func ParseOs(data []byte) (*OsImage, error) {
	if len(data) < protocol.OsipTableSize {
		return nil, fmt.Errorf("%w: %d bytes, minimum %d", ErrOsImageTooSmall, len(data), protocol.OsipTableSize)
	}

	osip, err := protocol.UnmarshalOsip(data)
	if err != nil {
		return nil, fmt.Errorf("osip table: %w", err)
	}

	img := &OsImage{data: data, osip: osip}
	if osip.Signature != 0 && osip.Signature != protocol.OsipSignature {
		img.NonStandardSignature = true
	}

	// Partitions occupy sequential spans after the table, each sized by
	// its OSIP entry.
	offset := protocol.OsipTableSize
	for i := 0; i < int(osip.NumPointers); i++ {
		size, ok := osip.PartitionSize(i)
		if !ok {
			break
		}
		img.partitions = append(img.partitions, region{offset, int(size)})
		offset += int(size)
	}

	return img, nil
}

// Osip returns the parsed OSIP header.
func (o *OsImage) Osip() protocol.OsipHeader { return o.osip }

// OsipBytes returns the 512-byte OSIP view sent in answer to ROSIP.
func (o *OsImage) OsipBytes() []byte { return o.osip.Bytes() }

// NumPartitions returns the OSIP partition count.
func (o *OsImage) NumPartitions() int { return len(o.partitions) }

// Partition returns the payload bytes of partition i.
func (o *OsImage) Partition(i int) ([]byte, error) {
	if i < 0 || i >= len(o.partitions) {
		return nil, fmt.Errorf("partition %d out of range", i)
	}
	r := o.partitions[i]
	end := r.offset + r.length
	if end > len(o.data) {
		return nil, fmt.Errorf("partition %d spans past image end", i)
	}
	return o.data[r.offset:end], nil
}

// ImageData returns everything after the OSIP table; this is the byte
// stream chunked out in answer to RIMG.
func (o *OsImage) ImageData() []byte {
	if len(o.data) <= protocol.OsipTableSize {
		return nil
	}
	return o.data[protocol.OsipTableSize:]
}

// Raw returns the full image bytes.
func (o *OsImage) Raw() []byte { return o.data }

// Len returns the image size.
func (o *OsImage) Len() int { return len(o.data) }
