package payload

import (
	"bytes"
	"fmt"
)

// ASCII markers delimiting the Chaabi security region inside a FW DnX
// binary.
var (
	markerCH00 = []byte("CH00")
	markerCDPH = []byte("CDPH")
	markerDTKN = []byte("DTKN")
	markerCHT  = []byte("$CHT") // TNG A0
	markerChPr = []byte("ChPr") // TNG B0 / ANN
)

// FindChaabiRange locates the Token+FW section of a DnX binary. The
// section starts at the DTKN marker when present, else $CHT-0x80, else
// ChPr, else CH00-0x80, and ends at the CDPH marker. Markers found at
// or after CH00 belong to the region body and are ignored for the start
// choice.
func FindChaabiRange(data []byte) (start, end int, ok bool) {
	ch00 := bytes.Index(data, markerCH00)
	cdph := bytes.Index(data, markerCDPH)
	if ch00 < 0 || cdph < 0 || ch00 < 0x80 {
		return 0, 0, false
	}

	start = ch00 - 0x80
	if pos := bytes.Index(data, markerDTKN); pos >= 0 && pos < ch00 {
		start = pos
	} else if pos := bytes.Index(data, markerCHT); pos >= 0 && pos < ch00 && pos >= 0x80 {
		start = pos - 0x80
	} else if pos := bytes.Index(data, markerChPr); pos >= 0 && pos < ch00 {
		start = pos
	}

	end = cdph
	if start >= end || end > len(data) {
		return 0, 0, false
	}
	return start, end, true
}

// BuildChaabiPayload assembles the Chaabi firmware answer to DCFI00:
// the last 24 bytes of the file (the CDPH header lives at the file end,
// not at the CDPH marker) followed by the Token+FW section.
func BuildChaabiPayload(data []byte) ([]byte, error) {
	start, end, ok := FindChaabiRange(data)
	if !ok {
		return nil, fmt.Errorf("%w in %d-byte dnx binary", ErrMarkerNotFound, len(data))
	}
	if len(data) < 24 {
		return nil, fmt.Errorf("%w: file shorter than CDPH header", ErrMarkerNotFound)
	}

	cdphHeader := data[len(data)-24:]
	tokenFw := data[start:end]

	out := make([]byte, 0, 24+len(tokenFw))
	out = append(out, cdphHeader...)
	out = append(out, tokenFw...)
	return out, nil
}
