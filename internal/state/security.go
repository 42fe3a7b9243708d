package state

import (
	"fmt"

	"github.com/Tinnci/dnx-go/events"
	"github.com/Tinnci/dnx-go/payload"
	"github.com/Tinnci/dnx-go/protocol"
)

// sendChunked answers one request against a chunked region. The device
// re-issues the same tag until the region drains; the per-region cursor
// makes successive ACKs consume successive chunks.
func (d *Dispatcher) sendChunked(name string, data []byte, cursor *payload.ChunkCursor) (Result, error) {
	if len(data) == 0 {
		d.log(events.LevelDebug, fmt.Sprintf("%s region is empty", name))
		return ResultContinue, nil
	}

	if cursor.Total == 0 {
		*cursor = payload.NewChunkCursor(len(data), protocol.ChunkSize128K)
	}

	chunk, ok := cursor.Next(data)
	if !ok {
		d.log(events.LevelWarn, fmt.Sprintf("%s already exhausted", name))
		return ResultContinue, nil
	}

	if err := d.send(name, chunk); err != nil {
		return ResultContinue, err
	}
	d.emit(events.Progress{
		Phase:     events.PhaseFirmwareDownload,
		Operation: name,
		Current:   uint64(cursor.Current),
		Total:     uint64(cursor.Total),
	})
	return ResultContinue, nil
}
