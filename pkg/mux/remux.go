package mux

import (
	"bytes"
	"errors"

	"github.com/oggmux/oggmux/pkg/codec"
)

// RemuxStats summarizes one repagination pass.
type RemuxStats struct {
	PagesRead    int64
	Packets      int64
	BytesSkipped int64
	Gaps         int64
}

// ErrNoPages means the input contained no recoverable pages at all.
var ErrNoPages = errors.New("mux: no recoverable pages in input")

// Remux decodes every recoverable packet from a raw physical stream
// and writes it back out on fresh pages with clean sequence numbering.
// Garbage between pages, torn packets, and corrupted pages are
// discarded; serial numbers and packet granule positions survive.
//
// Packets produced by a single demux pass lose per-packet granule
// positions whenever several packets shared a page, so Remux flushes a
// page after each packet that carries a granule position to keep them
// addressable in the output.
func Remux(data []byte) ([]byte, RemuxStats, error) {
	var stats RemuxStats

	d := NewDemuxer()
	d.Feed(data)

	var out bytes.Buffer
	m := NewMuxer(&out, MuxerConfig{})

	for {
		serial, pkt, ok := d.NextPacket()
		if !ok {
			break
		}
		enc, known := m.streams[serial]
		if !known {
			if err := m.AddStreamWithSerial(serial); err != nil {
				return nil, stats, err
			}
		} else if enc.Closed() {
			// Chained stream: the serial came back after end-of-stream,
			// so reopen the encoder the way the demux side reopens its
			// decoder.
			enc.Reset(serial)
		}
		if err := m.WritePacket(serial, *pkt); err != nil {
			return nil, stats, err
		}
		if pkt.GranulePos != codec.GranuleUnset || pkt.EOS {
			if err := m.FlushStream(serial); err != nil {
				return nil, stats, err
			}
		}
		stats.Packets++
	}

	// A stream whose end-of-stream page was lost still needs closing so
	// readers of the output see a proper termination.
	if err := m.Close(); err != nil {
		return nil, stats, err
	}

	stats.PagesRead = d.PagesRead()
	stats.BytesSkipped = d.BytesSkipped()
	stats.Gaps = int64(len(d.Gaps()))

	if stats.PagesRead == 0 {
		return nil, stats, ErrNoPages
	}
	return out.Bytes(), stats, nil
}
