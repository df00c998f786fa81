package mux

import (
	"errors"

	"github.com/oggmux/oggmux/pkg/scan"
	"github.com/oggmux/oggmux/pkg/stream"
)

// GapEvent records a page sequence discontinuity observed on one
// logical stream. Gaps signal possible data loss but never stop the
// demux loop.
type GapEvent struct {
	Serial   uint32
	Expected uint32
	Observed uint32
}

// Demuxer drives one shared scanner over a physical byte stream and
// routes each recovered page, by serial number, to a per-stream
// decoder. Decoders are created on demand as new serials appear.
// Not safe for concurrent use.
type Demuxer struct {
	sc      *scan.Scanner
	streams map[uint32]*stream.Decoder
	order   []uint32
	gaps    []GapEvent
}

// NewDemuxer returns an empty demuxer.
func NewDemuxer() *Demuxer {
	return &Demuxer{
		sc:      scan.NewScanner(),
		streams: make(map[uint32]*stream.Decoder),
	}
}

// Feed appends raw bytes from the physical stream.
func (d *Demuxer) Feed(p []byte) {
	d.sc.Feed(p)
}

// NextPacket returns the next completed packet from any stream, along
// with its serial number. It pulls pages from the scanner as needed and
// returns ok=false once nothing more can be produced from the bytes fed
// so far.
func (d *Demuxer) NextPacket() (serial uint32, pkt *stream.Packet, ok bool) {
	for {
		// Drain already-completed packets first, in stream discovery
		// order, so interleaved streams come out fairly.
		for _, s := range d.order {
			if pkt := d.streams[s].PacketOut(); pkt != nil {
				return s, pkt, true
			}
		}

		page := d.sc.NextPage()
		if page == nil {
			return 0, nil, false
		}

		dec, exists := d.streams[page.SerialNumber]
		if !exists {
			dec = stream.NewDecoder(page.SerialNumber)
			d.streams[page.SerialNumber] = dec
			d.order = append(d.order, page.SerialNumber)
		}

		err := dec.PageIn(page)
		switch {
		case err == nil:
		case errors.Is(err, stream.ErrSequenceGap):
			var gap *stream.GapError
			if errors.As(err, &gap) {
				d.gaps = append(d.gaps, GapEvent{
					Serial:   gap.Serial,
					Expected: gap.Expected,
					Observed: gap.Observed,
				})
			}
		case errors.Is(err, stream.ErrStreamClosed):
			// A chained stream reuses a serial after EOS; reopen the
			// decoder in place.
			dec.Reset(page.SerialNumber)
			var gap *stream.GapError
			switch err := dec.PageIn(page); {
			case err == nil:
			case errors.As(err, &gap):
				d.gaps = append(d.gaps, GapEvent{
					Serial:   gap.Serial,
					Expected: gap.Expected,
					Observed: gap.Observed,
				})
			default:
				continue
			}
		default:
			continue
		}
	}
}

// Serials returns the serial numbers seen so far, in discovery order.
func (d *Demuxer) Serials() []uint32 {
	out := make([]uint32, len(d.order))
	copy(out, d.order)
	return out
}

// Stream returns the decoder for a serial number, or nil if that serial
// has not been seen.
func (d *Demuxer) Stream(serial uint32) *stream.Decoder {
	return d.streams[serial]
}

// Gaps returns every sequence discontinuity observed so far.
func (d *Demuxer) Gaps() []GapEvent {
	out := make([]GapEvent, len(d.gaps))
	copy(out, d.gaps)
	return out
}

// BytesSkipped reports bytes the scanner discarded during resync.
func (d *Demuxer) BytesSkipped() int64 { return d.sc.BytesSkipped() }

// PagesRead reports the number of valid pages recovered so far.
func (d *Demuxer) PagesRead() int64 { return d.sc.PagesRead() }

// Scanner exposes the shared scanner for offset queries.
func (d *Demuxer) Scanner() *scan.Scanner { return d.sc }
