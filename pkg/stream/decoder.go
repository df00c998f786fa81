package stream

import (
	"github.com/oggmux/oggmux/pkg/codec"
)

// Decoder reassembles packets from the pages of one logical stream.
// Pages must be routed to it by serial number; the decoder validates
// sequencing and tolerates loss by resynchronizing at packet boundaries.
// Not safe for concurrent use.
type Decoder struct {
	serial uint32
	st     state

	expected     uint32
	haveExpected bool

	partial   []byte
	midPacket bool

	queue     []*Packet
	packetSeq int64
	eos       bool

	stats Stats
}

// NewDecoder returns an open decoder for the given serial number.
func NewDecoder(serial uint32) *Decoder {
	return &Decoder{serial: serial, st: stateOpen}
}

// Serial returns the stream serial number this decoder accepts.
func (d *Decoder) Serial() uint32 { return d.serial }

// EOS reports whether the end-of-stream page has been consumed.
func (d *Decoder) EOS() bool { return d.eos }

// Stats returns counters for the recoverable anomalies absorbed so far.
func (d *Decoder) Stats() Stats { return d.stats }

// PageIn consumes one page.
//
// Hard failures (page not consumed): ErrStreamNotOpen, ErrStreamClosed,
// ErrWrongSerial.
//
// A page sequence discontinuity returns a *GapError wrapping
// ErrSequenceGap, but the page IS consumed and the decoder adopts the
// observed sequence number; callers may log the possible loss and keep
// feeding pages. Continued-flag mismatches are absorbed silently: the
// partial packet state is discarded, the reset counted in Stats, and
// decoding resumes at the next packet boundary.
func (d *Decoder) PageIn(p *codec.Page) error {
	switch d.st {
	case stateNotOpen:
		return ErrStreamNotOpen
	case stateClosed:
		return ErrStreamClosed
	}
	if p.SerialNumber != d.serial {
		return ErrWrongSerial
	}

	var gap *GapError
	if d.haveExpected && p.PageSequence != d.expected {
		gap = &GapError{Serial: d.serial, Expected: d.expected, Observed: p.PageSequence}
		d.stats.SequenceGaps++
	}
	d.expected = p.PageSequence + 1
	d.haveExpected = true

	segments := p.Segments
	offset := 0

	switch {
	case p.Continued() && !d.midPacket:
		// The page opens with the tail of a packet whose start was
		// never seen. Skip through the first terminator.
		d.stats.ContinuityResets++
		i := 0
		for ; i < len(segments); i++ {
			offset += int(segments[i])
			if segments[i] < 255 {
				i++
				break
			}
		}
		segments = segments[i:]
	case p.Continued() && d.midPacket && gap != nil:
		// Pages vanished mid-packet; both the buffered prefix and the
		// continuation tail on this page are unusable.
		d.dropPartial()
		i := 0
		for ; i < len(segments); i++ {
			offset += int(segments[i])
			if segments[i] < 255 {
				i++
				break
			}
		}
		segments = segments[i:]
	case !p.Continued() && d.midPacket:
		// The previous page promised a continuation that never came.
		d.dropPartial()
	}

	var lastCompleted *Packet
	for _, seg := range segments {
		d.partial = append(d.partial, p.Body[offset:offset+int(seg)]...)
		offset += int(seg)
		if seg == 255 {
			d.midPacket = true
			continue
		}

		pkt := &Packet{
			Data:           d.partial,
			GranulePos:     codec.GranuleUnset,
			SequenceNumber: d.packetSeq,
			BOS:            p.BOS() && d.packetSeq == 0,
		}
		d.partial = nil
		d.midPacket = false
		d.packetSeq++
		d.stats.PacketsCompleted++
		d.queue = append(d.queue, pkt)
		lastCompleted = pkt
	}

	// The page granule belongs to the last packet completed on it.
	if lastCompleted != nil {
		lastCompleted.GranulePos = p.GranulePos
	}

	if p.EOS() {
		if lastCompleted != nil {
			lastCompleted.EOS = true
		}
		if d.midPacket {
			// Truncated final packet; nothing can complete it.
			d.dropPartial()
		}
		d.eos = true
		d.st = stateClosed
	}

	if gap != nil {
		return gap
	}
	return nil
}

// PacketOut pops the next completed packet in order, or nil when none
// is available yet.
func (d *Decoder) PacketOut() *Packet {
	if len(d.queue) == 0 {
		return nil
	}
	pkt := d.queue[0]
	d.queue = d.queue[1:]
	return pkt
}

// Reset rewinds the decoder for stream chaining: buffered state is
// dropped, counters restart and the decoder reopens under the given
// serial number. Accumulated Stats are preserved.
func (d *Decoder) Reset(serial uint32) {
	d.serial = serial
	d.st = stateOpen
	d.expected = 0
	d.haveExpected = false
	d.partial = nil
	d.midPacket = false
	d.queue = nil
	d.packetSeq = 0
	d.eos = false
}

func (d *Decoder) dropPartial() {
	d.partial = nil
	d.midPacket = false
	d.stats.ContinuityResets++
}
