package stream

import (
	"github.com/oggmux/oggmux/pkg/codec"
)

// DefaultFillBytes is the pending-body threshold at which PageOut emits
// a page without being forced. The threshold is a latency/overhead
// tuning knob, not part of the wire contract: Flush always drains
// whatever is pending.
const DefaultFillBytes = 4096

// EncoderConfig configures a stream Encoder.
type EncoderConfig struct {
	// Serial identifies the logical stream within the multiplex.
	Serial uint32

	// FillBytes overrides DefaultFillBytes when positive.
	FillBytes int
}

// pendingSegment is one lacing entry waiting to be placed on a page.
// granule and eos apply only to terminator entries (size < 255).
type pendingSegment struct {
	size    byte
	granule int64
	eos     bool
}

// Encoder accepts packets in order and emits pages. It owns the
// packet-to-lacing segmentation and the per-stream page/packet counters.
// Not safe for concurrent use.
type Encoder struct {
	serial    uint32
	fillBytes int
	st        state

	pageSeq   uint32
	packetSeq int64

	segments []pendingSegment
	body     []byte

	continued   bool // next page starts mid-packet
	eosQueued   bool
	lastGranule int64
}

// NewEncoder returns an open encoder for one logical stream. Packet and
// page sequence numbers start at zero; the first emitted page carries
// the beginning-of-stream flag.
func NewEncoder(cfg EncoderConfig) *Encoder {
	fill := cfg.FillBytes
	if fill <= 0 {
		fill = DefaultFillBytes
	}
	return &Encoder{
		serial:      cfg.Serial,
		fillBytes:   fill,
		st:          stateOpen,
		lastGranule: codec.GranuleUnset,
	}
}

// Serial returns the stream serial number.
func (e *Encoder) Serial() uint32 { return e.serial }

// PageCount returns the number of pages emitted so far.
func (e *Encoder) PageCount() uint32 { return e.pageSeq }

// PacketCount returns the number of packets accepted so far.
func (e *Encoder) PacketCount() int64 { return e.packetSeq }

// Closed reports whether the end-of-stream page has been emitted.
func (e *Encoder) Closed() bool { return e.st == stateClosed }

// PacketIn buffers a packet for paging and returns its assigned
// sequence number. The payload is segmented immediately into lacing
// entries of at most 255 bytes, with a trailing zero-length entry when
// the length is an exact multiple of 255. The payload is copied; the
// caller keeps ownership of pkt.Data.
//
// Returns ErrStreamNotOpen on a zero-value encoder and ErrStreamClosed
// once an end-of-stream packet has been accepted.
func (e *Encoder) PacketIn(pkt Packet) (int64, error) {
	switch e.st {
	case stateNotOpen:
		return 0, ErrStreamNotOpen
	case stateClosed:
		return 0, ErrStreamClosed
	}
	if e.eosQueued {
		return 0, ErrStreamClosed
	}

	seq := e.packetSeq
	e.packetSeq++

	e.body = append(e.body, pkt.Data...)

	lacing := codec.BuildLacing(len(pkt.Data))
	for _, v := range lacing[:len(lacing)-1] {
		e.segments = append(e.segments, pendingSegment{size: v, granule: codec.GranuleUnset})
	}
	e.segments = append(e.segments, pendingSegment{
		size:    lacing[len(lacing)-1],
		granule: pkt.GranulePos,
		eos:     pkt.EOS,
	})

	if pkt.EOS {
		e.eosQueued = true
	}
	return seq, nil
}

// Close queues end-of-stream without a final packet. The next Flush
// emits a terminal page (possibly with zero segments) carrying the EOS
// flag. No further packets are accepted.
func (e *Encoder) Close() {
	if e.st == stateOpen {
		e.eosQueued = true
	}
}

// PageOut emits a page if enough pending data has accumulated to fill
// one near-maximally: a full lacing table, or at least FillBytes of
// body. Returns nil when nothing is ready yet.
func (e *Encoder) PageOut() *codec.Page { return e.pageOut(false) }

// Flush emits whatever is pending regardless of fill, including a
// zero-segment page when end-of-stream must still be signaled. Returns
// nil once nothing remains.
func (e *Encoder) Flush() *codec.Page { return e.pageOut(true) }

func (e *Encoder) pageOut(force bool) *codec.Page {
	if e.st != stateOpen {
		return nil
	}

	n := len(e.segments)
	if n == 0 {
		if force && e.eosQueued {
			return e.emit(nil, nil, e.lastGranule, true)
		}
		return nil
	}
	if !force && n < codec.MaxSegments && len(e.body) < e.fillBytes {
		return nil
	}

	k := n
	if k > codec.MaxSegments {
		k = codec.MaxSegments
	}

	lacing := make([]byte, k)
	bodyLen := 0
	granule := codec.GranuleUnset
	for i := 0; i < k; i++ {
		seg := e.segments[i]
		lacing[i] = seg.size
		bodyLen += int(seg.size)
		if seg.size < 255 {
			granule = seg.granule
			e.lastGranule = seg.granule
		}
	}

	body := make([]byte, bodyLen)
	copy(body, e.body[:bodyLen])

	eos := e.eosQueued && k == n

	// Trim consumed state without aliasing the emitted page.
	e.segments = append(e.segments[:0:0], e.segments[k:]...)
	e.body = append(e.body[:0:0], e.body[bodyLen:]...)

	return e.emit(lacing, body, granule, eos)
}

func (e *Encoder) emit(lacing, body []byte, granule int64, eos bool) *codec.Page {
	var flags byte
	if e.continued {
		flags |= codec.FlagContinued
	}
	if e.pageSeq == 0 {
		flags |= codec.FlagBOS
	}
	if eos {
		flags |= codec.FlagEOS
	}

	page := &codec.Page{
		Flags:        flags,
		GranulePos:   granule,
		SerialNumber: e.serial,
		PageSequence: e.pageSeq,
		Segments:     lacing,
		Body:         body,
	}

	e.pageSeq++
	e.continued = len(lacing) > 0 && lacing[len(lacing)-1] == 255
	if eos {
		e.st = stateClosed
	}
	return page
}

// Reset rewinds the encoder for stream chaining: pending data is
// dropped, counters restart at zero and the encoder reopens under the
// given serial number.
func (e *Encoder) Reset(serial uint32) {
	e.serial = serial
	e.st = stateOpen
	e.pageSeq = 0
	e.packetSeq = 0
	e.segments = nil
	e.body = nil
	e.continued = false
	e.eosQueued = false
	e.lastGranule = codec.GranuleUnset
}
