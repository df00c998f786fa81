// Package stream implements the per-stream halves of the container
// codec: the encoder that segments packets into pages, and the decoder
// that reassembles packets from pages.
package stream

import (
	"errors"
	"fmt"
)

// Packet is a logical payload unit. Payloads are opaque to this package;
// a packet may span multiple pages or share a page with other packets.
type Packet struct {
	// Data is the opaque payload.
	Data []byte

	// BOS marks the first packet of a logical stream.
	BOS bool

	// EOS marks the final packet of a logical stream.
	EOS bool

	// GranulePos is the stream-defined position marker, or -1 when the
	// packet carries continuation data only.
	GranulePos int64

	// SequenceNumber is assigned by the encoder and observed by the
	// decoder; strictly increasing per stream.
	SequenceNumber int64
}

// lifecycle state for encoders and decoders. The zero value is
// deliberately unusable so that misconstructed instances fail loudly.
type state int

const (
	stateNotOpen state = iota
	stateOpen
	stateClosed
)

// Errors reported for API misuse. Everything else in this package is a
// recoverable signal, not a hard failure.
var (
	// ErrStreamNotOpen means the encoder or decoder was used before
	// construction via its New function.
	ErrStreamNotOpen = errors.New("stream: not open")

	// ErrStreamClosed means the stream already carried end-of-stream.
	ErrStreamClosed = errors.New("stream: closed")

	// ErrWrongSerial means a page was routed to a decoder whose serial
	// number does not match; the page is not consumed.
	ErrWrongSerial = errors.New("stream: wrong serial number")

	// ErrSequenceGap signals a page sequence discontinuity. The page IS
	// consumed and the decoder resynchronizes; callers may log possible
	// data loss and continue.
	ErrSequenceGap = errors.New("stream: page sequence gap")
)

// GapError reports a page sequence discontinuity. It wraps
// ErrSequenceGap and is recoverable: the decoder adopts the observed
// sequence number and keeps going.
type GapError struct {
	Serial   uint32
	Expected uint32
	Observed uint32
}

func (e *GapError) Error() string {
	return fmt.Sprintf("stream %#x: page sequence gap: expected %d, observed %d",
		e.Serial, e.Expected, e.Observed)
}

func (e *GapError) Unwrap() error { return ErrSequenceGap }

// Stats counts the recoverable anomalies a decoder has absorbed.
type Stats struct {
	// SequenceGaps is the number of page sequence discontinuities.
	SequenceGaps int64

	// ContinuityResets counts continued-flag mismatches: a page claimed
	// continuation with no partial packet pending, or vice versa. The
	// partial state is discarded and decoding resumes at the next
	// packet boundary.
	ContinuityResets int64

	// PacketsCompleted is the number of packets fully reassembled.
	PacketsCompleted int64
}
