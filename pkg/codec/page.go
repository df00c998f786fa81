package codec

import (
	"encoding/binary"
)

// Page header flag bits.
const (
	// FlagContinued indicates the page starts with the continuation of a
	// packet that began on a previous page.
	FlagContinued = 0x01

	// FlagBOS marks the first page of a logical stream.
	FlagBOS = 0x02

	// FlagEOS marks the final page of a logical stream.
	FlagEOS = 0x04
)

// Structural bounds of the page format.
const (
	// HeaderSize is the fixed portion of the page header, before the
	// lacing table.
	HeaderSize = 27

	// MaxSegments is the lacing table capacity of a single page.
	MaxSegments = 255

	// MaxBodySize is the largest body a single page can describe
	// (255 segments of 255 bytes).
	MaxBodySize = MaxSegments * 255

	// MaxPageSize bounds a complete serialized page.
	MaxPageSize = HeaderSize + MaxSegments + MaxBodySize

	// capturePattern identifies a page boundary in the byte stream.
	capturePattern = "OggS"
)

// GranuleUnset is the granule position of a page on which no packet
// completes; its payload is continuation data only.
const GranuleUnset int64 = -1

// Page is the atomic framed unit of the wire format. It carries zero or
// more packet segments, described by the lacing table, plus a checksummed
// header. Pages are immutable value objects once produced.
type Page struct {
	// Version is the stream structure version (always 0).
	Version byte

	// Flags holds the continued/BOS/EOS bits.
	Flags byte

	// GranulePos is the stream-defined position marker for the last
	// packet completed on this page, or GranuleUnset.
	GranulePos int64

	// SerialNumber identifies the logical stream within the multiplex.
	SerialNumber uint32

	// PageSequence is the per-stream monotonic page counter.
	PageSequence uint32

	// Segments is the lacing table. A value of 255 means the segment
	// continues into the next one; any value below 255 terminates a
	// packet.
	Segments []byte

	// Body is the concatenation of all segments.
	Body []byte
}

// Continued reports whether the page begins mid-packet.
func (p *Page) Continued() bool { return p.Flags&FlagContinued != 0 }

// BOS reports whether this is the first page of its logical stream.
func (p *Page) BOS() bool { return p.Flags&FlagBOS != 0 }

// EOS reports whether this is the final page of its logical stream.
func (p *Page) EOS() bool { return p.Flags&FlagEOS != 0 }

// Size returns the total serialized size of the page.
func (p *Page) Size() int { return HeaderSize + len(p.Segments) + len(p.Body) }

// BuildLacing returns the lacing table for a packet of the given length:
// a run of 255-valued entries followed by a terminator below 255. A
// packet whose length is an exact multiple of 255 (including zero)
// requires a trailing zero-length terminator entry.
func BuildLacing(packetLen int) []byte {
	full := packetLen / 255
	lacing := make([]byte, full+1)
	for i := 0; i < full; i++ {
		lacing[i] = 255
	}
	lacing[full] = byte(packetLen % 255)
	return lacing
}

// PacketLengths walks a lacing table and returns the lengths of the
// packets that complete within it. A trailing run of 255-valued entries
// belongs to a packet continued on the next page and is not reported.
func PacketLengths(segments []byte) []int {
	var lengths []int
	current := 0
	for _, seg := range segments {
		current += int(seg)
		if seg < 255 {
			lengths = append(lengths, current)
			current = 0
		}
	}
	return lengths
}

// Encode serializes the page and backpatches the checksum. It returns
// ErrPageTooLarge if the lacing table exceeds 255 entries or the body
// does not match the lacing sum.
func (p *Page) Encode() ([]byte, error) {
	if len(p.Segments) > MaxSegments {
		return nil, ErrPageTooLarge
	}
	bodyLen := 0
	for _, seg := range p.Segments {
		bodyLen += int(seg)
	}
	if bodyLen != len(p.Body) {
		return nil, ErrPageTooLarge
	}

	headerLen := HeaderSize + len(p.Segments)
	data := make([]byte, headerLen+len(p.Body))

	copy(data[0:4], capturePattern)
	data[4] = p.Version
	data[5] = p.Flags
	binary.LittleEndian.PutUint64(data[6:14], uint64(p.GranulePos))
	binary.LittleEndian.PutUint32(data[14:18], p.SerialNumber)
	binary.LittleEndian.PutUint32(data[18:22], p.PageSequence)
	// Bytes 22-25 stay zero until the checksum is known.
	data[26] = byte(len(p.Segments))
	copy(data[27:], p.Segments)
	copy(data[headerLen:], p.Body)

	crc := Checksum(data[:headerLen], data[headerLen:])
	binary.LittleEndian.PutUint32(data[22:26], crc)

	return data, nil
}

// Parse reads one page from the front of data. It returns the page and
// the number of bytes consumed, or one of:
//
//   - ErrNeedMoreData: data is a plausible prefix of a page; feed more.
//   - ErrBadMagic: no capture pattern at offset 0.
//   - ErrBadVersion: unsupported structure version.
//   - ErrChecksum: complete page whose CRC does not match.
//
// The returned page owns copies of its lacing table and body; it keeps
// no reference into data.
func Parse(data []byte) (*Page, int, error) {
	if len(data) < len(capturePattern) {
		if string(data) == capturePattern[:len(data)] {
			return nil, 0, ErrNeedMoreData
		}
		return nil, 0, ErrBadMagic
	}
	if string(data[0:4]) != capturePattern {
		return nil, 0, ErrBadMagic
	}
	if len(data) < HeaderSize {
		return nil, 0, ErrNeedMoreData
	}
	if data[4] != 0 {
		return nil, 0, ErrBadVersion
	}

	numSegments := int(data[26])
	headerLen := HeaderSize + numSegments
	if len(data) < headerLen {
		return nil, 0, ErrNeedMoreData
	}

	bodyLen := 0
	for _, seg := range data[HeaderSize:headerLen] {
		bodyLen += int(seg)
	}
	total := headerLen + bodyLen
	if len(data) < total {
		return nil, 0, ErrNeedMoreData
	}

	// Verify the checksum over the page with its CRC field zeroed.
	stored := binary.LittleEndian.Uint32(data[22:26])
	var zero [4]byte
	crc := crcUpdate(0, data[:22])
	crc = crcUpdate(crc, zero[:])
	crc = crcUpdate(crc, data[26:total])
	if crc != stored {
		return nil, 0, ErrChecksum
	}

	p := &Page{
		Version:      data[4],
		Flags:        data[5],
		GranulePos:   int64(binary.LittleEndian.Uint64(data[6:14])),
		SerialNumber: binary.LittleEndian.Uint32(data[14:18]),
		PageSequence: binary.LittleEndian.Uint32(data[18:22]),
		Segments:     make([]byte, numSegments),
		Body:         make([]byte, bodyLen),
	}
	copy(p.Segments, data[HeaderSize:headerLen])
	copy(p.Body, data[headerLen:total])

	return p, total, nil
}
