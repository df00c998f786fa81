// Package scan locates page boundaries in an arbitrary, possibly
// corrupted byte stream. It is the format's resynchronization layer:
// garbage before, between or inside pages is skipped silently and
// reported only through a byte counter, never as an error.
package scan

import (
	"bytes"
	"errors"

	"github.com/oggmux/oggmux/pkg/codec"
)

// capture is the page boundary marker the scanner hunts for.
var capture = []byte("OggS")

// compactAt is the consumed-prefix size past which Feed compacts the
// buffer automatically.
const compactAt = 256 * 1024

// Scanner consumes an unbounded, append-only byte buffer and yields
// structurally valid pages. It is serial-number-agnostic: one scanner
// serves every logical stream multiplexed into the physical stream.
// Not safe for concurrent use.
type Scanner struct {
	buf []byte
	pos int

	// base is the absolute stream offset of buf[0], advanced by
	// compaction.
	base int64

	skipped  int64
	pages    int64
	rejected int64

	// lastPageOffset is the absolute offset of the most recently
	// returned page.
	lastPageOffset int64
}

// NewScanner returns an empty scanner.
func NewScanner() *Scanner {
	return &Scanner{lastPageOffset: -1}
}

// Feed appends bytes to the scan buffer. The bytes are copied; the
// caller keeps ownership of p.
func (s *Scanner) Feed(p []byte) {
	if s.pos >= compactAt {
		s.Compact()
	}
	s.buf = append(s.buf, p...)
}

// NextPage returns the next structurally valid page, or nil when the
// buffered bytes are exhausted before one is found. Corrupted or
// misaligned data is skipped one byte at a time past each false capture
// pattern, so that corruption which happens to reproduce the pattern
// cannot desynchronize the scan.
func (s *Scanner) NextPage() *codec.Page {
	for {
		i := bytes.Index(s.buf[s.pos:], capture)
		if i < 0 {
			// No capture pattern in the remainder. Everything except a
			// possible pattern prefix at the very end is garbage.
			keep := len(capture) - 1
			if remaining := len(s.buf) - s.pos; remaining > keep {
				s.skipped += int64(remaining - keep)
				s.pos = len(s.buf) - keep
			}
			return nil
		}

		// Bytes before the candidate are garbage.
		s.skipped += int64(i)
		s.pos += i

		page, consumed, err := codec.Parse(s.buf[s.pos:])
		switch {
		case err == nil:
			s.lastPageOffset = s.base + int64(s.pos)
			s.pos += consumed
			s.pages++
			return page
		case errors.Is(err, codec.ErrNeedMoreData):
			// A plausible page runs past the buffer; retain everything
			// from the candidate on and wait for the next Feed.
			return nil
		default:
			// Structural or checksum failure at this candidate. Advance
			// a single byte past the pattern occurrence, not past the
			// whole claimed page: the real page start may lie inside it.
			s.rejected++
			s.pos++
			s.skipped++
		}
	}
}

// Compact releases the consumed prefix of the buffer.
func (s *Scanner) Compact() {
	if s.pos == 0 {
		return
	}
	s.base += int64(s.pos)
	s.buf = append(s.buf[:0:0], s.buf[s.pos:]...)
	s.pos = 0
}

// BytesSkipped returns the running count of bytes discarded during
// resynchronization. A nonzero value means the stream carried garbage
// or corruption; it is not an error.
func (s *Scanner) BytesSkipped() int64 { return s.skipped }

// PagesRead returns the number of valid pages returned so far.
func (s *Scanner) PagesRead() int64 { return s.pages }

// Rejected returns the number of capture-pattern candidates discarded
// for structural or checksum failures.
func (s *Scanner) Rejected() int64 { return s.rejected }

// Buffered returns the number of unconsumed bytes currently held.
func (s *Scanner) Buffered() int { return len(s.buf) - s.pos }

// Offset returns the absolute stream offset of the scan cursor.
func (s *Scanner) Offset() int64 { return s.base + int64(s.pos) }

// LastPageOffset returns the absolute stream offset at which the most
// recently returned page began, or -1 before any page has been read.
func (s *Scanner) LastPageOffset() int64 { return s.lastPageOffset }
