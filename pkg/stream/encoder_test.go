package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/oggmux/oggmux/pkg/codec"
)

// drainPages runs the opportunistic PageOut loop followed by a full
// flush, mirroring how callers page out a finished stream.
func drainPages(e *Encoder) []*codec.Page {
	var pages []*codec.Page
	for p := e.PageOut(); p != nil; p = e.PageOut() {
		pages = append(pages, p)
	}
	for p := e.Flush(); p != nil; p = e.Flush() {
		pages = append(pages, p)
	}
	return pages
}

func TestEncoder_SinglePacketSinglePage(t *testing.T) {
	enc := NewEncoder(EncoderConfig{Serial: 0xABCD})

	seq, err := enc.PacketIn(Packet{Data: []byte("hello"), GranulePos: 960, EOS: true})
	if err != nil {
		t.Fatalf("PacketIn failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("first packet sequence = %d, want 0", seq)
	}

	pages := drainPages(enc)
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}

	page := pages[0]
	if !page.BOS() || !page.EOS() || page.Continued() {
		t.Errorf("flags = %#x, want BOS|EOS", page.Flags)
	}
	if page.GranulePos != 960 {
		t.Errorf("granule = %d, want 960", page.GranulePos)
	}
	if page.SerialNumber != 0xABCD || page.PageSequence != 0 {
		t.Errorf("serial/sequence = %#x/%d", page.SerialNumber, page.PageSequence)
	}
	if !bytes.Equal(page.Segments, []byte{5}) {
		t.Errorf("lacing = %v, want [5]", page.Segments)
	}
	if !bytes.Equal(page.Body, []byte("hello")) {
		t.Errorf("body = %q", page.Body)
	}
	if !enc.Closed() {
		t.Error("encoder still open after EOS page")
	}
}

func TestEncoder_PageOutWaitsForFill(t *testing.T) {
	enc := NewEncoder(EncoderConfig{Serial: 1})

	if _, err := enc.PacketIn(Packet{Data: []byte("tiny"), GranulePos: 1}); err != nil {
		t.Fatalf("PacketIn failed: %v", err)
	}
	if page := enc.PageOut(); page != nil {
		t.Fatalf("PageOut emitted a page below the fill threshold")
	}
	if page := enc.Flush(); page == nil {
		t.Fatal("Flush emitted nothing despite pending data")
	}
	if page := enc.Flush(); page != nil {
		t.Fatal("Flush emitted a second page with nothing pending")
	}
}

func TestEncoder_FillBytesThreshold(t *testing.T) {
	enc := NewEncoder(EncoderConfig{Serial: 1, FillBytes: 1})

	if _, err := enc.PacketIn(Packet{Data: []byte("x"), GranulePos: 1}); err != nil {
		t.Fatalf("PacketIn failed: %v", err)
	}
	if page := enc.PageOut(); page == nil {
		t.Fatal("PageOut refused to emit above configured fill threshold")
	}
}

func TestEncoder_ExactMultipleGetsZeroTerminator(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		enc := NewEncoder(EncoderConfig{Serial: 2})
		if _, err := enc.PacketIn(Packet{Data: bytes.Repeat([]byte{0x11}, 255 * k), GranulePos: 1}); err != nil {
			t.Fatalf("PacketIn failed: %v", err)
		}
		pages := drainPages(enc)
		if len(pages) != 1 {
			t.Fatalf("k=%d: got %d pages, want 1", k, len(pages))
		}
		lacing := pages[0].Segments
		if len(lacing) != k+1 {
			t.Fatalf("k=%d: lacing = %v", k, lacing)
		}
		if lacing[len(lacing)-1] != 0 {
			t.Errorf("k=%d: missing zero terminator: %v", k, lacing)
		}
	}

	// One byte past the multiple needs no zero terminator.
	enc := NewEncoder(EncoderConfig{Serial: 2})
	if _, err := enc.PacketIn(Packet{Data: bytes.Repeat([]byte{0x11}, 256), GranulePos: 1}); err != nil {
		t.Fatalf("PacketIn failed: %v", err)
	}
	pages := drainPages(enc)
	if got := pages[0].Segments; !bytes.Equal(got, []byte{255, 1}) {
		t.Errorf("lacing = %v, want [255 1]", got)
	}
}

func TestEncoder_LargePacketSpansPages(t *testing.T) {
	// Larger than 3 full page bodies, so it must span at least 4 pages.
	payload := bytes.Repeat([]byte{0x5A}, 3*codec.MaxBodySize+5000)

	enc := NewEncoder(EncoderConfig{Serial: 3})
	if _, err := enc.PacketIn(Packet{Data: payload, GranulePos: 7, EOS: true}); err != nil {
		t.Fatalf("PacketIn failed: %v", err)
	}
	pages := drainPages(enc)
	if len(pages) < 4 {
		t.Fatalf("got %d pages, want at least 4", len(pages))
	}

	for i, page := range pages {
		if (i == 0) != page.BOS() {
			t.Errorf("page %d BOS = %v", i, page.BOS())
		}
		if (i > 0) != page.Continued() {
			t.Errorf("page %d continued = %v", i, page.Continued())
		}
		if (i == len(pages)-1) != page.EOS() {
			t.Errorf("page %d EOS = %v", i, page.EOS())
		}
		if page.PageSequence != uint32(i) {
			t.Errorf("page %d sequence = %d", i, page.PageSequence)
		}
		// Only the final page completes the packet.
		wantGranule := codec.GranuleUnset
		if i == len(pages)-1 {
			wantGranule = 7
		}
		if page.GranulePos != wantGranule {
			t.Errorf("page %d granule = %d, want %d", i, page.GranulePos, wantGranule)
		}
	}

	var reassembled []byte
	for _, page := range pages {
		reassembled = append(reassembled, page.Body...)
	}
	if !bytes.Equal(reassembled, payload) {
		t.Error("concatenated page bodies differ from the packet payload")
	}
}

func TestEncoder_Deterministic(t *testing.T) {
	build := func() []byte {
		enc := NewEncoder(EncoderConfig{Serial: 77})
		payloads := [][]byte{
			[]byte("alpha"),
			bytes.Repeat([]byte{0xBE}, 600),
			nil,
			bytes.Repeat([]byte{0xEF}, 255),
		}
		for i, p := range payloads {
			pkt := Packet{Data: p, GranulePos: int64(i + 1), EOS: i == len(payloads)-1}
			if _, err := enc.PacketIn(pkt); err != nil {
				t.Fatalf("PacketIn failed: %v", err)
			}
		}
		var out []byte
		for _, page := range drainPages(enc) {
			data, err := page.Encode()
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			out = append(out, data...)
		}
		return out
	}

	first := build()
	second := build()
	if !bytes.Equal(first, second) {
		t.Fatal("same packet sequence produced different bytes")
	}
}

func TestEncoder_CloseEmitsEmptyEOSPage(t *testing.T) {
	enc := NewEncoder(EncoderConfig{Serial: 5})
	if _, err := enc.PacketIn(Packet{Data: []byte("only"), GranulePos: 11}); err != nil {
		t.Fatalf("PacketIn failed: %v", err)
	}
	if page := enc.Flush(); page == nil || page.EOS() {
		t.Fatal("expected a non-EOS data page")
	}

	enc.Close()
	page := enc.Flush()
	if page == nil {
		t.Fatal("Close + Flush emitted no terminal page")
	}
	if !page.EOS() || len(page.Segments) != 0 {
		t.Errorf("terminal page: flags=%#x segments=%d", page.Flags, len(page.Segments))
	}
	if page.GranulePos != 11 {
		t.Errorf("terminal page granule = %d, want 11", page.GranulePos)
	}
}

func TestEncoder_Misuse(t *testing.T) {
	t.Run("zero value is not open", func(t *testing.T) {
		var enc Encoder
		if _, err := enc.PacketIn(Packet{Data: []byte("x")}); !errors.Is(err, ErrStreamNotOpen) {
			t.Fatalf("got %v, want ErrStreamNotOpen", err)
		}
	})

	t.Run("packet after EOS rejected", func(t *testing.T) {
		enc := NewEncoder(EncoderConfig{Serial: 1})
		if _, err := enc.PacketIn(Packet{Data: []byte("last"), EOS: true, GranulePos: 1}); err != nil {
			t.Fatalf("PacketIn failed: %v", err)
		}
		if _, err := enc.PacketIn(Packet{Data: []byte("late")}); !errors.Is(err, ErrStreamClosed) {
			t.Fatalf("got %v, want ErrStreamClosed", err)
		}
	})
}

func TestEncoder_ResetForChaining(t *testing.T) {
	enc := NewEncoder(EncoderConfig{Serial: 10})
	if _, err := enc.PacketIn(Packet{Data: []byte("end"), EOS: true, GranulePos: 1}); err != nil {
		t.Fatalf("PacketIn failed: %v", err)
	}
	drainPages(enc)
	if !enc.Closed() {
		t.Fatal("encoder not closed after EOS")
	}

	enc.Reset(11)
	if enc.Closed() {
		t.Fatal("encoder closed after Reset")
	}
	if _, err := enc.PacketIn(Packet{Data: []byte("new chain"), GranulePos: 1, EOS: true}); err != nil {
		t.Fatalf("PacketIn after Reset failed: %v", err)
	}
	pages := drainPages(enc)
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].SerialNumber != 11 || pages[0].PageSequence != 0 || !pages[0].BOS() {
		t.Errorf("chained page: serial=%d seq=%d flags=%#x",
			pages[0].SerialNumber, pages[0].PageSequence, pages[0].Flags)
	}
}
