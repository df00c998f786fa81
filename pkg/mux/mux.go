// Package mux multiplexes logical streams into one physical byte stream
// and demultiplexes the reverse direction, routing pages by serial
// number across per-stream encoders and decoders.
package mux

import (
	"errors"
	"fmt"
	"io"

	"github.com/oggmux/oggmux/pkg/stream"
)

var (
	// ErrDuplicateSerial means a stream with that serial number already
	// exists in the multiplex.
	ErrDuplicateSerial = errors.New("mux: duplicate serial number")

	// ErrUnknownSerial means no stream with that serial number exists.
	ErrUnknownSerial = errors.New("mux: unknown serial number")
)

// MuxerConfig configures a Muxer.
type MuxerConfig struct {
	// Serials overrides the default random serial source.
	Serials SerialSource

	// FillBytes is passed through to each stream encoder.
	FillBytes int
}

// Muxer interleaves pages from one or more logical streams into a
// single writer. Pages are written in the order they become ready;
// callers control interleave granularity through packet submission
// order. Not safe for concurrent use.
type Muxer struct {
	w       io.Writer
	cfg     MuxerConfig
	streams map[uint32]*stream.Encoder
	order   []uint32
}

// NewMuxer returns a muxer writing the physical stream to w.
func NewMuxer(w io.Writer, cfg MuxerConfig) *Muxer {
	if cfg.Serials == nil {
		cfg.Serials = NewSerialSource()
	}
	return &Muxer{w: w, cfg: cfg, streams: make(map[uint32]*stream.Encoder)}
}

// AddStream opens a new logical stream with a generated serial number
// and returns it.
func (m *Muxer) AddStream() (uint32, error) {
	for {
		serial := m.cfg.Serials.Next()
		if _, exists := m.streams[serial]; exists {
			continue
		}
		return serial, m.AddStreamWithSerial(serial)
	}
}

// AddStreamWithSerial opens a new logical stream under an explicit
// serial number. Serial numbers must be unique within the multiplex.
func (m *Muxer) AddStreamWithSerial(serial uint32) error {
	if _, exists := m.streams[serial]; exists {
		return fmt.Errorf("%w: %#x", ErrDuplicateSerial, serial)
	}
	m.streams[serial] = stream.NewEncoder(stream.EncoderConfig{
		Serial:    serial,
		FillBytes: m.cfg.FillBytes,
	})
	m.order = append(m.order, serial)
	return nil
}

// Serials returns the serial numbers of all streams in creation order.
func (m *Muxer) Serials() []uint32 {
	out := make([]uint32, len(m.order))
	copy(out, m.order)
	return out
}

// WritePacket submits a packet to the stream identified by serial and
// writes any pages that become ready.
func (m *Muxer) WritePacket(serial uint32, pkt stream.Packet) error {
	enc, ok := m.streams[serial]
	if !ok {
		return fmt.Errorf("%w: %#x", ErrUnknownSerial, serial)
	}
	if _, err := enc.PacketIn(pkt); err != nil {
		return err
	}
	return m.drain(enc, false)
}

// FlushStream forces out all pending pages of one stream regardless of
// fill, for low-latency framing or before interleaving a burst from
// another stream.
func (m *Muxer) FlushStream(serial uint32) error {
	enc, ok := m.streams[serial]
	if !ok {
		return fmt.Errorf("%w: %#x", ErrUnknownSerial, serial)
	}
	return m.drain(enc, true)
}

// Close ends every stream that has not yet carried end-of-stream and
// flushes all remaining pages.
func (m *Muxer) Close() error {
	for _, serial := range m.order {
		enc := m.streams[serial]
		if !enc.Closed() {
			enc.Close()
		}
		if err := m.drain(enc, true); err != nil {
			return err
		}
	}
	return nil
}

func (m *Muxer) drain(enc *stream.Encoder, force bool) error {
	for {
		var page = enc.PageOut()
		if page == nil && force {
			page = enc.Flush()
		}
		if page == nil {
			return nil
		}
		data, err := page.Encode()
		if err != nil {
			return err
		}
		if _, err := m.w.Write(data); err != nil {
			return err
		}
	}
}
