package mux

import (
	"encoding/binary"

	"github.com/segmentio/ksuid"
)

// SerialSource produces serial numbers for new logical streams. It is
// injectable so tests and deterministic pipelines can supply fixed
// values instead of random ones.
type SerialSource interface {
	Next() uint32
}

// ksuidSerialSource derives serials from KSUID payload entropy.
type ksuidSerialSource struct{}

func (ksuidSerialSource) Next() uint32 {
	id := ksuid.New()
	return binary.BigEndian.Uint32(id.Payload()[:4])
}

// NewSerialSource returns the default random serial source.
func NewSerialSource() SerialSource {
	return ksuidSerialSource{}
}

// FixedSerialSource hands out serials from a predefined list, cycling
// when exhausted. Intended for tests and reproducible muxes.
type FixedSerialSource struct {
	Serials []uint32
	next    int
}

func (f *FixedSerialSource) Next() uint32 {
	if len(f.Serials) == 0 {
		return 0
	}
	s := f.Serials[f.next%len(f.Serials)]
	f.next++
	return s
}
