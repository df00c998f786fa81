package codec

import "testing"

// bitwiseCRC computes the checksum one bit at a time, without the lookup
// table. Used to verify the table-driven implementation.
func bitwiseCRC(data []byte) uint32 {
	const poly = uint32(0x04C11DB7)
	var crc uint32
	for _, b := range data {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func TestChecksum_MatchesBitwise(t *testing.T) {
	inputs := [][]byte{
		{},
		{0x00},
		{0xFF},
		[]byte("OggS"),
		[]byte("the quick brown fox jumps over the lazy dog"),
		{0x4F, 0x67, 0x67, 0x53, 0x00, 0x02, 0x00, 0x00},
	}

	for _, in := range inputs {
		got := Checksum(in, nil)
		want := bitwiseCRC(in)
		if got != want {
			t.Errorf("Checksum(%q) = %#x, want %#x", in, got, want)
		}
	}
}

func TestChecksum_SplitEquivalence(t *testing.T) {
	data := []byte("header-bytes-here-then-body-bytes-follow")

	whole := Checksum(data, nil)
	for split := 0; split <= len(data); split++ {
		got := Checksum(data[:split], data[split:])
		if got != whole {
			t.Fatalf("split at %d: got %#x, want %#x", split, got, whole)
		}
	}
}

func TestChecksum_ZeroInit(t *testing.T) {
	// A run of zero bytes folded into a zero CRC stays zero; the
	// polynomial only engages once a nonzero bit enters the register.
	if got := Checksum(make([]byte, 64), nil); got != 0 {
		t.Errorf("Checksum(zeros) = %#x, want 0", got)
	}
}

func TestChecksum_NotIEEE(t *testing.T) {
	// Guard against someone "simplifying" this to hash/crc32. The IEEE
	// checksum of "OggS" is 0x5AE31D96; ours must differ.
	if got := Checksum([]byte("OggS"), nil); got == 0x5AE31D96 {
		t.Fatalf("checksum matches IEEE CRC-32; wrong polynomial in use")
	}
}
