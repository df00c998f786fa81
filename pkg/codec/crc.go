package codec

// Ogg CRC-32 implementation using polynomial 0x04C11DB7, unreflected,
// zero initial value, zero final XOR.
//
// Note: this is NOT the standard IEEE CRC-32 (polynomial 0xEDB88320).
// The hash/crc32 package cannot be used here; pages checksummed with the
// IEEE variant are rejected by every conforming demuxer.

// crcTable is the pre-computed lookup table for the page checksum.
var crcTable [256]uint32

func init() {
	const poly = uint32(0x04C11DB7)
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// crcUpdate folds data into a running checksum.
func crcUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// Checksum computes the page checksum over the header (with its checksum
// field zeroed) followed by the body.
func Checksum(header, body []byte) uint32 {
	return crcUpdate(crcUpdate(0, header), body)
}
