// Package codec implements the page layer of the container bitstream
// format: serialization and parsing of individual pages, the lacing
// table rules, and the format's CRC-32 checksum.
//
// # Page Format
//
// A page is serialized as a fixed 27-byte header, a variable lacing
// table, and the body:
//
//	[capture "OggS"(4)][version(1)][flags(1)][granule(8)]
//	[serial(4)][page sequence(4)][crc(4)][segment count(1)]
//	[lacing table(0-255)][body]
//
// All multi-byte fields are little-endian. The flags byte encodes
// continued (0x01), beginning-of-stream (0x02) and end-of-stream (0x04).
//
// # Lacing
//
// The body is split into segments of at most 255 bytes each, described
// by the lacing table. A lacing value of exactly 255 means the segment
// is full and the packet continues in the next segment (possibly on the
// next page); any value below 255, including 0, terminates the current
// packet. A packet whose length is an exact multiple of 255 therefore
// needs a trailing zero-length terminator segment. The largest body a
// single page can carry is 255*255 bytes; larger packets span pages.
//
// # Checksum
//
// The checksum is a table-driven CRC-32 with polynomial 0x04C11DB7,
// unreflected, computed over the entire page with the checksum field
// zeroed. It is not the IEEE CRC-32 from hash/crc32; the table constant
// is a wire-compatibility requirement.
//
// # Error Handling
//
// Parse distinguishes "incomplete" (ErrNeedMoreData) from "invalid"
// (ErrBadMagic, ErrBadVersion, ErrChecksum) so that a scanner fed an
// untrusted stream can decide between waiting for more bytes and
// resynchronizing. Parse never panics on malformed input.
//
// # Ownership
//
// Parse copies the lacing table and body out of the input buffer; the
// returned Page holds no reference to caller memory. Encode likewise
// returns a freshly allocated buffer.
package codec
