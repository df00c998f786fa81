package codec

import "errors"

var (
	// ErrNeedMoreData means the buffer ends before the page does. The
	// bytes seen so far are a plausible page prefix; parse again once
	// more data arrives.
	ErrNeedMoreData = errors.New("codec: need more data")

	// ErrBadMagic means the capture pattern is absent at the offset.
	ErrBadMagic = errors.New("codec: capture pattern not found")

	// ErrBadVersion means the capture pattern matched but the structure
	// version byte is not 0.
	ErrBadVersion = errors.New("codec: unsupported stream structure version")

	// ErrChecksum means the page is structurally complete but its CRC
	// does not match the header field.
	ErrChecksum = errors.New("codec: page checksum mismatch")

	// ErrPageTooLarge is returned by Encode when the page exceeds the
	// format's structural bounds (255 segments, 255 bytes each).
	ErrPageTooLarge = errors.New("codec: page exceeds format bounds")
)
