package probe

import "bytes"

// sniffWindow bounds how far into the buffer the signature scan looks.
// ISO-BMFF files carry the ftyp box right after its 4-byte size field,
// so a match past the first 64 bytes is not a plausible MP4 header.
const sniffWindow = 64

var ftypMarker = []byte("ftyp")

// FindFtyp scans the first 64 bytes of data (or all of it if shorter)
// for the 4-byte ASCII marker "ftyp" and returns the lowest offset at
// which it occurs.
func FindFtyp(data []byte) (offset int, ok bool) {
	limit := len(data)
	if limit > sniffWindow {
		limit = sniffWindow
	}

	for i := 0; i+len(ftypMarker) <= limit; i++ {
		if bytes.Equal(data[i:i+len(ftypMarker)], ftypMarker) {
			return i, true
		}
	}

	return 0, false
}
