package probe

import (
	"io"
)

// readAtMost reads up to max bytes from body and then closes it, so the
// underlying connection is released even when the server still has data
// to send. Slow or never-ending video sources must not hold the probe
// past its byte budget. A stream that ends before the budget returns the
// shorter buffer without error.
func readAtMost(body io.ReadCloser, max int) ([]byte, error) {
	defer body.Close()

	buf := make([]byte, max)
	n, err := io.ReadFull(body, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}
