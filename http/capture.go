package http

import "bytes"

// maxCaptureGrow bounds the buffer pre-allocation made from a size the store
// reports; anything larger grows as data arrives.
const maxCaptureGrow = 64 << 10

// captureWriter records a copy of a response body as it is streamed, up to
// limit bytes. Past the limit it drops what it holds and stops recording.
// Writes never fail so the client copy is never interrupted.
type captureWriter struct {
	buf        bytes.Buffer
	limit      int64
	overflowed bool
}

func newCaptureWriter(limit int64) *captureWriter {
	c := &captureWriter{limit: limit}
	if limit > 0 {
		c.buf.Grow(int(min(limit, maxCaptureGrow)))
	}
	return c
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.overflowed {
		return len(p), nil
	}

	if int64(len(p)) > c.limit-int64(c.buf.Len()) {
		c.overflowed = true
		c.buf = bytes.Buffer{}
		return len(p), nil
	}

	return c.buf.Write(p)
}

// Overflowed reports whether more than limit bytes were written.
func (c *captureWriter) Overflowed() bool {
	return c.overflowed
}

func (c *captureWriter) Bytes() []byte {
	return c.buf.Bytes()
}
