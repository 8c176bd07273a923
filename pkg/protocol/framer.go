package protocol

import (
	"bytes"
	"strconv"
)

var frameDelimiter = []byte("\r\n\r\n")

// framer reassembles Content-Length framed message bodies from a byte
// stream delivered in arbitrary-sized chunks. It is re-entrant on every
// chunk: Feed consumes as many complete frames as the buffer holds and
// leaves any partial frame for the next call.
type framer struct {
	buf []byte
}

// Feed appends a chunk to the accumulation buffer and returns the
// bodies of every frame completed by it, in stream order.
//
// A header section without a parseable Content-Length is dropped and
// scanning resumes at the next delimiter, so a malformed frame never
// stalls the stream. A frame whose declared body has not fully arrived
// is left untouched in the buffer.
func (f *framer) Feed(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)

	var bodies [][]byte
	for {
		i := bytes.Index(f.buf, frameDelimiter)
		if i < 0 {
			return bodies
		}

		length, ok := parseContentLength(f.buf[:i])
		if !ok {
			f.buf = f.buf[i+len(frameDelimiter):]
			continue
		}

		end := i + len(frameDelimiter) + length
		if len(f.buf) < end {
			return bodies
		}

		body := make([]byte, length)
		copy(body, f.buf[i+len(frameDelimiter):end])
		f.buf = f.buf[end:]
		bodies = append(bodies, body)
	}
}

// parseContentLength extracts the Content-Length value from a frame
// header section.
func parseContentLength(header []byte) (int, bool) {
	for _, line := range bytes.Split(header, []byte("\r\n")) {
		name, value, found := bytes.Cut(line, []byte(":"))
		if !found {
			continue
		}
		if !bytes.EqualFold(bytes.TrimSpace(name), []byte("Content-Length")) {
			continue
		}
		n, err := strconv.Atoi(string(bytes.TrimSpace(value)))
		if err != nil || n < 0 {
			continue
		}
		return n, true
	}
	return 0, false
}
