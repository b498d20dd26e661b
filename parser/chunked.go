package parser

import (
	"github.com/badu/meander/herr"
	"github.com/badu/meander/wire"
)

// readChunkedBody decodes a "transfer-encoding: chunked" body per
// spec §4.2: HEX[;ext] CRLF DATA CRLF, terminated by a zero-length
// chunk. Grounded on badu-http/utils_chunks.go's readChunkLine /
// parseHexUint shape, adapted to this framework's wire.Reader.
func readChunkedBody(r *wire.Reader, maxContentLength int64) ([]byte, error) {
	var out []byte
	var total int64
	for {
		line, err := r.ReadLine()
		if err != nil {
			return nil, herr.BadRequest("invalid chunked encoding: " + err.Error())
		}
		size, err := parseChunkSizeLine(line)
		if err != nil {
			return nil, herr.BadRequest(err.Error())
		}
		if size == 0 {
			// Trailing CRLF after the zero chunk; trailers are not
			// supported (spec Non-goals), so just consume the blank line.
			if _, err := r.ReadLine(); err != nil {
				return nil, herr.BadRequest("invalid chunked encoding: " + err.Error())
			}
			break
		}
		total += int64(size)
		if maxContentLength > 0 && total > maxContentLength {
			return nil, herr.TooLarge("content length exceeds maximum")
		}
		data, err := r.Read(size)
		if err != nil {
			return nil, herr.BadRequest("invalid chunked encoding: " + err.Error())
		}
		out = append(out, data...)
		if _, err := r.ReadLine(); err != nil { // trailing CRLF after chunk data
			return nil, herr.BadRequest("invalid chunked encoding: " + err.Error())
		}
	}
	return out, nil
}

// parseChunkSizeLine strips any chunk-extension (";token" or
// ";token=value") and parses the remaining hex size.
func parseChunkSizeLine(line string) (int, error) {
	if semi := indexByte(line, ';'); semi != -1 {
		line = line[:semi]
	}
	line = trimSpace(line)
	if line == "" {
		return 0, errInvalidChunkSize
	}
	return parseHexUint(line)
}

var errInvalidChunkSize = chunkError("invalid chunk size")

type chunkError string

func (e chunkError) Error() string { return string(e) }

func parseHexUint(s string) (int, error) {
	var n uint64
	for i := 0; i < len(s); i++ {
		b := s[i]
		var v byte
		switch {
		case '0' <= b && b <= '9':
			v = b - '0'
		case 'a' <= b && b <= 'f':
			v = b - 'a' + 10
		case 'A' <= b && b <= 'F':
			v = b - 'A' + 10
		default:
			return 0, chunkError("invalid byte in chunk length")
		}
		if i >= 16 {
			return 0, chunkError("http chunk length too large")
		}
		n <<= 4
		n |= uint64(v)
	}
	return int(n), nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func trimSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	n := len(s)
	for n > i && isSpace(s[n-1]) {
		n--
	}
	return s[i:n]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
