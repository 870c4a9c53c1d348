package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
)

// infoHash computes the SHA-1 of a torrent file's raw info dictionary.
// It walks the top-level dictionary without building any values; only the
// byte span of the info entry matters.
func infoHash(data []byte) (string, error) {
	if len(data) == 0 || data[0] != 'd' {
		return "", errors.New("not a bencoded dictionary")
	}

	pos := 1
	for pos < len(data) && data[pos] != 'e' {
		key, valStart, err := bencodeString(data, pos)
		if err != nil {
			return "", err
		}
		valEnd, err := bencodeSkip(data, valStart)
		if err != nil {
			return "", err
		}
		if key == "info" {
			sum := sha1.Sum(data[valStart:valEnd])
			return hex.EncodeToString(sum[:]), nil
		}
		pos = valEnd
	}
	return "", errors.New("no info dictionary")
}

// bencodeString reads a length-prefixed string at pos, returning its value
// and the offset just past it.
func bencodeString(data []byte, pos int) (string, int, error) {
	n := 0
	for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
		n = n*10 + int(data[pos]-'0')
		// A length longer than the input can only be garbage; bailing
		// here also keeps the accumulator from overflowing.
		if n > len(data) {
			return "", 0, errors.New("string length past end of data")
		}
		pos++
	}
	if pos >= len(data) || data[pos] != ':' {
		return "", 0, fmt.Errorf("malformed string at offset %d", pos)
	}
	pos++
	if pos+n > len(data) {
		return "", 0, errors.New("string length past end of data")
	}
	return string(data[pos : pos+n]), pos + n, nil
}

// bencodeSkip returns the offset just past the value starting at pos.
func bencodeSkip(data []byte, pos int) (int, error) {
	if pos >= len(data) {
		return 0, errors.New("unexpected end of data")
	}
	switch c := data[pos]; {
	case c == 'i':
		for pos++; pos < len(data); pos++ {
			if data[pos] == 'e' {
				return pos + 1, nil
			}
		}
		return 0, errors.New("unterminated integer")

	case c == 'l' || c == 'd':
		pos++
		for pos < len(data) && data[pos] != 'e' {
			next, err := bencodeSkip(data, pos)
			if err != nil {
				return 0, err
			}
			pos = next
		}
		if pos >= len(data) {
			return 0, errors.New("unterminated container")
		}
		return pos + 1, nil

	case c >= '0' && c <= '9':
		_, next, err := bencodeString(data, pos)
		return next, err

	default:
		return 0, fmt.Errorf("unexpected byte %q at offset %d", c, pos)
	}
}
