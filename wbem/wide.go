package wbem

import (
	"encoding/binary"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// ErrMalformedText is returned when text cannot be represented as a
// NUL-terminated wide string.
var ErrMalformedText = errors.New("text cannot be converted to a wide string")

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// EncodeWide converts s into NUL-terminated UTF-16 code units.
// Strings with invalid UTF-8 or an embedded NUL are rejected.
func EncodeWide(s string) ([]uint16, error) {
	if !utf8.ValidString(s) {
		return nil, ErrMalformedText
	}
	if strings.IndexByte(s, 0) >= 0 {
		return nil, ErrMalformedText
	}

	raw, err := utf16LE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Join(ErrMalformedText, err)
	}

	units := make([]uint16, len(raw)/2+1)
	for i := 0; i+1 < len(raw); i += 2 {
		units[i/2] = binary.LittleEndian.Uint16(raw[i:])
	}
	return units, nil
}

// DecodeWide converts UTF-16 code units back into a string, stopping at the
// first NUL.
func DecodeWide(units []uint16) (string, error) {
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}

	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:], u)
	}

	out, err := utf16LE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
