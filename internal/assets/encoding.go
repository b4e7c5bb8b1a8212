package assets

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NormalizeToUTF8 converts asset bytes to a UTF-8 string. Registration
// documents are JSON, so the realistic encodings are UTF-8 (with or without
// BOM), UTF-16 with BOM, and the odd latin-1 file from a misconfigured
// toolchain. Anything undecodable degrades to replacement runes instead of
// failing the load.
func NormalizeToUTF8(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	if dec := bomDecoder(data); dec != nil {
		return decodeWithFallback(data, dec)
	}

	if utf8.Valid(data) {
		return string(data)
	}

	if looksUTF16(data, 1) {
		return decodeWithFallback(data, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())
	}
	if looksUTF16(data, 0) {
		return decodeWithFallback(data, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder())
	}

	return decodeWithFallback(data, charmap.ISO8859_1.NewDecoder())
}

func bomDecoder(data []byte) *encoding.Decoder {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xEF, 0xBB, 0xBF}):
		return unicode.UTF8BOM.NewDecoder()
	case len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xFE}):
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	default:
		return nil
	}
}

// looksUTF16 checks for the NUL-byte pattern of BOM-less UTF-16 ASCII-range
// text; zeroOffset selects which byte of each pair should be NUL.
func looksUTF16(data []byte, zeroOffset int) bool {
	if len(data) < 2 || len(data)%2 != 0 {
		return false
	}

	zeros := 0
	for i := zeroOffset; i < len(data); i += 2 {
		if data[i] == 0 {
			zeros++
		}
	}
	return float64(zeros)/float64(len(data)/2) > 0.75
}

func decodeWithFallback(data []byte, decoder *encoding.Decoder) string {
	reader := transform.NewReader(bytes.NewReader(data), decoder)
	result, err := io.ReadAll(reader)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("�")))
	}
	return string(bytes.ToValidUTF8(result, []byte("�")))
}
