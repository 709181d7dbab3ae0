package core

// decode.go turns raw export bytes into UTF-8 text before CSV parsing.
//
// DIMA exports come from an Access database running on Windows. Depending on
// the exporter build they are UTF-8 (with or without BOM), UTF-16 with BOM,
// or Windows-1252 without any marker. Decode normalizes all of them.

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names reported by Decode.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingWindows1252 = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts data to UTF-8 and strips any byte order mark.
// Data that is neither marked nor valid UTF-8 is read as Windows-1252.
func Decode(data []byte) ([]byte, string, error) {
	name := detectEncoding(data)

	var fallback encoding.Encoding = unicode.UTF8
	if name == EncodingWindows1252 {
		fallback = charmap.Windows1252
	}

	out, _, err := transform.Bytes(unicode.BOMOverride(fallback.NewDecoder()), data)
	if err != nil {
		return nil, name, fmt.Errorf("%w: encoding error: %v", ErrLoad, err)
	}
	return out, name, nil
}

func detectEncoding(data []byte) string {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16
	case utf8.Valid(data):
		return EncodingUTF8
	default:
		return EncodingWindows1252
	}
}
