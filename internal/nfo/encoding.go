package nfo

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// textCodec decodes sidecar bytes to UTF-8 and re-encodes edits in the
// original encoding. A nil encoding means plain UTF-8 without a BOM.
type textCodec struct {
	name string
	enc  encoding.Encoding
}

func detectCodec(data []byte) textCodec {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return textCodec{name: "utf-8-bom", enc: unicode.UTF8BOM}
	case bytes.HasPrefix(data, bomUTF16LE):
		return textCodec{name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)}
	case bytes.HasPrefix(data, bomUTF16BE):
		return textCodec{name: "utf-16be", enc: unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)}
	default:
		return textCodec{name: "utf-8"}
	}
}

func (c textCodec) decode(data []byte) (string, error) {
	if c.enc == nil {
		return string(data), nil
	}
	out, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c textCodec) encode(text string) ([]byte, error) {
	if c.enc == nil {
		return []byte(text), nil
	}
	return c.enc.NewEncoder().Bytes([]byte(text))
}
