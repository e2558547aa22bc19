// Package charset converts decoded symbol bytes to UTF-8.
//
// Symbologies that carry 8-bit data, such as Code 128 with FNC4, define the
// upper half of the byte range as ISO-8859-1. Other payloads are guessed.
package charset

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Name identifies a character set.
type Name string

const (
	UTF8      Name = "UTF-8"
	ISO8859_1 Name = "ISO-8859-1"
	ShiftJIS  Name = "Shift_JIS"
	GB18030   Name = "GB18030"
	Cp437     Name = "IBM437"
	Cp1252    Name = "windows-1252"
)

var encodings = map[Name]encoding.Encoding{
	ISO8859_1: charmap.ISO8859_1,
	ShiftJIS:  japanese.ShiftJIS,
	GB18030:   simplifiedchinese.GB18030,
	Cp437:     charmap.CodePage437,
	Cp1252:    charmap.Windows1252,
}

var aliases = map[string]Name{
	"utf8":         UTF8,
	"utf-8":        UTF8,
	"ascii":        UTF8,
	"us-ascii":     UTF8,
	"latin1":       ISO8859_1,
	"iso8859_1":    ISO8859_1,
	"iso-8859-1":   ISO8859_1,
	"sjis":         ShiftJIS,
	"shift_jis":    ShiftJIS,
	"gb18030":      GB18030,
	"gb2312":       GB18030,
	"gbk":          GB18030,
	"cp437":        Cp437,
	"ibm437":       Cp437,
	"cp1252":       Cp1252,
	"windows-1252": Cp1252,
}

// Lookup returns the character set called name, ignoring case.
func Lookup(name string) (Name, bool) {
	n, ok := aliases[strings.ToLower(name)]
	return n, ok
}

// DecodeBytes converts data from charset cs to UTF-8. Data is returned
// unchanged when cs is UTF-8, unknown or when conversion fails.
func DecodeBytes(data []byte, cs Name) string {
	enc, ok := encodings[cs]
	if !ok {
		return string(data)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}
