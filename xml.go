package barscan

import (
	"encoding/base64"
	"strconv"
)

const base64LineBytes = 57 // 19 groups of 3 bytes

// XML returns the symbol in the barcode XML format:
//
//	<symbol type='EAN-13' quality='2' orientation='UP'><data><![CDATA[4006381333931]]></data></symbol>
//
// A count attribute is added when the cache counter is nonzero. Data
// that cannot be embedded in CDATA is base64 encoded.
func (s *Symbol) XML() string {
	return string(s.AppendXML(nil))
}

// AppendXML appends the XML form of s to buf.
func (s *Symbol) AppendXML(buf []byte) []byte {
	buf = append(buf, "<symbol type='"...)
	buf = append(buf, s.Type.String()...)
	buf = append(buf, "' quality='"...)
	buf = strconv.AppendInt(buf, int64(s.Quality), 10)
	buf = append(buf, "' orientation='"...)
	buf = append(buf, s.Orientation.String()...)
	buf = append(buf, '\'')
	if s.CacheCount != 0 {
		buf = append(buf, " count='"...)
		buf = strconv.AppendInt(buf, int64(s.CacheCount), 10)
		buf = append(buf, '\'')
	}

	if isBinary(s.Data) {
		buf = append(buf, "><data format='base64' length='"...)
		buf = strconv.AppendInt(buf, int64(len(s.Data)), 10)
		buf = append(buf, "'><![CDATA[\n"...)
		buf = appendBase64(buf, s.Data)
	} else {
		buf = append(buf, "><data><![CDATA["...)
		buf = append(buf, s.Data...)
	}
	buf = append(buf, "]]></data></symbol>"...)
	return buf
}

// isBinary reports whether data must be base64 encoded: it starts with a
// UTF-16 byte order mark or an XML declaration, or holds a control
// character other than tab, newline and carriage return, a C1 control or
// the CDATA terminator.
func isBinary(data []byte) bool {
	if len(data) >= 2 && (data[0] == 0xff && data[1] == 0xfe || data[0] == 0xfe && data[1] == 0xff) {
		return true
	}
	if len(data) >= 5 && string(data[:5]) == "<?xml" {
		return true
	}
	for i, c := range data {
		switch {
		case c < 0x20 && (^uint32(0x2600)>>c)&1 != 0:
			return true
		case c >= 0x7f && c < 0xa0:
			return true
		case c == ']' && i+2 < len(data) && data[i+1] == ']' && data[i+2] == '>':
			return true
		}
	}
	return false
}

// appendBase64 encodes data with a newline after every 19 complete groups
// and a final newline.
func appendBase64(buf, data []byte) []byte {
	for len(data) > 0 {
		n := min(len(data), base64LineBytes)
		buf = base64.StdEncoding.AppendEncode(buf, data[:n])
		if n == base64LineBytes {
			buf = append(buf, '\n')
		}
		data = data[n:]
	}
	return append(buf, '\n')
}
