package decoder

import (
	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/charset"
)

// Code128 character values above the data range.
const (
	c128FNC3    = 0x60
	c128FNC2    = 0x61
	c128Shift   = 0x62
	c128CodeC   = 0x63
	c128CodeB   = 0x64
	c128CodeA   = 0x65
	c128FNC1    = 0x66
	c128StartA  = 0x67
	c128StartB  = 0x68
	c128StartC  = 0x69
	c128StopFwd = 0x6a
	c128StopRev = 0x6b
	c128FNC4    = 0x6c
)

// code128Characters maps table positions to character values. Positions
// 0x00-0x50 are reached through code128LoBase/code128LoOffset, the rest
// through the wide signature switch in decodeHi.
var code128Characters = [108]byte{
	0x5c, 0x3f, 0x21, // [00] 00
	0x2a, 0x45, 0x0c, 0x24, // [03] 01
	0x2d, 0x63, 0x0f, // [07] 02
	0x5f, 0x64, // [0a] 03
	0x6b, 0x68, 0x69, 0x27, 0x67, // [0c] 10
	0x41, 0x51, 0x1e, 0x03, 0x59, 0x00, 0x04, 0x1f, // [11] 11
	0x47, 0x0d, 0x33, 0x06, 0x35, 0x0e, 0x15, 0x07, // [19] 12
	0x10, 0x5a, 0x11, // [21] 13
	0x36, 0x65, 0x18, 0x37, // [24] 20
	0x4c, 0x13, 0x39, 0x09, 0x17, 0x14, 0x1b, 0x0a, 0x3a, 0x3d, // [28] 21
	0x22, 0x5e, 0x01, 0x05, 0x30, 0x02, 0x23, // [32] 22
	0x25, 0x2c, 0x16, 0x08, 0x3c, 0x12, 0x26, // [39] 23
	0x61, 0x66, 0x56, 0x62, // [40] 30
	0x19, 0x5b, 0x1a, // [44] 31
	0x28, 0x32, 0x1c, 0x0b, 0x4d, 0x1d, 0x29, // [47] 32
	0x43, 0x20, 0x44, // [4e] 33
	0x50, 0x5d, 0x40, // [51] 0014 0025 0034
	0x2b, 0x46, // [54] 0134 0143
	0x2e,       // [56] 0243
	0x53, 0x60, // [57] 0341 0352
	0x31,       // [59] 1024
	0x52, 0x42, // [5a] 1114 1134
	0x34, 0x48, // [5c] 1242 1243
	0x55,             // [5e] 1441
	0x57, 0x3e, 0x4e, // [5f] 4100 5200 4300
	0x3b, 0x49, // [62] 4310 3410
	0x6a,       // [64] 3420
	0x54, 0x4f, // [65] 1430 2530
	0x38,       // [67] 4201
	0x58, 0x4b, // [68] 4111 4311
	0x2f, 0x4a, // [6a] 2421 3421
}

var code128LoBase = [8]byte{
	0x00, 0x07, 0x0c, 0x19, 0x24, 0x32, 0x40, 0x47,
}

var code128LoOffset = [0x80]byte{
	0xff, 0xf0, 0xff, 0x1f, 0xff, 0xf2, 0xff, 0xff, // 00 [00]
	0xff, 0xff, 0xff, 0x3f, 0xf4, 0xf5, 0xff, 0x6f, // 01
	0xff, 0xff, 0xff, 0xff, 0xf0, 0xf1, 0xff, 0x2f, // 02 [07]
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x3f, 0x4f, // 03
	0xff, 0x0f, 0xf1, 0xf2, 0xff, 0x3f, 0xff, 0xf4, // 10 [0c]
	0xf5, 0xf6, 0xf7, 0x89, 0xff, 0xab, 0xff, 0xfc, // 11
	0xff, 0xff, 0x0f, 0x1f, 0x23, 0x45, 0xf6, 0x7f, // 12 [19]
	0xff, 0xff, 0xff, 0xff, 0xf8, 0xff, 0xf9, 0xaf, // 13
	0xf0, 0xf1, 0xff, 0x2f, 0xff, 0xf3, 0xff, 0xff, // 20 [24]
	0x4f, 0x5f, 0x67, 0x89, 0xfa, 0xbf, 0xff, 0xcd, // 21
	0xf0, 0xf1, 0xf2, 0x3f, 0xf4, 0x56, 0xff, 0xff, // 22 [32]
	0xff, 0xff, 0x7f, 0x8f, 0x9a, 0xff, 0xbc, 0xdf, // 23
	0x0f, 0x1f, 0xf2, 0xff, 0xff, 0x3f, 0xff, 0xff, // 30 [40]
	0xf4, 0xff, 0xf5, 0x6f, 0xff, 0xff, 0xff, 0xff, // 31
	0x0f, 0x1f, 0x23, 0xff, 0x45, 0x6f, 0xff, 0xff, // 32 [47]
	0xf7, 0xff, 0xf8, 0x9f, 0xff, 0xff, 0xff, 0xff, // 33
}

// code128Decoder decodes Code 128. Every character is six elements; the
// first start or reversed stop character fixes the read direction.
type code128Decoder struct {
	// character counts decoded characters, -1 while idle.
	character int
	// element counts elements since the last character.
	element int
	// direction is the color ending each character: Space reading
	// forward, Bar reading backwards.
	direction barscan.Color

	// raw holds the character values in scan order until the symbol is
	// committed to the decoder buffer.
	raw   []byte
	codes []byte
	out   []byte
	cfg   settings
}

func newCode128Decoder() *code128Decoder {
	return &code128Decoder{
		character: -1,
		cfg:       settings{flags: 1<<barscan.CfgEnable | 1<<barscan.CfgASCII},
	}
}

func (c *code128Decoder) newScan() { c.reset() }

func (c *code128Decoder) reset() {
	c.character = -1
	c.element = 0
	c.direction = barscan.Space
	c.raw = c.raw[:0]
}

func (c *code128Decoder) enabled() bool {
	return c.cfg.test(barscan.CfgEnable)
}

func (c *code128Decoder) lockType() barscan.Type {
	return barscan.Code128
}

func (c *code128Decoder) settings(sym barscan.Type) *settings {
	if sym == barscan.Code128 {
		return &c.cfg
	}
	return nil
}

func (c *code128Decoder) decode(d *Decoder) barscan.Type {
	// process every 6th element of an active symbol, on the color that
	// ends characters in the current direction
	if c.character >= 0 {
		c.element++
		if c.element != 6 {
			return barscan.None
		}
	}
	if d.color() != c.direction {
		return barscan.None
	}

	ch := decode6(d)
	if c.character < 0 {
		if ch < c128StartA || ch > c128StopRev || ch == c128StopFwd {
			return barscan.None
		}
		c.character = 0
		c.direction = barscan.Space
		if ch == c128StopRev {
			c.direction = barscan.Bar
		}
	} else if ch < 0 || c.character >= bufferMax {
		c.reset()
		return barscan.None
	}

	c.element = 0
	if ch == c128StopRev {
		// the trailing bar of the stop pattern precedes the next character
		c.element = -1
	}
	c.raw = append(c.raw, byte(ch))
	c.character++

	rev := c.direction == barscan.Bar
	done := false
	if c.character > 2 {
		if rev {
			done = ch >= c128StartA && ch <= c128StartC
		} else {
			done = ch == c128StopFwd
		}
	}
	if !done {
		return barscan.None
	}

	if !c.validateChecksum() {
		c.reset()
		return barscan.None
	}
	if !d.acquire(c.lockType()) {
		c.reset()
		return barscan.Partial
	}
	sym := barscan.Code128
	if !c.postprocess(d) {
		d.release(c.lockType())
		sym = barscan.None
	}
	c.reset()
	return sym
}

// decode6 decodes the last six elements as one character and returns its
// value, or -1.
func decode6(d *Decoder) int {
	s := d.calcS(0, 6)
	if s < 5 {
		return -1
	}

	var e [4]int
	if d.color() == barscan.Bar {
		e[0] = decodeE(d.pairWidth(0), s, 11)
		e[1] = decodeE(d.pairWidth(1), s, 11)
		e[2] = decodeE(d.pairWidth(2), s, 11)
		e[3] = decodeE(d.pairWidth(3), s, 11)
	} else {
		e[0] = decodeE(d.pairWidth(4), s, 11)
		e[1] = decodeE(d.pairWidth(3), s, 11)
		e[2] = decodeE(d.pairWidth(2), s, 11)
		e[3] = decodeE(d.pairWidth(1), s, 11)
	}
	sig := 0
	for _, v := range e {
		if v < 0 {
			return -1
		}
		sig = sig<<4 | v
	}

	if sig&0x4444 != 0 {
		return decodeHi(sig)
	}
	return decodeLo(sig)
}

// decodeLo resolves a signature of narrow edge measurements through the
// indexed tables.
func decodeLo(sig int) int {
	offset := (sig>>1)&0x01 | (sig>>3)&0x06 | (sig>>5)&0x18 | (sig>>7)&0x60
	idx := code128LoOffset[offset]
	if sig&1 != 0 {
		idx &= 0xf
	} else {
		idx >>= 4
	}
	if idx == 0xf {
		return -1
	}
	base := (sig >> 11) | ((sig >> 9) & 1)
	if base >= len(code128LoBase) {
		return -1
	}
	return int(code128Characters[int(idx)+int(code128LoBase[base])])
}

// decodeHi resolves a signature containing a wide edge measurement. The
// second half of the table holds the time reversed signatures.
func decodeHi(sig int) int {
	// a palindromic signature reads the same both ways and stays forward
	flipped := (sig>>12)&0x000f | (sig>>4)&0x00f0 | (sig<<4)&0x0f00 | (sig<<12)&0xf000
	rev := sig&0x4400 != 0 && flipped != sig
	if rev {
		sig = flipped
	}
	var idx int
	switch sig {
	case 0x0014:
		idx = 0x0
	case 0x0025:
		idx = 0x1
	case 0x0034:
		idx = 0x2
	case 0x0134:
		idx = 0x3
	case 0x0143:
		idx = 0x4
	case 0x0243:
		idx = 0x5
	case 0x0341:
		idx = 0x6
	case 0x0352:
		idx = 0x7
	case 0x1024:
		idx = 0x8
	case 0x1114:
		idx = 0x9
	case 0x1134:
		idx = 0xa
	case 0x1242:
		idx = 0xb
	case 0x1243:
		idx = 0xc
	case 0x1441:
		idx = 0xd
	default:
		return -1
	}
	if rev {
		idx += 0xe
	}
	return int(code128Characters[0x51+idx])
}

// validateChecksum compares the check character with the mod 103 sum of
// the start character and the position weighted data characters. The sum
// is accumulated back to front so that no multiplication is needed.
func (c *code128Decoder) validateChecksum() bool {
	n := c.character
	if n < 3 {
		return false
	}
	rev := c.direction == barscan.Bar

	// irregularly weighted start character
	idx := 0
	if rev {
		idx = n - 1
	}
	sum := int(c.raw[idx])

	acc := 0
	for i := n - 3; i > 0; i-- {
		idx = i
		if rev {
			idx = n - 1 - i
		}
		acc += int(c.raw[idx])
		if acc >= 103 {
			acc -= 103
		}
		sum += acc
		if sum >= 103 {
			sum -= 103
		}
	}

	idx = n - 2
	if rev {
		idx = 1
	}
	return sum == int(c.raw[idx])
}

// postprocess resolves code sets and function characters and writes the
// decoded data to the decoder buffer.
func (c *code128Decoder) postprocess(d *Decoder) bool {
	n := c.character
	rev := c.direction == barscan.Bar

	// characters in reading order: start, data..., without check and stop
	c.codes = c.codes[:0]
	for i := 0; i < n-2; i++ {
		idx := i
		if rev {
			idx = n - 1 - i
		}
		c.codes = append(c.codes, c.raw[idx])
	}

	out, mods, ok := resolveCode128(c.codes, c.out[:0])
	c.out = out
	if !ok {
		return false
	}
	if minLen := c.cfg.minLen; minLen > 0 && len(out) < minLen {
		return false
	}
	if maxLen := c.cfg.maxLen; maxLen > 0 && len(out) > maxLen {
		return false
	}
	if c.cfg.test(barscan.CfgASCII) && hasHighBit(out) {
		out = []byte(charset.DecodeBytes(out, charset.ISO8859_1))
	}
	if !d.sizeBuf(len(out)) {
		return false
	}
	copy(d.buf, out)

	d.direction = 1
	if rev {
		d.direction = -1
	}
	d.modifiers = mods
	return true
}

// resolveCode128 converts a start character followed by data characters
// to bytes, appending them to out.
func resolveCode128(codes []byte, out []byte) ([]byte, barscan.Modifier, bool) {
	if len(codes) == 0 || codes[0] < c128StartA || codes[0] > c128StartC {
		return out, 0, false
	}
	const (
		setA = 0
		setB = 1
		setC = 2
	)
	set := int(codes[0] - c128StartA)
	var mods barscan.Modifier
	shift := false    // next character uses the other of sets A and B
	fnc4 := false     // next character is extended
	extended := false // latched extended mode
	pendingFNC4 := -1 // position of the last FNC4, to detect doubles

	for i := 1; i < len(codes); i++ {
		code := codes[i]
		cur := set
		if shift && set != setC {
			cur = 1 - set
		}

		switch {
		case cur == setC && code < 100:
			out = append(out, '0'+code/10, '0'+code%10)
			continue

		case cur != setC && code < 0x60:
			ch := code + 0x20
			if cur == setA && ch >= 0x60 {
				ch -= 0x60
			}
			if fnc4 != extended {
				ch |= 0x80
			}
			out = append(out, ch)
			shift, fnc4 = false, false
			continue

		case code == c128FNC1:
			switch len(out) {
			case 0:
				if i == 1 {
					mods |= barscan.ModGS1
				} else {
					out = append(out, 0x1d)
				}
			case 1:
				if i == 2 {
					mods |= barscan.ModAIM
				} else {
					out = append(out, 0x1d)
				}
			default:
				out = append(out, 0x1d)
			}

		case code >= c128StartA:
			return out, 0, false

		case cur != setC && code == c128Shift:
			shift = true
			continue

		case cur != setC && (code == c128FNC2 || code == c128FNC3):
			// message append and reader initialization carry no data

		case code >= c128CodeC && code <= c128CodeA:
			newSet := int(c128CodeA - code)
			if newSet == cur && cur != setC {
				// FNC4: a single one extends the next character, two in
				// a row toggle the extended mode
				if pendingFNC4 == i-1 {
					extended = !extended
					fnc4 = false
				} else {
					fnc4 = true
				}
				pendingFNC4 = i
				continue
			}
			set = newSet

		default:
			return out, 0, false
		}
		shift = false
	}
	return out, mods, true
}

func hasHighBit(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return true
		}
	}
	return false
}
