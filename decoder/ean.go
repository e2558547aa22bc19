package decoder

import "github.com/ericlevine/barscan"

// Half identity of a partial EAN result, or'ed into the symbol type.
const (
	eanLeft  barscan.Type = 0x0000
	eanRight barscan.Type = 0x1000
)

// eanDigits maps the compacted E1/E2 (and D2) edge code of a character to
// its digit, with bit 4 set for the odd (A) parity variant.
var eanDigits = [20]byte{ // E1   E2
	0x06, 0x10, 0x04, 0x13, //  2  2-5
	0x19, 0x08, 0x11, 0x05, //  3  2-5 (d2 <= thr)
	0x09, 0x12, 0x07, 0x15, //  4  2-5 (d2 <= thr)
	0x16, 0x00, 0x14, 0x03, //  5  2-5
	0x18, 0x01, 0x02, 0x17, // E1E2=43,44,33,34 (d2 > thr)
}

// eanParityDecode maps a 6 digit parity pattern to the digit it encodes,
// two patterns per byte (odd index in the high nibble). 0xf is invalid.
var eanParityDecode = [32]byte{
	0xf0, // [xx] BBBBBB = RIGHT half EAN-13

	// UPC-E check digit encoding
	0xff,
	0xff,
	0x0f, // [07] BBBAAA = 0
	0xff,
	0x1f, // [0b] BBABAA = 1
	0x2f, // [0d] BBAABA = 2
	0xf3, // [0e] BBAAAB = 3
	0xff,
	0x4f, // [13] BABBAA = 4
	0x7f, // [15] BABABA = 7
	0xf8, // [16] BABAAB = 8
	0x5f, // [19] BAABBA = 5
	0xf9, // [1a] BAABAB = 9
	0xf6, // [1c] BAAABB = 6
	0xff,

	// LEFT half EAN-13 leading digit
	0xff,
	0x6f, // [23] ABBBAA = 6
	0x9f, // [25] ABBABA = 9
	0xf5, // [26] ABBAAB = 5
	0x8f, // [29] ABABBA = 8
	0xf7, // [2a] ABABAB = 7
	0xf4, // [2c] ABAABB = 4
	0xff,
	0x3f, // [31] AABBBA = 3
	0xf2, // [32] AABBAB = 2
	0xf1, // [34] AABABB = 1
	0xff,
	0xff,
	0xff,
	0xff,
	0x0f, // [3f] AAAAAA = 0
}

// eanPass is one of four phase shifted decode attempts.
type eanPass struct {
	// state counts the elements consumed since the pass locked onto a
	// guard, -1 while idle.
	state int
	raw   [7]byte
}

// eanDecoder decodes the EAN/UPC family with four passes, one started on
// every fourth element so that each character phase is tried.
type eanDecoder struct {
	pass        [4]eanPass
	left, right barscan.Type
	s4          uint32
	direction   int

	// buf holds the 13 main digits followed by up to 5 add-on digits.
	buf [18]int8

	addon addonScan
	// last is the confirmed main result an add-on attaches to.
	last struct {
		typ  barscan.Type
		data []byte
	}

	ean13, ean8, upca, upce, isbn10, isbn13 settings
	ean2, ean5                              settings
}

func newEANDecoder() *eanDecoder {
	enableCheck := uint32(1<<barscan.CfgEnable | 1<<barscan.CfgEmitCheck)
	checkOnly := uint32(1 << barscan.CfgEmitCheck)
	return &eanDecoder{
		ean13:  settings{flags: enableCheck},
		ean8:   settings{flags: enableCheck},
		upca:   settings{flags: checkOnly},
		upce:   settings{flags: checkOnly},
		isbn10: settings{flags: checkOnly},
		isbn13: settings{flags: checkOnly},
	}
}

func (ean *eanDecoder) newScan() {
	for i := range ean.pass {
		ean.pass[i].state = -1
	}
	ean.s4 = 0
	ean.addon.stop()
}

func (ean *eanDecoder) reset() {
	ean.newScan()
	ean.left, ean.right = barscan.None, barscan.None
	ean.last.typ = barscan.None
}

func (ean *eanDecoder) enabled() bool {
	return ean.ean13.test(barscan.CfgEnable) || ean.ean8.test(barscan.CfgEnable) ||
		ean.upca.test(barscan.CfgEnable) || ean.upce.test(barscan.CfgEnable) ||
		ean.isbn10.test(barscan.CfgEnable) || ean.isbn13.test(barscan.CfgEnable)
}

func (ean *eanDecoder) lockType() barscan.Type {
	return barscan.EAN13
}

func (ean *eanDecoder) settings(sym barscan.Type) *settings {
	switch sym {
	case barscan.EAN13:
		return &ean.ean13
	case barscan.EAN8:
		return &ean.ean8
	case barscan.UPCA:
		return &ean.upca
	case barscan.UPCE:
		return &ean.upce
	case barscan.ISBN10:
		return &ean.isbn10
	case barscan.ISBN13:
		return &ean.isbn13
	case barscan.EAN2:
		return &ean.ean2
	case barscan.EAN5:
		return &ean.ean5
	}
	return nil
}

func (ean *eanDecoder) addonsEnabled() bool {
	return ean.ean2.test(barscan.CfgEnable) || ean.ean5.test(barscan.CfgEnable)
}

func (ean *eanDecoder) decode(d *Decoder) barscan.Type {
	passIdx := int(d.idx & 3)

	// latest character width
	ean.s4 -= d.width(4)
	ean.s4 += d.width(0)

	addon := barscan.None
	if ean.addon.active() {
		addon = ean.decodeAddon(d)
	}

	sym := barscan.None

	for i := range ean.pass {
		p := &ean.pass[i]
		if p.state < 0 && i != passIdx {
			continue
		}
		fwd := (p.state+1)&1 == 1
		part := ean.decodePass(d, p)
		if part == barscan.None {
			continue
		}
		sym = ean.integratePartial(p, part, fwd)
		if sym == barscan.None {
			continue
		}
		// this pass is valid, restart all of them
		for j := range ean.pass {
			ean.pass[j].state = -1
		}
		if sym > barscan.Partial {
			if !d.acquire(ean.lockType()) {
				sym = barscan.Partial
				continue
			}
			ean.postprocess(d, sym)
			// a committed symbol needs both halves again
			ean.resetParts()
			if ean.addonsEnabled() && ean.direction > 0 {
				ean.last.typ = sym
				ean.last.data = append(ean.last.data[:0], d.buf...)
				// the last digit precedes the end guard and the gap
				ean.addon.start(d.calcS(4, 4))
			}
		}
	}
	if addon > barscan.Partial {
		// the add-on holds the lock
		return addon
	}
	return sym
}

// decodePass advances one pass by the newest element.
func (ean *eanDecoder) decodePass(d *Decoder, p *eanPass) barscan.Type {
	p.state++
	idx := p.state
	fwd := p.state&1 == 1

	if d.color() == barscan.Space && (idx == 0x10 || idx == 0x11) &&
		ean.ean8.test(barscan.CfgEnable) && ean.auxEnd(d, fwd) {
		part := ean.partEnd4(p, fwd)
		p.state = -1
		return part
	}

	if idx&3 == 0 && idx <= 0x14 {
		if ean.s4 == 0 {
			return barscan.None
		}
		// validate guard bars before decoding the first character
		if p.state == 0 && !ean.auxStart(d) {
			p.state = -1
			return barscan.None
		}
		if code := ean.decode4(d); code < 0 {
			p.state = -1
		} else {
			p.raw[idx>>2+1] = eanDigits[code]
		}
	}

	if d.color() == barscan.Space && (idx == 0x18 || idx == 0x19) {
		part := barscan.None
		if ean.auxEnd(d, fwd) {
			part = ean.partEnd7(p, fwd)
		}
		p.state = -1
		return part
	}
	return barscan.None
}

// auxEnd validates the guard ending at the current element, using the
// preceding character as reference width. Reading away from the symbol
// the guard must be followed by a quiet zone.
func (ean *eanDecoder) auxEnd(d *Decoder, fwd bool) bool {
	var f uint8
	if fwd {
		f = 1
	}
	s := d.calcS(4+f, 4)
	if s == 0 {
		return false
	}

	// quiet zone
	if !fwd && (d.width(0)*14+1)/s < 3 {
		return false
	}
	for i := 1 - f; i < 3+f; i++ {
		if decodeE(d.pairWidth(i), s, 7) != 0 {
			return false
		}
	}
	return true
}

// auxStart checks for a start guard (on a bar, after a quiet zone) or a
// center guard (on a space) before the current character.
func (ean *eanDecoder) auxStart(d *Decoder) bool {
	if decodeE(d.pairWidth(5), ean.s4, 7) != 0 {
		return false
	}
	e1 := decodeE(d.pairWidth(4), ean.s4, 7)

	if d.color() == barscan.Bar {
		// quiet zone, add-on guards are picked up by the add-on scan
		return (d.width(7)*14+1)/ean.s4 >= 3 && e1 == 0
	}
	// decoding from a space: the center guard
	return e1 == 0 && decodeE(d.pairWidth(6), ean.s4, 7) == 0
}

// decode4 decodes the last four elements (two bars and two spaces) as a
// character and returns its index into eanDigits, or -1.
func (ean *eanDecoder) decode4(d *Decoder) int {
	var e1 uint32
	if d.color() == barscan.Bar {
		e1 = d.pairWidth(0)
	} else {
		e1 = d.pairWidth(2)
	}
	e2 := d.pairWidth(1)

	E1 := decodeE(e1, ean.s4, 7)
	E2 := decodeE(e2, ean.s4, 7)
	if E1 < 0 || E2 < 0 {
		return -1
	}
	code := E1<<2 | E2

	// E1E2 in 34, 43, 33, 44 need the bar width sum to tell digits apart
	if (1<<code)&0x0660 != 0 {
		var d2 uint32
		if d.color() == barscan.Bar {
			d2 = d.width(0) + d.width(2)
		} else {
			d2 = d.width(1) + d.width(3)
		}
		d2 *= 7
		mid := uint32(4)
		if (1<<code)&0x0420 != 0 {
			mid = 3
		}
		if d2 > mid*ean.s4 {
			code = (code>>1)&3 | 0x10
		}
	}
	return code
}

// partEnd4 resolves an EAN-8 half from the parity of its four digits.
func (ean *eanDecoder) partEnd4(p *eanPass, fwd bool) barscan.Type {
	par := (p.raw[1]&0x10)>>1 | (p.raw[2]&0x10)>>2 |
		(p.raw[3]&0x10)>>3 | (p.raw[4]&0x10)>>4
	if par != 0 && par != 0xf {
		return barscan.None
	}

	if (par == 0) == fwd {
		p.raw[1], p.raw[4] = p.raw[4], p.raw[1]
		p.raw[2], p.raw[3] = p.raw[3], p.raw[2]
	}

	if par == 0 {
		return barscan.EAN8 | eanRight
	}
	return barscan.EAN8 | eanLeft
}

// partEnd7 resolves an EAN-13 half or a UPC-E symbol from the parity of
// its six digits. The parity encoded digit is stored in raw[0].
func (ean *eanDecoder) partEnd7(p *eanPass, fwd bool) barscan.Type {
	var par byte
	if fwd {
		par = (p.raw[1]&0x10)<<1 | p.raw[2]&0x10 | (p.raw[3]&0x10)>>1 |
			(p.raw[4]&0x10)>>2 | (p.raw[5]&0x10)>>3 | (p.raw[6]&0x10)>>4
	} else {
		par = (p.raw[1]&0x10)>>4 | (p.raw[2]&0x10)>>3 | (p.raw[3]&0x10)>>2 |
			(p.raw[4]&0x10)>>1 | p.raw[5]&0x10 | (p.raw[6]&0x10)<<1
	}

	p.raw[0] = eanParityDecode[par>>1]
	if par&1 != 0 {
		p.raw[0] >>= 4
	}
	p.raw[0] &= 0xf
	if p.raw[0] == 0xf {
		return barscan.None
	}

	if (par == 0) == fwd {
		for i := 1; i < 4; i++ {
			p.raw[i], p.raw[7-i] = p.raw[7-i], p.raw[i]
		}
	}

	// UPC-A and ISBN are read as EAN-13 halves
	if ean.ean13Family() {
		if par == 0 {
			return barscan.EAN13 | eanRight
		}
		if par&0x20 != 0 {
			return barscan.EAN13 | eanLeft
		}
	}
	if par != 0 && par&0x20 == 0 {
		return barscan.UPCE
	}
	return barscan.None
}

func (ean *eanDecoder) ean13Family() bool {
	return ean.ean13.test(barscan.CfgEnable) || ean.upca.test(barscan.CfgEnable) ||
		ean.isbn10.test(barscan.CfgEnable) || ean.isbn13.test(barscan.CfgEnable)
}

func (ean *eanDecoder) resetParts() {
	ean.left, ean.right = barscan.None, barscan.None
}

// integratePartial merges a decoded half into the holding buffer and
// returns the confirmed symbol type, barscan.Partial while incomplete or
// barscan.None when the checksum fails.
func (ean *eanDecoder) integratePartial(p *eanPass, part barscan.Type, fwd bool) barscan.Type {
	base := part & barscan.SymbolMask
	if (ean.left != barscan.None && base != ean.left) ||
		(ean.right != barscan.None && base != ean.right) {
		ean.resetParts()
	}

	switch {
	case part&eanRight != 0:
		i, j := 4, 7
		if base == barscan.EAN13 {
			i, j = 6, 12
		}
		for ; i > 0; i, j = i-1, j-1 {
			digit := int8(p.raw[i] & 0xf)
			if ean.right != barscan.None && ean.buf[j] != digit {
				ean.resetParts()
			}
			ean.buf[j] = digit
		}
		ean.right = base
		ean.direction = 1
	case part != barscan.UPCE:
		i, j := 4, 3
		if base == barscan.EAN13 {
			i, j = 6, 6
		}
		for ; j >= 0; i, j = i-1, j-1 {
			digit := int8(p.raw[i] & 0xf)
			if ean.left != barscan.None && ean.buf[j] != digit {
				ean.resetParts()
			}
			ean.buf[j] = digit
		}
		ean.left = base
		ean.direction = -1
	default:
		ean.expandUPCE(p)
		ean.direction = -1
		if fwd {
			ean.direction = 1
		}
	}

	if base != barscan.UPCE {
		part = barscan.Partial
		if ean.left != barscan.None && ean.left == ean.right {
			part = ean.left
		}
	} else {
		part = barscan.UPCE
	}

	if ((part == barscan.EAN13 || part == barscan.UPCE) && !ean.verifyChecksum(12)) ||
		(part == barscan.EAN8 && !ean.verifyChecksum(7)) {
		return barscan.None
	}

	switch part {
	case barscan.EAN13:
		// EAN-13 subsets
		if ean.buf[0] == 0 && ean.upca.test(barscan.CfgEnable) {
			part = barscan.UPCA
		} else if ean.buf[0] == 9 && ean.buf[1] == 7 {
			if ean.buf[2] == 8 && ean.isbn10.test(barscan.CfgEnable) {
				part = barscan.ISBN10
			} else if (ean.buf[2] == 8 || ean.buf[2] == 9) && ean.isbn13.test(barscan.CfgEnable) {
				part = barscan.ISBN13
			}
		}
	case barscan.UPCE:
		switch {
		case ean.upce.test(barscan.CfgEnable):
			// expanded for the checksum, reported compressed
			ean.buf[0], ean.buf[1] = 0, 0
			for i := 2; i < 8; i++ {
				ean.buf[i] = int8(p.raw[i-1] & 0xf)
			}
			ean.buf[8] = int8(p.raw[0] & 0xf)
		case ean.upca.test(barscan.CfgEnable):
			part = barscan.UPCA
		case ean.ean13.test(barscan.CfgEnable):
			part = barscan.EAN13
		default:
			part = barscan.None
		}
	}
	if part == barscan.EAN13 && !ean.ean13.test(barscan.CfgEnable) {
		return barscan.None
	}
	return part
}

// expandUPCE expands a UPC-E symbol to its UPC-A digits in buf.
func (ean *eanDecoder) expandUPCE(p *eanPass) {
	i := 0
	next := func() int8 {
		v := int8(p.raw[i] & 0xf)
		i++
		return v
	}
	// the parity encoded digit is the check digit
	ean.buf[12] = next()

	dec := int8(p.raw[6] & 0xf)
	ean.buf[0] = 0
	ean.buf[1] = 0
	ean.buf[2] = next()
	ean.buf[3] = next()
	if dec < 3 {
		ean.buf[4] = dec
	} else {
		ean.buf[4] = next()
	}
	ean.buf[5] = 0
	if dec >= 4 {
		ean.buf[5] = next()
	}
	ean.buf[6] = 0
	if dec >= 5 {
		ean.buf[6] = next()
	}
	ean.buf[7] = 0
	ean.buf[8] = 0
	ean.buf[9] = 0
	if dec < 3 {
		ean.buf[9] = next()
	}
	ean.buf[10] = 0
	if dec < 4 {
		ean.buf[10] = next()
	}
	if dec < 5 {
		ean.buf[11] = next()
	} else {
		ean.buf[11] = dec
	}
}

// verifyChecksum checks digit n against the mod 10 checksum of the n
// digits before it, weighting alternate digits by 3 counting back from
// the check digit.
func (ean *eanDecoder) verifyChecksum(n int) bool {
	chk := 0
	for i := 0; i < n; i++ {
		d := int(ean.buf[i])
		if d < 0 || d > 9 {
			return false
		}
		chk += d
		if (i^n)&1 != 0 {
			chk += d << 1
			if chk >= 20 {
				chk -= 20
			}
		}
		if chk >= 10 {
			chk -= 10
		}
	}
	if chk != 0 {
		chk = 10 - chk
	}
	return chk == int(ean.buf[n])
}

// isbn10Check computes the ISBN-10 check character of digits 3 to 11.
func (ean *eanDecoder) isbn10Check() byte {
	chk := 0
	for w := 10; w > 1; w-- {
		chk += int(ean.buf[13-w]) * w
	}
	chk %= 11
	if chk == 0 {
		return '0'
	}
	chk = 11 - chk
	if chk < 10 {
		return byte(chk) + '0'
	}
	return 'X'
}

// postprocess writes the digits of sym to the output buffer.
func (ean *eanDecoder) postprocess(d *Decoder, sym barscan.Type) {
	base := sym.Base()
	i, n := 0, int(base)
	switch base {
	case barscan.UPCA:
		i = 1
	case barscan.UPCE:
		i, n = 1, n-1
	case barscan.ISBN13:
		n = int(barscan.EAN13)
	case barscan.ISBN10:
		i = 3
	}
	cfg := ean.settings(base)
	emitCheck := cfg != nil && cfg.test(barscan.CfgEmitCheck)
	if base == barscan.ISBN10 || !emitCheck {
		n--
	}

	d.sizeBuf(n)
	for j := 0; j < n; j, i = j+1, i+1 {
		d.buf[j] = byte(ean.buf[i]) + '0'
	}
	if base == barscan.ISBN10 && emitCheck {
		d.buf = append(d.buf, ean.isbn10Check())
	}
	d.direction = ean.direction
	d.modifiers = 0
}
