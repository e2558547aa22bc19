package decoder

import "github.com/ericlevine/barscan"

// ean2Parity and ean5Parity give the expected parity pattern of an add-on,
// one bit per digit (first digit most significant), set for odd (A)
// parity. EAN-2 is indexed by value mod 4, EAN-5 by its checksum.
var (
	ean2Parity = [4]byte{0x3, 0x2, 0x1, 0x0}
	ean5Parity = [10]byte{0x07, 0x0b, 0x0d, 0x0e, 0x13, 0x19, 0x1c, 0x15, 0x16, 0x1a}
)

// addonScan follows an EAN-2 or EAN-5 supplement to the right of a
// confirmed main symbol. Supplements are only read in scan direction.
//
// Element layout after the gap that ended the main symbol:
//
//	1-3    start guard, bar 1, space 1, bar 2
//	4-7    first digit (space, bar, space, bar)
//	8-9    delineator, space 1, bar 1 (a quiet zone at 8 ends EAN-2)
//	10-13  second digit, and so on
type addonScan struct {
	n   int    // elements seen since arming, 0 when idle
	ref uint32 // width of the last character
	raw [5]byte
	nd  int
}

func (a *addonScan) active() bool {
	return a.n > 0
}

func (a *addonScan) start(ref uint32) {
	a.n, a.ref, a.nd = 1, ref, 0
}

func (a *addonScan) stop() {
	a.n = 0
}

// decodeAddon advances the add-on scan by the newest element.
func (ean *eanDecoder) decodeAddon(d *Decoder) barscan.Type {
	a := &ean.addon
	pos := a.n // 1 based element index after the gap
	a.n++
	if a.ref == 0 {
		a.stop()
		return barscan.None
	}

	switch {
	case pos == 1 || pos == 2:
		return barscan.None

	case pos == 3:
		// the gap must look like a quiet zone of roughly 5 to 13 modules
		if gap := d.width(3) * 14 / a.ref; gap < 9 || gap > 27 {
			a.stop()
			return barscan.None
		}
		if d.color() != barscan.Bar ||
			decodeE(d.pairWidth(1), a.ref, 7) != 0 ||
			decodeE(d.pairWidth(0), a.ref, 7) != 1 {
			a.stop()
		}
		return barscan.None
	}

	// digits end on elements 7, 13, 19, 25, 31
	switch (pos - 4) % 6 {
	case 3:
		code := ean.decode4(d)
		if code < 0 || a.nd >= len(a.raw) {
			a.stop()
			return barscan.None
		}
		a.raw[a.nd] = eanDigits[code]
		a.nd++
		a.ref = ean.s4
		return barscan.None

	case 4:
		// delineator space or the closing quiet zone
		if (d.width(0)*14+1)/a.ref < 3 {
			if a.nd == 5 {
				a.stop()
			}
			return barscan.None
		}
		a.stop()
		switch a.nd {
		case 2:
			return ean.finishAddon(d, barscan.EAN2)
		case 5:
			return ean.finishAddon(d, barscan.EAN5)
		}
		return barscan.None

	case 5:
		if decodeE(d.pairWidth(0), a.ref, 7) != 0 {
			a.stop()
		}
		return barscan.None
	}
	return barscan.None
}

// finishAddon checks the parity of a complete add-on and reports it
// together with the main symbol it follows.
func (ean *eanDecoder) finishAddon(d *Decoder, kind barscan.Type) barscan.Type {
	a := &ean.addon
	cfg := &ean.ean2
	if kind == barscan.EAN5 {
		cfg = &ean.ean5
	}
	if !cfg.test(barscan.CfgEnable) || ean.last.typ == barscan.None {
		return barscan.None
	}

	var par byte
	digits := a.raw[:a.nd]
	for _, r := range digits {
		par = par<<1 | (r&0x10)>>4
	}

	var want byte
	if kind == barscan.EAN2 {
		want = ean2Parity[(int(digits[0]&0xf)*10+int(digits[1]&0xf))%4]
	} else {
		sum := 3*int(digits[0]&0xf+digits[2]&0xf+digits[4]&0xf) + 9*int(digits[1]&0xf+digits[3]&0xf)
		want = ean5Parity[sum%10]
	}
	if par != want {
		return barscan.None
	}
	if !d.acquire(ean.lockType()) {
		return barscan.Partial
	}

	for i, r := range digits {
		ean.buf[13+i] = int8(r & 0xf)
	}
	d.buf = append(d.buf[:0], ean.last.data...)
	for i := range digits {
		d.buf = append(d.buf, byte(ean.buf[13+i])+'0')
	}
	d.direction = 1
	d.modifiers = 0

	addon := barscan.Addon2
	if kind == barscan.EAN5 {
		addon = barscan.Addon5
	}
	return ean.last.typ.Base() | addon
}
