package decoder

import "github.com/ericlevine/barscan"

// FinderLine locates a QR finder pattern crossing along the scan line.
// Each field is the distance, in width units, from the most recent edge
// back to the outer edge where the pattern starts, its center and the
// outer edge where it ends.
type FinderLine struct {
	Start  uint32
	Center uint32
	End    uint32
}

// qrFinder recognizes the 1:1:3:1:1 bar pattern of a QR code finder. It
// never takes the buffer lock.
type qrFinder struct {
	// s5 is the width of the last five elements.
	s5   uint32
	line FinderLine
	cfg  settings
}

func newQRFinder() *qrFinder {
	return &qrFinder{cfg: settings{flags: 1 << barscan.CfgEnable}}
}

func (q *qrFinder) newScan() { q.s5 = 0 }

func (q *qrFinder) reset() {
	q.s5 = 0
	q.line = FinderLine{}
}

func (q *qrFinder) enabled() bool {
	return q.cfg.test(barscan.CfgEnable)
}

func (q *qrFinder) lockType() barscan.Type {
	return barscan.QRCode
}

func (q *qrFinder) settings(sym barscan.Type) *settings {
	if sym == barscan.QRCode {
		return &q.cfg
	}
	return nil
}

// decode checks the five elements preceding the current space. The
// current space and the one before the pattern are its quiet zones.
func (q *qrFinder) decode(d *Decoder) barscan.Type {
	q.s5 -= d.width(6)
	q.s5 += d.width(1)
	s := q.s5
	if d.color() != barscan.Space || s < 7 {
		return barscan.None
	}

	if decodeE(d.pairWidth(1), s, 7) != 0 ||
		decodeE(d.pairWidth(2), s, 7) != 2 ||
		decodeE(d.pairWidth(3), s, 7) != 2 ||
		decodeE(d.pairWidth(4), s, 7) != 0 {
		return barscan.None
	}

	// at least one side needs a full three module quiet zone
	if quietModules(d.width(6), s) < 3 && quietModules(d.width(0), s) < 3 {
		return barscan.None
	}

	w0, w1, w2, w3 := d.width(0), d.width(1), d.width(2), d.width(3)
	q.line = FinderLine{
		Start:  w0 + d.calcS(1, 5),
		Center: w0 + w1 + w2 + (w3+1)/2,
		End:    w0,
	}
	return barscan.QRCode
}

// quietModules returns the width of a quiet zone in modules of a seven
// module pattern of width s. A zero width is the end of the line and
// counts as wide.
func quietModules(w, s uint32) uint32 {
	if w == 0 {
		return 4
	}
	return (w + 1) * 7 / s
}
