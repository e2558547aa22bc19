// Package decoder turns a stream of bar and space widths into symbol data.
//
// A Decoder keeps a short history of element widths and feeds every new
// width to each enabled symbology state machine. The machines share one
// output buffer guarded by a single writer lock: a machine that completes
// a symbol while another one owns the buffer reports barscan.Partial.
package decoder

import (
	"errors"
	"fmt"

	"github.com/ericlevine/barscan"
)

const (
	// windowSize is the number of recent widths kept. It must be a power
	// of two and cover the longest look-back of any symbology.
	windowSize = 16

	bufferMin  = 0x20
	bufferMax  = 0x100
	bufferIncr = 0x10
)

// Handler is called after every width that produced a result other than
// barscan.None, before the buffer lock is released.
type Handler func(d *Decoder)

// symbologyDecoder is one symbology state machine.
type symbologyDecoder interface {
	// decode consumes the newest width of d.
	decode(d *Decoder) barscan.Type
	// newScan drops per scan line state.
	newScan()
	// reset drops all state.
	reset()
	enabled() bool
	// settings returns the configuration of sym, or nil when sym is not
	// handled by this decoder.
	settings(sym barscan.Type) *settings
	// lockType is the owner recorded when the decoder takes the lock.
	lockType() barscan.Type
}

// settings holds the configuration of one symbology.
type settings struct {
	flags  uint32
	minLen int
	maxLen int
}

func (s *settings) test(cfg barscan.Config) bool {
	return s.flags>>uint(cfg)&1 != 0
}

func (s *settings) set(cfg barscan.Config, val int) error {
	switch {
	case cfg.IsBool():
		switch val {
		case 0:
			s.flags &^= 1 << uint(cfg)
		case 1:
			s.flags |= 1 << uint(cfg)
		default:
			return fmt.Errorf("%w: %s takes 0 or 1, got %d", barscan.ErrInvalidConfig, cfg, val)
		}
	case cfg == barscan.CfgMinLen:
		s.minLen = val
	case cfg == barscan.CfgMaxLen:
		s.maxLen = val
	default:
		return fmt.Errorf("%w: %s", barscan.ErrUnsupported, cfg)
	}
	return nil
}

func (s *settings) get(cfg barscan.Config) (int, bool) {
	switch {
	case cfg.IsBool():
		if s.test(cfg) {
			return 1, true
		}
		return 0, true
	case cfg == barscan.CfgMinLen:
		return s.minLen, true
	case cfg == barscan.CfgMaxLen:
		return s.maxLen, true
	}
	return 0, false
}

// Decoder is a multi-symbology bar width decoder. It is not safe for
// concurrent use.
type Decoder struct {
	idx uint8
	w   [windowSize]uint32

	typ       barscan.Type
	lock      barscan.Type
	direction int
	modifiers barscan.Modifier

	buf []byte

	ean     *eanDecoder
	code128 *code128Decoder
	qrf     *qrFinder

	symbologies []symbologyDecoder
	handler     Handler
}

// New returns a Decoder with the default configuration: EAN-13, EAN-8,
// Code128 and the QR finder enabled, check digits emitted.
func New() *Decoder {
	d := &Decoder{
		buf:     make([]byte, 0, bufferMin),
		ean:     newEANDecoder(),
		code128: newCode128Decoder(),
		qrf:     newQRFinder(),
	}
	d.symbologies = []symbologyDecoder{d.ean, d.code128, d.qrf}
	d.Reset()
	return d
}

// SetHandler installs h and returns the previous handler.
func (d *Decoder) SetHandler(h Handler) Handler {
	prev := d.handler
	d.handler = h
	return prev
}

// Reset drops all decoder state, including partially assembled symbols.
func (d *Decoder) Reset() {
	d.idx = 0
	d.w = [windowSize]uint32{}
	d.typ = barscan.None
	d.lock = barscan.None
	d.direction = 0
	d.modifiers = 0
	for _, s := range d.symbologies {
		s.reset()
	}
}

// NewScan marks the start of a new scan line. Symbol halves collected on
// earlier lines are kept.
func (d *Decoder) NewScan() {
	d.w = [windowSize]uint32{}
	d.lock = barscan.None
	d.idx = 0
	for _, s := range d.symbologies {
		s.newScan()
	}
}

// DecodeWidth processes the width of the next element and returns the
// type of anything decoded: barscan.None, barscan.Partial, or a
// confirmed symbology whose data is available from Data until the next
// call.
func (d *Decoder) DecodeWidth(w uint32) barscan.Type {
	d.w[d.idx&(windowSize-1)] = w
	d.typ = barscan.None

	var owner symbologyDecoder
	for _, s := range d.symbologies {
		if !s.enabled() {
			continue
		}
		sym := s.decode(d)
		// the first confirmed result wins, the lock keeps others out
		if (sym > barscan.Partial && d.typ <= barscan.Partial) ||
			(sym == barscan.Partial && d.typ == barscan.None) {
			d.typ = sym
			owner = s
		}
	}

	d.idx++
	if d.typ != barscan.None {
		if d.handler != nil {
			d.handler(d)
		}
		if d.typ > barscan.Partial && owner != nil {
			d.release(owner.lockType())
		}
	}
	return d.typ
}

// Type returns the result of the last DecodeWidth.
func (d *Decoder) Type() barscan.Type {
	return d.typ
}

// Data returns the decoded data of the last confirmed symbol. The slice
// is reused by later calls.
func (d *Decoder) Data() []byte {
	return d.buf
}

// Color returns the color of the most recently decoded element.
func (d *Decoder) Color() barscan.Color {
	return barscan.Color((d.idx - 1) & 1)
}

// Direction returns 1 when the last symbol was read in scan direction,
// -1 when it was read backwards and 0 when unknown.
func (d *Decoder) Direction() int {
	return d.direction
}

// Modifiers returns the data modifiers of the last symbol.
func (d *Decoder) Modifiers() barscan.Modifier {
	return d.modifiers
}

// FinderLine returns the offsets of the last QR finder pattern, valid
// when the last result was barscan.QRCode.
func (d *Decoder) FinderLine() FinderLine {
	return d.qrf.line
}

// SetConfig changes a setting of sym. barscan.None applies the setting to
// every symbology.
func (d *Decoder) SetConfig(sym barscan.Type, cfg barscan.Config, val int) error {
	if sym == barscan.None {
		for _, t := range configurable {
			s := d.settings(t)
			if s == nil {
				continue
			}
			// settings that do not apply to every symbology are skipped
			if err := s.set(cfg, val); err != nil && !errors.Is(err, barscan.ErrUnsupported) {
				return err
			}
		}
		return nil
	}
	s := d.settings(sym)
	if s == nil {
		return fmt.Errorf("%w: %s has no decoder", barscan.ErrUnsupported, sym)
	}
	if !cfg.IsBool() && sym.Base() != barscan.Code128 {
		return fmt.Errorf("%w: %s for %s", barscan.ErrUnsupported, cfg, sym)
	}
	return s.set(cfg, val)
}

// Config returns the value of a setting of sym.
func (d *Decoder) Config(sym barscan.Type, cfg barscan.Config) (int, bool) {
	s := d.settings(sym)
	if s == nil {
		return 0, false
	}
	return s.get(cfg)
}

// configurable lists every symbology with settings, in the order a
// wildcard setting is applied.
var configurable = []barscan.Type{
	barscan.EAN13, barscan.EAN8, barscan.UPCA, barscan.UPCE,
	barscan.ISBN10, barscan.ISBN13, barscan.EAN2, barscan.EAN5,
	barscan.Code128, barscan.QRCode,
}

func (d *Decoder) settings(sym barscan.Type) *settings {
	for _, s := range d.symbologies {
		if cfg := s.settings(sym.Base()); cfg != nil {
			return cfg
		}
	}
	return nil
}

// width returns the width off elements back from the current one.
func (d *Decoder) width(off uint8) uint32 {
	return d.w[(d.idx-off)&(windowSize-1)]
}

// pairWidth returns the combined width of elements off and off+1.
func (d *Decoder) pairWidth(off uint8) uint32 {
	return d.width(off) + d.width(off+1)
}

// calcS sums n widths starting off elements back.
func (d *Decoder) calcS(off, n uint8) uint32 {
	var s uint32
	for ; n > 0; n-- {
		s += d.width(off)
		off++
	}
	return s
}

// color returns the color of the element being decoded.
func (d *Decoder) color() barscan.Color {
	return barscan.Color(d.idx & 1)
}

// acquire takes the buffer lock for owner.
func (d *Decoder) acquire(owner barscan.Type) bool {
	if d.lock != barscan.None {
		return false
	}
	d.lock = owner
	return true
}

func (d *Decoder) release(owner barscan.Type) {
	if d.lock == owner {
		d.lock = barscan.None
	}
}

// sizeBuf makes room for n bytes of output. It fails when n exceeds the
// buffer cap.
func (d *Decoder) sizeBuf(n int) bool {
	if n <= cap(d.buf) {
		d.buf = d.buf[:n]
		return true
	}
	if n > bufferMax {
		return false
	}
	size := max(n, min(cap(d.buf)+bufferIncr, bufferMax))
	buf := make([]byte, n, size)
	copy(buf, d.buf)
	d.buf = buf
	return true
}
