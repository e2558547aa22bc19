package imgscan

import (
	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/decoder"
)

// symbolHandler receives every decoder result of the current line.
func (s *Scanner) symbolHandler(d *decoder.Decoder) {
	typ := d.Type()
	if typ <= barscan.Partial || s.img == nil {
		return
	}
	if typ == barscan.QRCode {
		s.finderHandler(d)
		return
	}

	data := d.Data()
	pt := s.point(s.lines.Position())
	syms := s.img.Symbols()

	mainType, mainData := typ, data
	if n := addonLen(typ); n > 0 && len(data) > n {
		mainType, mainData = typ.Base(), data[:len(data)-n]
	}

	if sym := syms.Find(typ, data); sym != nil {
		s.seenAgain(sym, pt)
		return
	}
	if mainType != typ {
		// the plain main symbol may already be known from this image
		if sym := syms.Find(mainType, mainData); sym != nil {
			s.attachAddon(sym, typ, data)
			s.seenAgain(sym, pt)
			s.cacheSymbol(sym)
			return
		}
	} else if sym := findComposite(syms, typ, data); sym != nil {
		// main symbol of a composite read without its add-on
		s.seenAgain(sym, pt)
		return
	}

	sym := s.alloc(typ, data)
	sym.Orientation = s.orientation(d.Direction())
	sym.Modifiers = d.Modifiers()
	if s.position {
		sym.AddPoint(pt.X, pt.Y)
	}
	if mainType != typ {
		s.attachAddon(sym, typ, data)
	}
	syms.Append(sym)
	s.cacheSymbol(sym)

	s.metrics.SymbolDecoded(typ.String())
	s.log.Debug("symbol decoded",
		"type", typ.String(), "data", sym.Text(),
		"orientation", sym.Orientation.String(), "x", pt.X, "y", pt.Y)
}

func (s *Scanner) seenAgain(sym *barscan.Symbol, pt barscan.Point) {
	sym.Quality++
	if s.position {
		sym.AddPoint(pt.X, pt.Y)
	}
}

// attachAddon turns sym into the composite of its main symbol and the
// add-on carried at the end of data.
func (s *Scanner) attachAddon(sym *barscan.Symbol, typ barscan.Type, data []byte) {
	n := addonLen(typ)
	main := s.alloc(typ.Base(), data[:len(data)-n])
	addon := s.alloc(addonType(typ), data[len(data)-n:])

	if sym.Components != nil && sym.Components.Ref(-1) <= 0 {
		sym.Components.Clear(s.release)
	}
	sym.Components = barscan.NewSymbolSet()
	sym.Components.Append(main)
	sym.Components.Append(addon)
	sym.Set(typ, data)
}

// findComposite returns the composite whose main part is (typ, data).
func findComposite(syms *barscan.SymbolSet, typ barscan.Type, data []byte) *barscan.Symbol {
	for sym := range syms.All() {
		if sym.Type.Base() != typ || sym.Type.Addon() == 0 || sym.Components == nil {
			continue
		}
		if main := sym.Components.First(); main != nil && main.Matches(typ, data) {
			return sym
		}
	}
	return nil
}

func addonLen(typ barscan.Type) int {
	switch typ.Addon() {
	case barscan.Addon2:
		return 2
	case barscan.Addon5:
		return 5
	}
	return 0
}

func addonType(typ barscan.Type) barscan.Type {
	if typ.Addon() == barscan.Addon5 {
		return barscan.EAN5
	}
	return barscan.EAN2
}

// cacheSymbol runs the inter-frame consistency check for sym.
func (s *Scanner) cacheSymbol(sym *barscan.Symbol) {
	if s.cache == nil {
		sym.CacheCount = 0
		return
	}
	sym.CacheCount = s.cache.sighting(s.time, sym.Type, sym.Data)
	s.metrics.CacheResult(sym.CacheCount, s.cache.len())
	s.log.Debug("cache lookup", "type", sym.Type.String(), "data", sym.Text(), "count", sym.CacheCount)
}

// orientation derives the symbol orientation from the current line and
// the direction the decoder read the symbol in.
func (s *Scanner) orientation(dir int) barscan.Orientation {
	if dir == 0 {
		return barscan.OrientUnknown
	}
	fwd := (dir > 0) != s.line.reverse
	switch {
	case !s.line.vertical && fwd:
		return barscan.OrientUp
	case !s.line.vertical:
		return barscan.OrientDown
	case fwd:
		return barscan.OrientRight
	default:
		return barscan.OrientLeft
	}
}

// finderHandler records a QR finder pattern crossing in image
// coordinates.
func (s *Scanner) finderHandler(d *decoder.Decoder) {
	fl := d.FinderLine()
	u := s.lines.Position()
	at := func(off uint32) barscan.Point {
		if off > u {
			return s.point(0)
		}
		return s.point(u - off)
	}
	s.img.AddFinderLine(barscan.FinderLine{
		Start:    at(fl.Start),
		Center:   at(fl.Center),
		End:      at(fl.End),
		Vertical: s.line.vertical,
	})
	s.metrics.FinderLine()
}
