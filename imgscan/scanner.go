// Package imgscan scans whole images for barcodes.
//
// A Scanner walks a grid of horizontal and vertical scan lines over the
// image, feeds every line through a linescan.Scanner into a
// decoder.Decoder and collects the results as Symbols attached to the
// image. Results of consecutive images can be filtered through an
// inter-frame cache for video input.
package imgscan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/decoder"
	"github.com/ericlevine/barscan/linescan"
	"github.com/ericlevine/barscan/metrics"
)

// DefaultDensity is the default distance in pixels between scan lines.
const DefaultDensity = 16

// Handler is called after a scan that found at least one symbol.
type Handler func(img *barscan.Image)

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

// WithMetrics records scan activity on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Scanner) { s.metrics = r }
}

// WithClock replaces time.Now as the source of image time stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// Scanner finds barcodes in images. It is not safe for concurrent use;
// Symbols and cache state are reused across calls to Scan.
type Scanner struct {
	dcode *decoder.Decoder
	lines *linescan.Scanner
	hist  linescan.Histogram

	xDensity int
	yDensity int
	position bool

	cacheParams CacheParams
	cache       *cache

	free    []*barscan.Symbol
	handler Handler

	log     *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time

	// per scan state
	img  *barscan.Image
	time time.Time
	line lineState
	buf  []byte
}

// New returns a Scanner with the default decoder configuration, scan
// line density and positions enabled. The cache starts disabled.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		dcode:       decoder.New(),
		lines:       linescan.New(),
		xDensity:    DefaultDensity,
		yDensity:    DefaultDensity,
		position:    true,
		cacheParams: DefaultCacheParams(),
		log:         slog.New(slog.DiscardHandler),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dcode.SetHandler(s.symbolHandler)
	return s
}

// SetHandler installs h and returns the previous handler.
func (s *Scanner) SetHandler(h Handler) Handler {
	prev := s.handler
	s.handler = h
	return prev
}

// SetConfig changes a setting. Symbology settings are passed to the
// decoder; density and position settings apply to the scanner itself and
// take barscan.None as symbology.
func (s *Scanner) SetConfig(sym barscan.Type, cfg barscan.Config, val int) error {
	if cfg < barscan.CfgPosition {
		return s.dcode.SetConfig(sym, cfg, val)
	}
	if sym > barscan.Partial {
		return fmt.Errorf("%w: %s is not a %s setting", barscan.ErrUnsupported, cfg, sym)
	}

	switch cfg {
	case barscan.CfgXDensity, barscan.CfgYDensity:
		if val < 0 {
			return fmt.Errorf("%w: %s must not be negative", barscan.ErrInvalidConfig, cfg)
		}
		if cfg == barscan.CfgXDensity {
			s.xDensity = val
		} else {
			s.yDensity = val
		}
	case barscan.CfgPosition:
		if val != 0 && val != 1 {
			return fmt.Errorf("%w: %s takes 0 or 1, got %d", barscan.ErrInvalidConfig, cfg, val)
		}
		s.position = val == 1
	default:
		return fmt.Errorf("%w: %s", barscan.ErrUnsupported, cfg)
	}
	return nil
}

// Apply applies a parsed configuration setting.
func (s *Scanner) Apply(st barscan.Setting) error {
	return s.SetConfig(st.Symbology, st.Config, st.Value)
}

// Config returns the value of a setting.
func (s *Scanner) Config(sym barscan.Type, cfg barscan.Config) (int, bool) {
	switch cfg {
	case barscan.CfgXDensity:
		return s.xDensity, true
	case barscan.CfgYDensity:
		return s.yDensity, true
	case barscan.CfgPosition:
		if s.position {
			return 1, true
		}
		return 0, true
	}
	return s.dcode.Config(sym, cfg)
}

// EnableCache turns the inter-frame cache on or off. Either way all
// cached entries are dropped.
func (s *Scanner) EnableCache(enable bool) {
	s.cache = nil
	if enable {
		s.cache = newCache(s.cacheParams)
	}
}

// CacheEnabled reports whether the inter-frame cache is on.
func (s *Scanner) CacheEnabled() bool {
	return s.cache != nil
}

// SetCacheParams changes the cache tuning. An enabled cache is restarted.
func (s *Scanner) SetCacheParams(p CacheParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.cacheParams = p
	if s.cache != nil {
		s.cache = newCache(p)
	}
	return nil
}

// CacheParams returns the cache tuning.
func (s *Scanner) CacheParams() CacheParams {
	return s.cacheParams
}

// Recycle releases the symbols of img back to the scanner. Symbols
// still referenced by the caller are only detached.
func (s *Scanner) Recycle(img *barscan.Image) {
	if syms := img.Symbols(); syms != nil {
		syms.Clear(s.release)
	}
	img.ResetFinderLines()
}

// Scan walks img and returns the number of symbols found, not counting
// results the cache still considers unverified. Previous results of img
// are recycled first; the new ones are available from img.Symbols. A
// cancelled ctx stops the walk between scan lines and returns the
// results so far together with the context error.
func (s *Scanner) Scan(ctx context.Context, img *barscan.Image) (int, error) {
	start := s.now()
	if err := img.Validate(); err != nil {
		s.metrics.ImageScanned("invalid", 0, 0)
		return 0, err
	}

	s.Recycle(img)
	if img.Symbols() == nil {
		img.SetSymbols(barscan.NewSymbolSet())
	}
	img.Seq++
	s.img = img
	s.time = start
	defer func() { s.img = nil }()

	err := s.walk(ctx)
	if err == nil {
		s.filterLowQuality()
	}

	n := 0
	for sym := range img.Symbols().All() {
		if sym.CacheCount >= 0 {
			n++
		}
	}

	status := "ok"
	if err != nil {
		status = "cancelled"
		err = fmt.Errorf("scan interrupted: %w", err)
	}
	s.metrics.ImageScanned(status, s.now().Sub(start), n)
	s.log.Debug("image scanned",
		"width", img.Width, "height", img.Height, "seq", img.Seq,
		"symbols", img.Symbols().Len(), "confirmed", n,
		"finder_lines", len(img.FinderLines()))

	if err == nil && img.Symbols().Len() > 0 && s.handler != nil {
		s.handler(img)
	}
	return n, err
}

// filterLowQuality drops linear results seen on fewer than three lines
// when scanning every pixel row or column without the cache. Single line
// EAN hits at full density are mostly misreads.
func (s *Scanner) filterLowQuality() {
	if s.cache != nil || (s.xDensity != 1 && s.yDensity != 1) {
		return
	}
	s.img.Symbols().Filter(func(sym *barscan.Symbol) bool {
		base := sym.Type.Base()
		return base >= barscan.I25 || base <= barscan.Partial || sym.Quality >= 3
	}, s.release)
}

// alloc takes a cleared symbol from the free list.
func (s *Scanner) alloc(t barscan.Type, data []byte) *barscan.Symbol {
	var sym *barscan.Symbol
	if n := len(s.free); n > 0 {
		sym = s.free[n-1]
		s.free = s.free[:n-1]
		sym.Reset()
		sym.Set(t, data)
	} else {
		sym = barscan.NewSymbol(t, data)
	}
	sym.Quality = 1
	sym.Time = s.time
	return sym
}

// release returns an unreferenced symbol and its components to the free
// list.
func (s *Scanner) release(sym *barscan.Symbol) {
	if sym.Components != nil {
		if sym.Components.Ref(-1) <= 0 {
			sym.Components.Clear(s.release)
		}
		sym.Components = nil
	}
	s.free = append(s.free, sym)
}
