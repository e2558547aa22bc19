package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	// WebP input; imaging already registers BMP and TIFF
	_ "golang.org/x/image/webp"

	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/imgscan"
	"github.com/ericlevine/barscan/internal/config"
	"github.com/ericlevine/barscan/metrics"
)

// ErrNoSymbols is returned by scan when at least one image held no
// barcode.
var ErrNoSymbols = errors.New("barcode data was not detected in some image(s)")

const notFoundHelp = `
WARNING: barcode data was not detected in some image(s)
  things to check:
    - is the barcode type supported? currently supported symbologies are:
      EAN/UPC (EAN-13, EAN-8, UPC-A, UPC-E, ISBN-10, ISBN-13) and Code 128
    - is the barcode large enough in the image?
    - is the barcode mostly in focus?
    - is there sufficient contrast/illumination?
`

// fileResult is the outcome of scanning one image file.
type fileResult struct {
	path    string
	symbols []*barscan.Symbol
	err     error
}

type scanOptions struct {
	settings []string
	raw      bool
	xml      bool
	quiet    bool
}

func newScanCommand(a *app) *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan FILE...",
		Short: "Scan image files for barcodes",
		Long: `Scan one or more image files and print every decoded barcode.

Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP. JPEG EXIF orientation
is applied before scanning.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}

	f := cmd.Flags()
	f.StringP("format", "f", config.FormatText, "output format (text, raw, xml, table)")
	f.IntP("workers", "j", 4, "number of images scanned in parallel")
	f.Bool("color", true, "color the symbology names of text output")
	f.String("charset", config.CharsetAuto, "character set of symbol data in text and table output (auto, latin1, sjis, ...)")
	f.String("metrics-out", "", "write scan metrics in Prometheus text format to this file")
	f.StringArrayVarP(&opts.settings, "set", "S", nil, "decoder/scanner setting CONFIG[=VALUE], may be repeated")
	f.BoolVar(&opts.raw, "raw", false, "print symbol data without symbology prefix")
	f.BoolVar(&opts.xml, "xml", false, "print results as XML")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "print only symbol data, no summary or warnings")
	cmd.MarkFlagsMutuallyExclusive("raw", "xml")

	v := a.loader.Viper()
	_ = v.BindPFlag("output.format", f.Lookup("format"))
	_ = v.BindPFlag("output.workers", f.Lookup("workers"))
	_ = v.BindPFlag("output.color", f.Lookup("color"))
	_ = v.BindPFlag("output.charset", f.Lookup("charset"))
	_ = v.BindPFlag("output.metrics_file", f.Lookup("metrics-out"))
	return cmd
}

func (a *app) runScan(ctx context.Context, stdout, stderr io.Writer, files []string, opts scanOptions) error {
	cfg := *a.cfg
	cfg.Scanner.Settings = append(append([]string(nil), cfg.Scanner.Settings...), opts.settings...)
	switch {
	case opts.raw:
		cfg.Output.Format = config.FormatRaw
	case opts.xml:
		cfg.Output.Format = config.FormatXML
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := a.log.With("run", uuid.NewString())
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	start := time.Now()
	results, err := scanFiles(ctx, &cfg, log, rec, files)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	p := &printer{
		w:       stdout,
		format:  cfg.Output.Format,
		color:   cfg.Output.Color,
		charset: cfg.Output.Charset,
	}
	if err := p.print(results); err != nil {
		return err
	}

	if cfg.Output.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.Output.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	var failed, notFound, symbols int
	for _, r := range results {
		switch {
		case r.err != nil:
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", r.path, r.err)
		case len(r.symbols) == 0:
			notFound++
		}
		symbols += len(r.symbols)
	}
	if !opts.quiet {
		fmt.Fprintf(stderr, "scanned %s barcode symbols from %s images in %s\n",
			humanize.Comma(int64(symbols)), humanize.Comma(int64(len(results)-failed)),
			humanize.SIWithDigits(elapsed.Seconds(), 1, "s"))
	}
	log.Info("scan finished", "images", len(results), "symbols", symbols,
		"failed", failed, "not_found", notFound, "elapsed", elapsed)

	switch {
	case failed > 0:
		return fmt.Errorf("%d of %d images could not be scanned", failed, len(results))
	case notFound > 0:
		if !opts.quiet {
			fmt.Fprint(stderr, notFoundHelp)
		}
		return ErrNoSymbols
	}
	return nil
}

// scanFiles scans files concurrently, one Scanner per file. Results keep
// the order of files.
func scanFiles(ctx context.Context, cfg *config.Config, log *slog.Logger, rec *metrics.Recorder, files []string) ([]fileResult, error) {
	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Output.Workers)

	for i, path := range files {
		g.Go(func() error {
			syms, err := scanFile(gctx, cfg, log.With("file", path), rec, path)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			results[i] = fileResult{path: path, symbols: syms, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanFile(ctx context.Context, cfg *config.Config, log *slog.Logger, rec *metrics.Recorder, path string) ([]*barscan.Symbol, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	s := imgscan.New(imgscan.WithLogger(log), imgscan.WithMetrics(rec))
	if err := cfg.Apply(s); err != nil {
		return nil, err
	}
	img := barscan.FromImage(src)
	if _, err := s.Scan(ctx, img); err != nil {
		return nil, err
	}

	var syms []*barscan.Symbol
	for sym := range img.Symbols().All() {
		syms = append(syms, sym)
	}
	log.Debug("image scanned", "width", img.Width, "height", img.Height,
		"pixels", humanize.Comma(int64(img.Width*img.Height)), "symbols", len(syms))
	return syms, nil
}
