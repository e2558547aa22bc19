package cmd

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/charset"
	"github.com/ericlevine/barscan/internal/config"
)

const (
	xmlHead = "<barcodes xmlns='http://zbar.sourceforge.net/2008/barcode'>\n"
	xmlFoot = "</barcodes>\n"
)

// printer writes scan results in one of the output formats.
type printer struct {
	w      io.Writer
	format string
	color  bool
	// charset is config.CharsetAuto or a name known to charset.Lookup.
	charset string
}

func (p *printer) print(results []fileResult) error {
	bw := bufio.NewWriter(p.w)
	switch p.format {
	case config.FormatText:
		p.text(bw, results)
	case config.FormatRaw:
		for _, r := range results {
			for _, sym := range r.symbols {
				bw.Write(sym.Data)
				bw.WriteByte('\n')
			}
		}
	case config.FormatXML:
		p.xml(bw, results)
	case config.FormatTable:
		p.table(bw, results)
	default:
		return fmt.Errorf("unknown output format %q", p.format)
	}
	return bw.Flush()
}

// text prints TYPE:DATA lines, composites as EAN-13+5:DATA.
func (p *printer) text(w *bufio.Writer, results []fileResult) {
	name := color.New(color.FgCyan, color.Bold)
	if !p.color {
		name.DisableColor()
	}
	for _, r := range results {
		for _, sym := range r.symbols {
			name.Fprint(w, sym.Type.String())
			w.WriteByte(':')
			w.WriteString(p.display(sym.Data))
			w.WriteByte('\n')
		}
	}
}

func (p *printer) xml(w *bufio.Writer, results []fileResult) {
	w.WriteString(xmlHead)
	var buf []byte
	for _, r := range results {
		if r.err != nil {
			continue
		}
		fmt.Fprintf(w, "<source href='%s'>\n", html.EscapeString(r.path))
		if len(r.symbols) > 0 {
			// still images carry a single frame
			w.WriteString("<index num='0'>\n")
			for _, sym := range r.symbols {
				buf = sym.AppendXML(buf[:0])
				w.Write(buf)
				w.WriteByte('\n')
			}
			w.WriteString("</index>\n")
		}
		w.WriteString("</source>\n")
	}
	w.WriteString(xmlFoot)
}

func (p *printer) table(w *bufio.Writer, results []fileResult) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Type", "Data", "Quality", "Orientation", "Position"})

	total := 0
	for _, r := range results {
		for _, sym := range r.symbols {
			tbl.AppendRow(table.Row{
				r.path, sym.Type.String(), strconv.Quote(p.display(sym.Data)),
				sym.Quality, sym.Orientation.String(), position(sym),
			})
			total++
		}
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d symbols", total)})
	w.WriteString(tbl.Render())
	w.WriteByte('\n')
}

// display converts symbol data to UTF-8 for text and table output.
func (p *printer) display(data []byte) string {
	if p.charset == config.CharsetAuto {
		if utf8.Valid(data) {
			return string(data)
		}
		return charset.DecodeBytes(data, charset.Guess(data))
	}
	cs, _ := charset.Lookup(p.charset)
	return charset.DecodeBytes(data, cs)
}

// position returns the first hit of sym, or "-" without positions.
func position(sym *barscan.Symbol) string {
	if len(sym.Points) == 0 {
		return "-"
	}
	pt := sym.Points[0]
	return fmt.Sprintf("%d,%d", pt.X, pt.Y)
}
