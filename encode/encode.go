// Package encode produces the module patterns of linear barcodes and
// renders them as images.
package encode

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ericlevine/barscan"
)

// DefaultQuietZone is the blank margin, in modules, added by Render.
const DefaultQuietZone = 10

// Modules is a barcode pattern, one entry per module, true for bars.
type Modules []bool

// appendRuns appends alternating runs of the given widths, starting with a
// bar when bar is set.
func (m Modules) appendRuns(bar bool, widths ...int) Modules {
	for _, w := range widths {
		for range w {
			m = append(m, bar)
		}
		bar = !bar
	}
	return m
}

// Runs returns the widths of the alternating space and bar elements of m
// surrounded by quiet modules of space on each side. The first run is
// always a space.
func (m Modules) Runs(quiet int) []int {
	runs := []int{quiet}
	bar := false
	for _, b := range m {
		if b == bar {
			runs[len(runs)-1]++
			continue
		}
		runs = append(runs, 1)
		bar = b
	}
	if bar {
		runs = append(runs, quiet)
	} else {
		runs[len(runs)-1] += quiet
	}
	return runs
}

// Render draws m with moduleWidth pixels per module and a quiet zone of
// quiet modules on both sides.
func Render(m Modules, moduleWidth, height, quiet int) *image.Gray {
	moduleWidth = max(moduleWidth, 1)
	height = max(height, 1)
	w := (len(m) + 2*quiet) * moduleWidth
	img := image.NewGray(image.Rect(0, 0, w, height))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	for i, bar := range m {
		if !bar {
			continue
		}
		x0 := (quiet + i) * moduleWidth
		for y := 0; y < height; y++ {
			for x := x0; x < x0+moduleWidth; x++ {
				img.SetGray(x, y, color.Gray{})
			}
		}
	}
	return img
}

// Encode returns the modules of data in symbology t. EAN/UPC types take
// digits with or without their check digit; an add-on flag on t takes the
// add-on digits at the end of data. Code128 takes arbitrary bytes.
func Encode(t barscan.Type, data string) (Modules, error) {
	if t.Addon() != 0 {
		n := 2
		if t.Addon() == barscan.Addon5 {
			n = 5
		}
		if len(data) <= n {
			return nil, fmt.Errorf("%w: %s needs more than %d digits", barscan.ErrFormat, t, n)
		}
		main, err := Encode(t.Base(), data[:len(data)-n])
		if err != nil {
			return nil, err
		}
		addon, err := Addon(data[len(data)-n:])
		if err != nil {
			return nil, err
		}
		return WithAddon(main, addon), nil
	}

	switch t {
	case barscan.EAN13, barscan.ISBN13:
		return EAN13(data)
	case barscan.EAN8:
		return EAN8(data)
	case barscan.UPCA:
		return UPCA(data)
	case barscan.UPCE:
		return UPCE(data)
	case barscan.ISBN10:
		return ISBN10(data)
	case barscan.EAN2, barscan.EAN5:
		return Addon(data)
	case barscan.Code128:
		return Code128([]byte(data))
	}
	return nil, fmt.Errorf("%w: cannot encode %s", barscan.ErrUnsupported, t)
}
