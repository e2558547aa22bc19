package imgscan

import (
	"context"

	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/linescan"
)

// darkTail is the number of dark samples closing every line, so that the
// trailing quiet zone is measured as a complete space.
const darkTail = 2

// lineState locates the line being scanned.
type lineState struct {
	vertical bool
	// fixed is the row of a horizontal or the column of a vertical line.
	fixed int
	// reverse is set when the line runs towards smaller coordinates.
	reverse bool
	length  int
	pad     int
}

// walk sweeps horizontal lines with alternating direction from top to
// bottom, then vertical lines from left to right.
func (s *Scanner) walk(ctx context.Context) error {
	img := s.img
	if d := s.yDensity; d > 0 {
		reverse := false
		for y := border(img.Height, d); y < img.Height; y += d {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.scanRow(y, reverse)
			reverse = !reverse
		}
	}
	if d := s.xDensity; d > 0 {
		reverse := false
		for x := border(img.Width, d); x < img.Width; x += d {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.scanColumn(x, reverse)
			reverse = !reverse
		}
	}
	return nil
}

// border centers the scan lines: the space left over by the density is
// split between both sides.
func border(n, density int) int {
	return min(((n-1)%density+1)/2, n/2)
}

func (s *Scanner) scanRow(y int, reverse bool) {
	img := s.img
	row := img.Pix[y*img.Stride : y*img.Stride+img.Width]
	s.buf = append(s.buf[:0], row...)
	if reverse {
		reverseBytes(s.buf)
	}
	s.line = lineState{fixed: y, reverse: reverse}
	s.scanLine(s.buf)
}

func (s *Scanner) scanColumn(x int, reverse bool) {
	img := s.img
	s.buf = s.buf[:0]
	for y := 0; y < img.Height; y++ {
		s.buf = append(s.buf, img.Pix[y*img.Stride+x])
	}
	if reverse {
		reverseBytes(s.buf)
	}
	s.line = lineState{vertical: true, fixed: x, reverse: reverse}
	s.scanLine(s.buf)
}

// scanLine feeds one line, framed by synthetic quiet zones, to the
// decoder.
func (s *Scanner) scanLine(line []byte) {
	s.line.length = len(line)
	s.line.pad = max(8, len(line)/32)

	s.hist.Reset()
	s.hist.Add(line)
	t, ok := s.hist.Threshold()
	if !ok {
		t = linescan.DefaultThreshold
	}
	s.lines.SetThreshold(t)
	s.lines.NewScan()
	s.dcode.NewScan()

	for range s.line.pad {
		s.push(0xff)
	}
	for _, v := range line {
		s.push(v)
	}
	for range s.line.pad {
		s.push(0xff)
	}
	for range darkTail {
		s.push(0)
	}
	if e, ok := s.lines.Flush(); ok {
		s.dcode.DecodeWidth(e.Width)
	}
}

func (s *Scanner) push(v byte) {
	if e, ok := s.lines.Push(v); ok {
		s.dcode.DecodeWidth(e.Width)
	}
}

// point converts a position along the current line, in linescan units
// from the start of the padded line, to image coordinates.
func (s *Scanner) point(u uint32) barscan.Point {
	ln := &s.line
	off := int(u/linescan.Subpixel) - ln.pad
	off = max(0, min(off, ln.length-1))
	if ln.reverse {
		off = ln.length - 1 - off
	}
	if ln.vertical {
		return barscan.Point{X: ln.fixed, Y: off}
	}
	return barscan.Point{X: off, Y: ln.fixed}
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
