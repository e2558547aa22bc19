package barscan

import (
	"fmt"
	"image"
)

// FinderLine is a QR finder pattern crossing found along one scan line,
// in image coordinates. Start and End bound the pattern, Center is the
// middle of the 3 module wide center bar.
type FinderLine struct {
	Start, Center, End Point
	Vertical           bool
}

// Image is an 8 bit gray scale raster with the results of its last scan.
type Image struct {
	Width, Height int
	Stride        int
	Pix           []byte

	// Seq is the frame sequence number, incremented on every scan.
	Seq int

	syms    *SymbolSet
	finders []FinderLine
}

// NewImage allocates a blank (white) w x h image.
func NewImage(w, h int) *Image {
	pix := make([]byte, w*h)
	for i := range pix {
		pix[i] = 0xff
	}
	return &Image{Width: w, Height: h, Stride: w, Pix: pix}
}

// FromImage converts img to gray scale using the fixed point luminance
// formula (306*R + 601*G + 117*B + 0x200) >> 10 on 8 bit components.
// Fully transparent pixels become white. Gray images are copied directly.
func FromImage(img image.Image) *Image {
	if g, ok := img.(*image.Gray); ok {
		return fromGray(g)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if a == 0 {
				pix[y*w+x] = 0xff
				continue
			}
			r8, g8, b8 := r>>8, g>>8, b>>8
			pix[y*w+x] = byte((306*r8 + 601*g8 + 117*b8 + 0x200) >> 10)
		}
	}
	return &Image{Width: w, Height: h, Stride: w, Pix: pix}
}

func fromGray(img *image.Gray) *Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(pix[y*w:], img.Pix[off:off+w])
	}
	return &Image{Width: w, Height: h, Stride: w, Pix: pix}
}

// Validate checks that the pixel buffer covers the image geometry.
func (img *Image) Validate() error {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if img.Stride < img.Width {
		return fmt.Errorf("%w: stride %d smaller than width %d", ErrInvalidImage, img.Stride, img.Width)
	}
	if need := (img.Height-1)*img.Stride + img.Width; len(img.Pix) < need {
		return fmt.Errorf("%w: buffer holds %d bytes, need %d", ErrInvalidImage, len(img.Pix), need)
	}
	return nil
}

// At returns the sample at (x, y).
func (img *Image) At(x, y int) byte {
	return img.Pix[y*img.Stride+x]
}

// Symbols returns the results of the last scan. The set is nil before
// the first scan.
func (img *Image) Symbols() *SymbolSet {
	return img.syms
}

// SetSymbols replaces the result set. The image takes over the caller's
// reference to syms.
func (img *Image) SetSymbols(syms *SymbolSet) {
	img.syms = syms
}

// FinderLines returns the QR finder pattern crossings found by the last
// scan.
func (img *Image) FinderLines() []FinderLine {
	return img.finders
}

// AddFinderLine records a finder pattern crossing.
func (img *Image) AddFinderLine(fl FinderLine) {
	img.finders = append(img.finders, fl)
}

// ResetFinderLines drops recorded finder lines, keeping the buffer.
func (img *Image) ResetFinderLines() {
	img.finders = img.finders[:0]
}
