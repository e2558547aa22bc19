package barscan

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ss *SymbolSet) []string {
	var out []string
	for sym := range ss.All() {
		out = append(out, sym.Text())
	}
	return out
}

func TestSymbolSet(t *testing.T) {
	ss := NewSymbolSet()
	assert.Equal(t, 0, ss.Len())
	assert.Nil(t, ss.First())

	for _, s := range []string{"a", "b", "c"} {
		ss.Append(NewSymbol(Code128, []byte(s)))
	}
	assert.Equal(t, 3, ss.Len())
	assert.Equal(t, []string{"a", "b", "c"}, collect(ss))
	assert.Equal(t, "b", ss.First().Next().Text())

	assert.NotNil(t, ss.Find(Code128, []byte("c")))
	assert.Nil(t, ss.Find(EAN13, []byte("c")))

	var nilSet *SymbolSet
	assert.Equal(t, 0, nilSet.Len())
	assert.Empty(t, collect(nilSet))
}

func TestSymbolSetFilterReleases(t *testing.T) {
	ss := NewSymbolSet()
	a := NewSymbol(Code128, []byte("a"))
	b := NewSymbol(Code128, []byte("b"))
	c := NewSymbol(Code128, []byte("c"))
	ss.Append(a)
	ss.Append(b)
	ss.Append(c)

	// the caller holds its own reference to b
	b.Ref(1)

	var released []*Symbol
	release := func(s *Symbol) { released = append(released, s) }
	ss.Filter(func(s *Symbol) bool { return s == c }, release)
	assert.Equal(t, []string{"c"}, collect(ss))
	assert.Equal(t, []*Symbol{a}, released)
	assert.Equal(t, 1, b.Ref(0))

	ss.Append(NewSymbol(Code128, []byte("d")))
	assert.Equal(t, []string{"c", "d"}, collect(ss))

	ss.Clear(release)
	assert.Equal(t, 0, ss.Len())
	assert.Nil(t, ss.First())
	assert.Len(t, released, 3)
}

func TestSymbolReset(t *testing.T) {
	sym := NewSymbol(EAN13, []byte("4006381333931"))
	sym.AddPoint(1, 2)
	sym.Quality = 4
	sym.CacheCount = 2
	sym.Components = NewSymbolSet()
	sym.Ref(1)

	sym.Reset()
	assert.Equal(t, None, sym.Type)
	assert.Empty(t, sym.Data)
	assert.Empty(t, sym.Points)
	assert.Zero(t, sym.Quality)
	assert.Zero(t, sym.CacheCount)
	assert.Nil(t, sym.Components)
	assert.Equal(t, OrientUnknown, sym.Orientation)
	assert.Equal(t, 1, sym.Ref(0))

	sym.Set(Code128, []byte("x"))
	assert.True(t, sym.Matches(Code128, []byte("x")))
	assert.False(t, sym.Matches(Code128, []byte("y")))
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(2, 3, 5, 4))
	src.Set(2, 3, color.NRGBA{R: 255, A: 255})
	src.Set(3, 3, color.NRGBA{G: 255, B: 255, A: 255})
	src.Set(4, 3, color.NRGBA{})

	img := FromImage(src)
	require.NoError(t, img.Validate())
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 1, img.Height)
	// (306*255 + 0x200) >> 10
	assert.Equal(t, byte(76), img.At(0, 0))
	// ((601+117)*255 + 0x200) >> 10
	assert.Equal(t, byte(179), img.At(1, 0))
	assert.Equal(t, byte(0xff), img.At(2, 0))
}

func TestFromGrayImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.SetGray(1, 2, color.Gray{Y: 42})
	sub := src.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)

	img := FromImage(sub)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, byte(42), img.At(0, 1))
	assert.Equal(t, 2, img.Stride)
	assert.Len(t, img.Pix, 4)
}

func TestImageValidate(t *testing.T) {
	assert.NoError(t, NewImage(3, 2).Validate())

	var img *Image
	assert.ErrorIs(t, img.Validate(), ErrInvalidImage)
	assert.ErrorIs(t, (&Image{Width: 0, Height: 1}).Validate(), ErrInvalidImage)
	assert.ErrorIs(t, (&Image{Width: 4, Height: 2, Stride: 3, Pix: make([]byte, 8)}).Validate(), ErrInvalidImage)
	assert.ErrorIs(t, (&Image{Width: 4, Height: 2, Stride: 4, Pix: make([]byte, 7)}).Validate(), ErrInvalidImage)
}

func TestImageFinderLines(t *testing.T) {
	img := NewImage(4, 4)
	img.AddFinderLine(FinderLine{Start: Point{0, 1}, Center: Point{2, 1}, End: Point{3, 1}})
	require.Len(t, img.FinderLines(), 1)
	img.ResetFinderLines()
	assert.Empty(t, img.FinderLines())
}
