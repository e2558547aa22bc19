package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/barscan"
)

func widths(m Modules) []int {
	runs := m.Runs(0)
	// drop the empty leading space and trailing quiet run
	return runs[1 : len(runs)-1]
}

func TestRuns(t *testing.T) {
	m := Modules{true, true, false, true}
	assert.Equal(t, []int{3, 2, 1, 1, 3}, m.Runs(3))

	m = Modules{true, false}
	assert.Equal(t, []int{2, 1, 3}, m.Runs(2))
}

func TestChecksum(t *testing.T) {
	for _, tc := range []struct {
		digits string
		want   int
	}{
		{"400638133393", 1},
		{"590123412345", 7},
		{"9638507", 4},
		{"03600029145", 2},
	} {
		got, err := Checksum(tc.digits)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.digits)
	}
	_, err := Checksum("12a")
	assert.ErrorIs(t, err, barscan.ErrFormat)
}

func TestEAN13(t *testing.T) {
	m, err := EAN13("400638133393")
	require.NoError(t, err)
	assert.Len(t, m, 95)

	full, err := EAN13("4006381333931")
	require.NoError(t, err)
	assert.Equal(t, m, full)

	_, err = EAN13("4006381333932")
	assert.ErrorIs(t, err, barscan.ErrChecksum)
	_, err = EAN13("40063813339")
	assert.ErrorIs(t, err, barscan.ErrFormat)

	// start guard, then digit 0 with odd parity
	assert.Equal(t, []int{1, 1, 1, 3, 2, 1, 1}, widths(m)[:7])
}

func TestEAN8(t *testing.T) {
	m, err := EAN8("9638507")
	require.NoError(t, err)
	assert.Len(t, m, 67)
}

func TestUPCE(t *testing.T) {
	assert.Equal(t, "012345000065", ExpandUPCE("01234565"))
	assert.Equal(t, "01220000345", ExpandUPCE("0123452"))
	assert.Equal(t, "01230000045", ExpandUPCE("0123453"))
	assert.Equal(t, "01234000005", ExpandUPCE("0123454"))

	m, err := UPCE("0123456")
	require.NoError(t, err)
	assert.Len(t, m, 51)

	_, err = UPCE("1234565")
	assert.ErrorIs(t, err, barscan.ErrUnsupported)
}

func TestAddon(t *testing.T) {
	m, err := Addon("12")
	require.NoError(t, err)
	assert.Len(t, m, 20)

	m, err = Addon("52495")
	require.NoError(t, err)
	assert.Len(t, m, 47)

	_, err = Addon("123")
	assert.ErrorIs(t, err, barscan.ErrFormat)
}

func TestEncodeWithAddon(t *testing.T) {
	m, err := Encode(barscan.EAN13|barscan.Addon5, "400638133393152495")
	require.NoError(t, err)
	assert.Len(t, m, 95+addonGap+47)

	_, err = Encode(barscan.EAN13|barscan.Addon2, "12")
	assert.ErrorIs(t, err, barscan.ErrFormat)
	_, err = Encode(barscan.QRCode, "x")
	assert.ErrorIs(t, err, barscan.ErrUnsupported)
}

func TestCode128Values(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
		gs1  bool
		want []int
	}{
		// START B, H, i, check, STOP
		{"set B", "Hi", false, []int{104, 40, 73, 84, 106}},
		{"set C", "1234", false, []int{105, 12, 34, 82, 106}},
		{"set A", "\x01A", false, []int{103, 65, 33, 28, 106}},
		{"digits after text", "AB123456", false, []int{104, 33, 34, 99, 12, 34, 56, 26, 106}},
		{"gs1", "0112", true, []int{105, 102, 1, 12, 39, 106}},
		{"extended", "\xe9", false, []int{104, 100, 73, 41, 106}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Code128Values([]byte(tc.data), tc.gs1)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Code128Values(nil, false)
	assert.ErrorIs(t, err, barscan.ErrFormat)
}

func TestCode128Modules(t *testing.T) {
	m, err := Code128([]byte("Hi"))
	require.NoError(t, err)
	// three 11 module characters, a check character and a 13 module stop
	assert.Len(t, m, 4*11+13)
	assert.True(t, m[0])
	assert.True(t, m[len(m)-1])
}

func TestRender(t *testing.T) {
	m := Modules{true, false, true}
	img := Render(m, 2, 3, 1)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	assert.Equal(t, uint8(0xff), img.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), img.GrayAt(2, 1).Y)
	assert.Equal(t, uint8(0), img.GrayAt(3, 1).Y)
	assert.Equal(t, uint8(0xff), img.GrayAt(4, 2).Y)
	assert.Equal(t, uint8(0), img.GrayAt(6, 2).Y)
}
