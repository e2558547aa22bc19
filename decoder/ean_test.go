package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/barscan"
)

func TestEANRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name   string
		typ    barscan.Type
		data   string
		enable []barscan.Type
		want   result
	}{
		{"ean13", barscan.EAN13, "400638133393", nil,
			result{typ: barscan.EAN13, data: "4006381333931"}},
		{"ean13 second", barscan.EAN13, "590123412345", nil,
			result{typ: barscan.EAN13, data: "5901234123457"}},
		{"ean8", barscan.EAN8, "9638507", nil,
			result{typ: barscan.EAN8, data: "96385074"}},
		{"upca as ean13", barscan.UPCA, "03600029145", nil,
			result{typ: barscan.EAN13, data: "0036000291452"}},
		{"upca", barscan.UPCA, "03600029145", []barscan.Type{barscan.UPCA},
			result{typ: barscan.UPCA, data: "036000291452"}},
		{"upce as ean13", barscan.UPCE, "0123456", nil,
			result{typ: barscan.EAN13, data: "0012345000065"}},
		{"upce", barscan.UPCE, "0123456", []barscan.Type{barscan.UPCE},
			result{typ: barscan.UPCE, data: "01234565"}},
		{"isbn13", barscan.EAN13, "978030640615", []barscan.Type{barscan.ISBN13},
			result{typ: barscan.ISBN13, data: "9780306406157"}},
		{"isbn10", barscan.ISBN10, "030640615", []barscan.Type{barscan.ISBN10},
			result{typ: barscan.ISBN10, data: "0306406152"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := mustEncode(t, tc.typ, tc.data)
			for _, reverse := range []bool{false, true} {
				d := New()
				for _, sym := range tc.enable {
					require.NoError(t, d.SetConfig(sym, barscan.CfgEnable, 1))
				}
				want := tc.want
				want.dir = 1
				if reverse {
					want.dir = -1
				}
				assert.Equal(t, []result{want}, feed(t, d, m, 32, reverse), "reverse=%v", reverse)
			}
		})
	}
}

func TestEAN13SubsetsWithoutEAN13(t *testing.T) {
	for _, tc := range []struct {
		name   string
		typ    barscan.Type
		data   string
		enable barscan.Type
		want   []result
	}{
		{"upca", barscan.UPCA, "03600029145", barscan.UPCA,
			[]result{{typ: barscan.UPCA, data: "036000291452"}}},
		{"isbn13", barscan.EAN13, "978030640615", barscan.ISBN13,
			[]result{{typ: barscan.ISBN13, data: "9780306406157"}}},
		{"isbn10", barscan.ISBN10, "030640615", barscan.ISBN10,
			[]result{{typ: barscan.ISBN10, data: "0306406152"}}},
		{"plain ean13 stays off", barscan.EAN13, "400638133393", barscan.UPCA, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := mustEncode(t, tc.typ, tc.data)
			for _, reverse := range []bool{false, true} {
				d := New()
				require.NoError(t, d.SetConfig(barscan.EAN13, barscan.CfgEnable, 0))
				require.NoError(t, d.SetConfig(tc.enable, barscan.CfgEnable, 1))

				var want []result
				for _, r := range tc.want {
					r.dir = 1
					if reverse {
						r.dir = -1
					}
					want = append(want, r)
				}
				assert.Equal(t, want, feed(t, d, m, 32, reverse), "reverse=%v", reverse)
			}
		})
	}
}

func TestEANWithoutCheckDigit(t *testing.T) {
	d := New()
	require.NoError(t, d.SetConfig(barscan.EAN13, barscan.CfgEmitCheck, 0))
	got := feed(t, d, mustEncode(t, barscan.EAN13, "400638133393"), 32, false)
	require.Len(t, got, 1)
	assert.Equal(t, "400638133393", got[0].data)
}

func TestEANScales(t *testing.T) {
	m := mustEncode(t, barscan.EAN13, "400638133393")
	for _, scale := range []uint32{1, 3, 7, 13, 100} {
		got := feed(t, New(), m, scale, false)
		require.Len(t, got, 1, "scale %d", scale)
		assert.Equal(t, "4006381333931", got[0].data)
	}
}

func TestEANBadChecksum(t *testing.T) {
	m := mustEncode(t, barscan.EAN13, "400638133393")
	// replace the check digit 1 with the 3 before it
	copy(m[85:92], m[78:85])
	assert.Empty(t, feed(t, New(), m, 32, false))
}

func TestEANDisabled(t *testing.T) {
	d := New()
	require.NoError(t, d.SetConfig(barscan.EAN8, barscan.CfgEnable, 0))
	assert.Empty(t, feed(t, d, mustEncode(t, barscan.EAN8, "9638507"), 32, false))
}

func TestEANAddons(t *testing.T) {
	for _, tc := range []struct {
		typ  barscan.Type
		data string
		want barscan.Type
		out  string
	}{
		{barscan.EAN13 | barscan.Addon2, "40063813339312", barscan.EAN13 | barscan.Addon2, "400638133393112"},
		{barscan.EAN13 | barscan.Addon5, "40063813339352495", barscan.EAN13 | barscan.Addon5, "400638133393152495"},
		{barscan.EAN8 | barscan.Addon2, "963850705", barscan.EAN8 | barscan.Addon2, "9638507405"},
	} {
		t.Run(tc.want.String(), func(t *testing.T) {
			m := mustEncode(t, tc.typ, tc.data)

			d := New()
			require.NoError(t, d.SetConfig(barscan.EAN2, barscan.CfgEnable, 1))
			require.NoError(t, d.SetConfig(barscan.EAN5, barscan.CfgEnable, 1))
			got := feed(t, d, m, 32, false)
			require.Len(t, got, 2)
			assert.Equal(t, tc.want.Base(), got[0].typ)
			assert.Equal(t, tc.want, got[1].typ)
			assert.Equal(t, tc.out, got[1].data)
			assert.Equal(t, 1, got[1].dir)

			// supplements are only read in scan direction
			d = New()
			require.NoError(t, d.SetConfig(barscan.EAN2, barscan.CfgEnable, 1))
			require.NoError(t, d.SetConfig(barscan.EAN5, barscan.CfgEnable, 1))
			got = feed(t, d, m, 32, true)
			require.Len(t, got, 1)
			assert.Equal(t, tc.want.Base(), got[0].typ)

			// and ignored unless enabled
			got = feed(t, New(), m, 32, false)
			require.Len(t, got, 1)
			assert.Equal(t, tc.want.Base(), got[0].typ)
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	ean := newEANDecoder()
	for i, c := range "4006381333931" {
		ean.buf[i] = int8(c - '0')
	}
	assert.True(t, ean.verifyChecksum(12))
	ean.buf[12] = 2
	assert.False(t, ean.verifyChecksum(12))

	for i, c := range "96385074" {
		ean.buf[i] = int8(c - '0')
	}
	assert.True(t, ean.verifyChecksum(7))
}

func TestISBN10Check(t *testing.T) {
	ean := newEANDecoder()
	for i, c := range "978080442957" {
		ean.buf[i] = int8(c - '0')
	}
	// 0-8044-2957-X
	assert.Equal(t, byte('X'), ean.isbn10Check())
}
