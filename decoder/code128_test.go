package decoder

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericlevine/barscan"
	"github.com/ericlevine/barscan/encode"
)

func TestCode128RoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
		want string
	}{
		{"set B", "Hello, World!", "Hello, World!"},
		{"set C", "1234", "1234"},
		{"odd digits", "12345678901", "12345678901"},
		{"set A", "\x01A", "\x01A"},
		{"mixed sets", "AB123456", "AB123456"},
		{"latin1", "caf\xe9", "café"},
		{"extended run", "\xe9\xe8x", "éèx"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := encode.Code128([]byte(tc.data))
			require.NoError(t, err)
			for _, reverse := range []bool{false, true} {
				want := result{typ: barscan.Code128, data: tc.want, dir: 1}
				if reverse {
					want.dir = -1
				}
				assert.Equal(t, []result{want}, feed(t, New(), m, 32, reverse), "reverse=%v", reverse)
			}
		})
	}
}

func TestCode128GS1(t *testing.T) {
	m, err := encode.Code128GS1([]byte("0112345678901231\x1d10ABC"))
	require.NoError(t, err)
	got := feed(t, New(), m, 32, false)
	require.Len(t, got, 1)
	assert.Equal(t, "0112345678901231\x1d10ABC", got[0].data)
	assert.Equal(t, barscan.ModGS1, got[0].mods)
}

func TestCode128RawHighBytes(t *testing.T) {
	d := New()
	require.NoError(t, d.SetConfig(barscan.Code128, barscan.CfgASCII, 0))
	m, err := encode.Code128([]byte("caf\xe9"))
	require.NoError(t, err)
	got := feed(t, d, m, 32, false)
	require.Len(t, got, 1)
	assert.Equal(t, "caf\xe9", got[0].data)
}

func TestCode128Length(t *testing.T) {
	m, err := encode.Code128([]byte("Hi"))
	require.NoError(t, err)

	d := New()
	require.NoError(t, d.SetConfig(barscan.Code128, barscan.CfgMinLen, 3))
	assert.Empty(t, feed(t, d, m, 32, false))

	d = New()
	require.NoError(t, d.SetConfig(barscan.Code128, barscan.CfgMaxLen, 1))
	assert.Empty(t, feed(t, d, m, 32, false))

	d = New()
	require.NoError(t, d.SetConfig(barscan.Code128, barscan.CfgMinLen, 2))
	require.NoError(t, d.SetConfig(barscan.Code128, barscan.CfgMaxLen, 2))
	assert.Len(t, feed(t, d, m, 32, false), 1)
}

func TestCode128BadChecksum(t *testing.T) {
	values, err := encode.Code128Values([]byte("Hi"), false)
	require.NoError(t, err)
	m, err := encode.Code128([]byte("Hj"))
	require.NoError(t, err)
	good, err := encode.Code128([]byte("Hi"))
	require.NoError(t, err)
	// the check character of "Hi" after the data of "Hj"
	check := 11 * (len(values) - 2)
	copy(m[check:check+11], good[check:check+11])
	assert.Empty(t, feed(t, New(), m, 32, false))
}

func TestResolveCode128(t *testing.T) {
	for _, tc := range []struct {
		name  string
		codes []byte
		want  string
		mods  barscan.Modifier
		ok    bool
	}{
		{"set B", []byte{c128StartB, 40, 73}, "Hi", 0, true},
		{"set C", []byte{c128StartC, 12, 34}, "1234", 0, true},
		{"code A", []byte{c128StartB, 33, c128CodeA, 0x41}, "A\x01", 0, true},
		{"shift", []byte{c128StartA, 33, c128Shift, 65, 34}, "AaB", 0, true},
		{"gs1", []byte{c128StartC, c128FNC1, 1, c128FNC1, 10}, "01\x1d10", barscan.ModGS1, true},
		{"aim", []byte{c128StartB, 33, c128FNC1, 16}, "A0", barscan.ModAIM, true},
		{"fnc1 later", []byte{c128StartB, 33, 34, c128FNC1}, "AB\x1d", 0, true},
		{"fnc4 once", []byte{c128StartB, c128CodeB, 33, 33}, "\xc1A", 0, true},
		{"fnc4 latch", []byte{c128StartB, c128CodeB, c128CodeB, 33, 33, c128CodeB, c128CodeB, 33}, "\xc1\xc1A", 0, true},
		{"fnc2 dropped", []byte{c128StartB, c128FNC2, 33}, "A", 0, true},
		{"start inside", []byte{c128StartB, 33, c128StartA}, "", 0, false},
		{"no start", []byte{33, 34}, "", 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, mods, ok := resolveCode128(tc.codes, nil)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, string(out))
				assert.Equal(t, tc.mods, mods)
			}
		})
	}
}

func TestCode128Decode6Table(t *testing.T) {
	// every start character is recognized from either side
	for _, data := range []string{"\x01", "x", "12"} {
		m, err := encode.Code128([]byte(data))
		require.NoError(t, err)
		assert.Len(t, feed(t, New(), m, 32, false), 1, "%q", data)
		assert.Len(t, feed(t, New(), m, 32, true), 1, "%q", data)
	}
}

func TestCode128RoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("encoded bytes decode in both directions", prop.ForAll(
		func(data []byte, reverse bool) bool {
			if len(data) == 0 {
				return true
			}
			m, err := encode.Code128(data)
			if err != nil {
				return false
			}
			d := New()
			if err := d.SetConfig(barscan.Code128, barscan.CfgASCII, 0); err != nil {
				return false
			}
			got := feed(t, d, m, 32, reverse)
			return len(got) == 1 && got[0].data == string(data)
		},
		gen.SliceOfN(24, gen.UInt8()),
		gen.Bool(),
	))
	properties.TestingRun(t)
}

func TestQRFinder(t *testing.T) {
	for _, tc := range []struct {
		name  string
		runs  []uint32
		found bool
	}{
		{"quiet both sides", []uint32{4, 1, 1, 3, 1, 1, 4}, true},
		{"quiet trailing only", []uint32{2, 1, 1, 3, 1, 1, 3}, true},
		{"no quiet zone", []uint32{2, 1, 1, 3, 1, 1, 2}, false},
		{"wrong ratio", []uint32{4, 1, 1, 1, 1, 1, 4}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := New()
			var lines []FinderLine
			d.SetHandler(func(d *Decoder) {
				if d.Type() == barscan.QRCode {
					lines = append(lines, d.FinderLine())
				}
			})
			d.NewScan()
			for _, w := range tc.runs {
				d.DecodeWidth(w * 32)
			}
			if !tc.found {
				assert.Empty(t, lines)
				return
			}
			require.Len(t, lines, 1)
			q := tc.runs[6] * 32
			assert.Equal(t, FinderLine{Start: q + 7*32, Center: q + 2*32 + 48, End: q}, lines[0])
		})
	}
}
