package barscan

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolXML(t *testing.T) {
	sym := NewSymbol(EAN13, []byte("4006381333931"))
	sym.Quality = 2
	sym.Orientation = OrientUp
	assert.Equal(t,
		"<symbol type='EAN-13' quality='2' orientation='UP'><data><![CDATA[4006381333931]]></data></symbol>",
		sym.XML())

	sym.CacheCount = -2
	assert.Equal(t,
		"<symbol type='EAN-13' quality='2' orientation='UP' count='-2'><data><![CDATA[4006381333931]]></data></symbol>",
		sym.XML())
}

func TestSymbolXMLComposite(t *testing.T) {
	sym := NewSymbol(EAN13|Addon5, []byte("400638133393152495"))
	sym.Quality = 1
	sym.Orientation = OrientLeft
	assert.Equal(t,
		"<symbol type='EAN-13+5' quality='1' orientation='LEFT'><data><![CDATA[400638133393152495]]></data></symbol>",
		sym.XML())
}

func TestSymbolXMLBinary(t *testing.T) {
	data := []byte("a\x00b")
	sym := NewSymbol(Code128, data)
	sym.Quality = 1
	got := sym.XML()
	assert.Equal(t,
		"<symbol type='CODE-128' quality='1' orientation='UNKNOWN'><data format='base64' length='3'><![CDATA[\nYQBi\n]]></data></symbol>",
		got)

	start := strings.Index(got, "<![CDATA[") + len("<![CDATA[")
	end := strings.Index(got, "]]>")
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(got[start:end], "\n", ""))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestSymbolXMLWrapsBase64(t *testing.T) {
	data := bytes.Repeat([]byte{0}, 2*base64LineBytes+1)
	sym := NewSymbol(Code128, data)
	got := sym.XML()
	start := strings.Index(got, "<![CDATA[") + len("<![CDATA[\n")
	end := strings.Index(got, "]]>")
	lines := strings.Split(got[start:end], "\n")
	require.Len(t, lines, 4)
	assert.Len(t, lines[0], 76)
	assert.Len(t, lines[1], 76)
	assert.Equal(t, "AA==", lines[2])
	assert.Empty(t, lines[3])
}

func TestIsBinary(t *testing.T) {
	for _, tc := range []struct {
		data string
		want bool
	}{
		{"plain text", false},
		{"tab\tnewline\ncr\r", false},
		{"café", false},
		{"nul\x00", true},
		{"gs\x1d", true},
		{"\xff\xfebom", true},
		{"\xfe\xffbom", true},
		{"<?xml version", true},
		{"a]]>b", true},
		{"a]]b", false},
		{"c1\xc2\x85", true},
	} {
		assert.Equal(t, tc.want, isBinary([]byte(tc.data)), "%q", tc.data)
	}
}
