// Package barscan reads linear barcodes and locates QR finder patterns in
// gray scale images.
//
// The engine works on a stream of bar and space widths: package linescan
// turns image samples into widths, package decoder turns widths into
// symbol data and package imgscan walks whole images, collecting the
// results as Symbols attached to the Image.
package barscan

import "strings"

// Type identifies a symbology. The low byte holds the base symbology, the
// add-on bits record an EAN-2 or EAN-5 supplement read with it.
type Type int

const (
	None      Type = 0
	Partial   Type = 1
	EAN2      Type = 2
	EAN5      Type = 5
	EAN8      Type = 8
	UPCE      Type = 9
	ISBN10    Type = 10
	UPCA      Type = 12
	EAN13     Type = 13
	ISBN13    Type = 14
	Composite Type = 15
	I25       Type = 25
	Code39    Type = 39
	PDF417    Type = 57
	QRCode    Type = 64
	Code128   Type = 128

	// SymbolMask selects the base symbology.
	SymbolMask Type = 0xff
	Addon2     Type = 0x200
	Addon5     Type = 0x500
	// AddonMask selects the add-on flags.
	AddonMask Type = 0x700
)

// Base returns t without add-on flags.
func (t Type) Base() Type {
	return t & SymbolMask
}

// Addon returns the add-on flags of t.
func (t Type) Addon() Type {
	return t & AddonMask
}

// IsEAN reports whether t belongs to the EAN/UPC family.
func (t Type) IsEAN() bool {
	switch t.Base() {
	case EAN2, EAN5, EAN8, UPCE, ISBN10, UPCA, EAN13, ISBN13:
		return true
	}
	return false
}

// String returns the name of the symbology, with a "+2" or "+5" suffix
// when an add-on was read.
func (t Type) String() string {
	var name string
	switch t.Base() {
	case None:
		name = "NONE"
	case Partial:
		name = "PARTIAL"
	case EAN2:
		name = "EAN-2"
	case EAN5:
		name = "EAN-5"
	case EAN8:
		name = "EAN-8"
	case UPCE:
		name = "UPC-E"
	case ISBN10:
		name = "ISBN-10"
	case UPCA:
		name = "UPC-A"
	case EAN13:
		name = "EAN-13"
	case ISBN13:
		name = "ISBN-13"
	case Composite:
		name = "COMPOSITE"
	case I25:
		name = "I2/5"
	case Code39:
		name = "CODE-39"
	case PDF417:
		name = "PDF417"
	case QRCode:
		name = "QR-Code"
	case Code128:
		name = "CODE-128"
	default:
		return "UNKNOWN"
	}
	switch t.Addon() {
	case 0:
	case Addon2:
		name += "+2"
	case Addon5:
		name += "+5"
	default:
		name += "+?"
	}
	return name
}

// ParseType returns the symbology whose configuration name starts with
// prefix, the way config strings abbreviate them ("ean13", "code128",
// "isbn10"). The empty string and "*" select every symbology (None).
func ParseType(prefix string) (Type, bool) {
	prefix = strings.ToLower(prefix)
	if prefix == "" || prefix == "*" {
		return None, true
	}
	for _, n := range typeNames {
		if len(prefix) >= n.min && strings.HasPrefix(n.name, prefix) {
			return n.typ, true
		}
	}
	return None, false
}

var typeNames = []struct {
	name string
	min  int
	typ  Type
}{
	{"upca", 3, UPCA},
	{"upce", 3, UPCE},
	{"ean13", 3, EAN13},
	{"ean8", 3, EAN8},
	{"ean2", 4, EAN2},
	{"ean5", 4, EAN5},
	{"i25", 3, I25},
	{"scanner", 4, Partial},
	{"isbn13", 4, ISBN13},
	{"isbn10", 4, ISBN10},
	{"qrcode", 4, QRCode},
	{"code39", 6, Code39},
	{"pdf417", 6, PDF417},
	{"code128", 7, Code128},
}

// Color is the shade of a barcode element.
type Color int

const (
	Space Color = 0
	Bar   Color = 1
)

func (c Color) String() string {
	if c == Bar {
		return "BAR"
	}
	return "SPACE"
}

// Orientation is the direction a symbol was read in, relative to the
// image.
type Orientation int

const (
	OrientUnknown Orientation = -1
	OrientUp      Orientation = 0
	OrientRight   Orientation = 1
	OrientDown    Orientation = 2
	OrientLeft    Orientation = 3
)

// String returns the XML attribute value for o.
func (o Orientation) String() string {
	switch o {
	case OrientUp:
		return "UP"
	case OrientRight:
		return "RIGHT"
	case OrientDown:
		return "DOWN"
	case OrientLeft:
		return "LEFT"
	default:
		return "UNKNOWN"
	}
}

// Modifier flags qualify how symbol data should be interpreted.
type Modifier uint

const (
	// ModGS1 marks data that started with FNC1 in the first position.
	ModGS1 Modifier = 1 << iota
	// ModAIM marks data that started with FNC1 in the second position.
	ModAIM
)
