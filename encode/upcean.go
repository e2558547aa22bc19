package encode

import (
	"fmt"

	"github.com/ericlevine/barscan"
)

// lPatterns are the element widths of the odd parity (L) digits, starting
// with a space. Even parity (G) digits use the same widths reversed and
// right hand (R) digits the same widths starting with a bar.
var lPatterns = [10][4]int{
	{3, 2, 1, 1}, // 0
	{2, 2, 2, 1}, // 1
	{2, 1, 2, 2}, // 2
	{1, 4, 1, 1}, // 3
	{1, 1, 3, 2}, // 4
	{1, 2, 3, 1}, // 5
	{1, 1, 1, 4}, // 6
	{1, 3, 1, 2}, // 7
	{1, 2, 1, 3}, // 8
	{3, 1, 1, 2}, // 9
}

// ean13Parity is the parity pattern of the left half, one bit per digit
// from the first, set for even (G) parity, indexed by the leading digit.
var ean13Parity = [10]int{
	0x00, 0x0b, 0x0d, 0x0e, 0x13, 0x19, 0x1c, 0x15, 0x16, 0x1a,
}

// upceParity is the parity pattern of UPC-E number system 0, indexed by
// the check digit.
var upceParity = [10]int{
	0x38, 0x34, 0x32, 0x31, 0x2c, 0x26, 0x23, 0x2a, 0x29, 0x25,
}

// ean5Parity is the EAN-5 parity pattern indexed by its checksum.
var ean5Parity = [10]int{
	0x18, 0x14, 0x12, 0x11, 0x0c, 0x06, 0x03, 0x0a, 0x09, 0x05,
}

// addonGap is the space, in modules, between a symbol and its add-on.
const addonGap = 9

func (m Modules) appendDigit(d int, even, right bool) Modules {
	w := lPatterns[d]
	if even {
		return m.appendRuns(false, w[3], w[2], w[1], w[0])
	}
	return m.appendRuns(right, w[0], w[1], w[2], w[3])
}

// Checksum returns the UPC/EAN mod 10 check digit of digits.
func Checksum(digits string) (int, error) {
	if err := checkDigits(digits); err != nil {
		return 0, err
	}
	sum := 0
	for i := len(digits) - 1; i >= 0; i -= 2 {
		sum += 3 * int(digits[i]-'0')
	}
	for i := len(digits) - 2; i >= 0; i -= 2 {
		sum += int(digits[i] - '0')
	}
	return (10 - sum%10) % 10, nil
}

func checkDigits(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("%w: non-digit %q at %d", barscan.ErrFormat, s[i], i)
		}
	}
	return nil
}

// withCheck validates the length of digits and appends or verifies the
// check digit computed over the digits given by payload.
func withCheck(digits string, n int, payload func(string) string) (string, error) {
	if err := checkDigits(digits); err != nil {
		return "", err
	}
	switch len(digits) {
	case n - 1:
		c, _ := Checksum(payload(digits))
		return digits + string(rune('0'+c)), nil
	case n:
		c, _ := Checksum(payload(digits[:n-1]))
		if int(digits[n-1]-'0') != c {
			return "", fmt.Errorf("%w: check digit %c, want %d", barscan.ErrChecksum, digits[n-1], c)
		}
		return digits, nil
	}
	return "", fmt.Errorf("%w: want %d or %d digits, got %d", barscan.ErrFormat, n-1, n, len(digits))
}

func same(s string) string { return s }

// EAN13 encodes 12 or 13 digits.
func EAN13(digits string) (Modules, error) {
	digits, err := withCheck(digits, 13, same)
	if err != nil {
		return nil, err
	}
	parity := ean13Parity[digits[0]-'0']

	m := make(Modules, 0, 95).appendRuns(true, 1, 1, 1)
	for i := 1; i <= 6; i++ {
		m = m.appendDigit(int(digits[i]-'0'), parity>>(6-i)&1 == 1, false)
	}
	m = m.appendRuns(false, 1, 1, 1, 1, 1)
	for i := 7; i <= 12; i++ {
		m = m.appendDigit(int(digits[i]-'0'), false, true)
	}
	return m.appendRuns(true, 1, 1, 1), nil
}

// UPCA encodes 11 or 12 digits as an EAN-13 with a leading zero.
func UPCA(digits string) (Modules, error) {
	if len(digits) < 11 || len(digits) > 12 {
		return nil, fmt.Errorf("%w: want 11 or 12 digits, got %d", barscan.ErrFormat, len(digits))
	}
	return EAN13("0" + digits)
}

// ISBN10 encodes the 9 or 10 character ISBN-10 as its ISBN-13 (prefix
// 978). The ISBN-10 check character is not part of the symbol.
func ISBN10(isbn string) (Modules, error) {
	switch len(isbn) {
	case 9:
	case 10:
		isbn = isbn[:9]
	default:
		return nil, fmt.Errorf("%w: want 9 or 10 characters, got %d", barscan.ErrFormat, len(isbn))
	}
	return EAN13("978" + isbn)
}

// EAN8 encodes 7 or 8 digits.
func EAN8(digits string) (Modules, error) {
	digits, err := withCheck(digits, 8, same)
	if err != nil {
		return nil, err
	}
	m := make(Modules, 0, 67).appendRuns(true, 1, 1, 1)
	for i := 0; i < 4; i++ {
		m = m.appendDigit(int(digits[i]-'0'), false, false)
	}
	m = m.appendRuns(false, 1, 1, 1, 1, 1)
	for i := 4; i < 8; i++ {
		m = m.appendDigit(int(digits[i]-'0'), false, true)
	}
	return m.appendRuns(true, 1, 1, 1), nil
}

// ExpandUPCE returns the UPC-A digits of a UPC-E number of 7 or 8 digits
// (number system, six data digits, optional check digit).
func ExpandUPCE(upce string) string {
	if len(upce) < 7 {
		return upce
	}
	d := upce[1:7]
	var a string
	switch last := d[5]; last {
	case '0', '1', '2':
		a = d[0:2] + string(last) + "0000" + d[2:5]
	case '3':
		a = d[0:3] + "00000" + d[3:5]
	case '4':
		a = d[0:4] + "00000" + d[4:5]
	default:
		a = d[0:5] + "0000" + string(last)
	}
	a = upce[:1] + a
	if len(upce) >= 8 {
		a += upce[7:8]
	}
	return a
}

// UPCE encodes 7 or 8 digits of number system 0.
func UPCE(digits string) (Modules, error) {
	digits, err := withCheck(digits, 8, ExpandUPCE)
	if err != nil {
		return nil, err
	}
	if digits[0] != '0' {
		return nil, fmt.Errorf("%w: UPC-E number system %c", barscan.ErrUnsupported, digits[0])
	}
	parity := upceParity[digits[7]-'0']

	m := make(Modules, 0, 51).appendRuns(true, 1, 1, 1)
	for i := 1; i <= 6; i++ {
		m = m.appendDigit(int(digits[i]-'0'), parity>>(6-i)&1 == 1, false)
	}
	return m.appendRuns(false, 1, 1, 1, 1, 1, 1), nil
}

// Addon encodes a 2 or 5 digit EAN supplement.
func Addon(digits string) (Modules, error) {
	if err := checkDigits(digits); err != nil {
		return nil, err
	}
	var parity int
	switch len(digits) {
	case 2:
		parity = (int(digits[0]-'0')*10 + int(digits[1]-'0')) % 4
	case 5:
		sum := 0
		for i := 0; i < 5; i++ {
			w := 3
			if i%2 == 1 {
				w = 9
			}
			sum += w * int(digits[i]-'0')
		}
		parity = ean5Parity[sum%10]
	default:
		return nil, fmt.Errorf("%w: add-on of %d digits", barscan.ErrFormat, len(digits))
	}

	n := len(digits)
	m := make(Modules, 0, 4+9*n).appendRuns(true, 1, 1, 2)
	for i := 0; i < n; i++ {
		if i > 0 {
			m = m.appendRuns(false, 1, 1)
		}
		m = m.appendDigit(int(digits[i]-'0'), parity>>(n-1-i)&1 == 1, false)
	}
	return m, nil
}

// WithAddon places addon after main, separated by the standard gap.
func WithAddon(main, addon Modules) Modules {
	m := make(Modules, 0, len(main)+addonGap+len(addon))
	m = append(m, main...)
	for range addonGap {
		m = append(m, false)
	}
	return append(m, addon...)
}
