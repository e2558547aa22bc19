package encode

import (
	"fmt"

	"github.com/ericlevine/barscan"
)

// code128Patterns holds the element widths of every Code 128 character
// value, starting with a bar. The stop character has seven elements.
var code128Patterns = [107][]int{
	{2, 1, 2, 2, 2, 2}, {2, 2, 2, 1, 2, 2}, {2, 2, 2, 2, 2, 1}, {1, 2, 1, 2, 2, 3},
	{1, 2, 1, 3, 2, 2}, {1, 3, 1, 2, 2, 2}, {1, 2, 2, 2, 1, 3}, {1, 2, 2, 3, 1, 2},
	{1, 3, 2, 2, 1, 2}, {2, 2, 1, 2, 1, 3}, {2, 2, 1, 3, 1, 2}, {2, 3, 1, 2, 1, 2},
	{1, 1, 2, 2, 3, 2}, {1, 2, 2, 1, 3, 2}, {1, 2, 2, 2, 3, 1}, {1, 1, 3, 2, 2, 2},
	{1, 2, 3, 1, 2, 2}, {1, 2, 3, 2, 2, 1}, {2, 2, 3, 2, 1, 1}, {2, 2, 1, 1, 3, 2},
	{2, 2, 1, 2, 3, 1}, {2, 1, 3, 2, 1, 2}, {2, 2, 3, 1, 1, 2}, {3, 1, 2, 1, 3, 1},
	{3, 1, 1, 2, 2, 2}, {3, 2, 1, 1, 2, 2}, {3, 2, 1, 2, 2, 1}, {3, 1, 2, 2, 1, 2},
	{3, 2, 2, 1, 1, 2}, {3, 2, 2, 2, 1, 1}, {2, 1, 2, 1, 2, 3}, {2, 1, 2, 3, 2, 1},
	{2, 3, 2, 1, 2, 1}, {1, 1, 1, 3, 2, 3}, {1, 3, 1, 1, 2, 3}, {1, 3, 1, 3, 2, 1},
	{1, 1, 2, 3, 1, 3}, {1, 3, 2, 1, 1, 3}, {1, 3, 2, 3, 1, 1}, {2, 1, 1, 3, 1, 3},
	{2, 3, 1, 1, 1, 3}, {2, 3, 1, 3, 1, 1}, {1, 1, 2, 1, 3, 3}, {1, 1, 2, 3, 3, 1},
	{1, 3, 2, 1, 3, 1}, {1, 1, 3, 1, 2, 3}, {1, 1, 3, 3, 2, 1}, {1, 3, 3, 1, 2, 1},
	{3, 1, 3, 1, 2, 1}, {2, 1, 1, 3, 3, 1}, {2, 3, 1, 1, 3, 1}, {2, 1, 3, 1, 1, 3},
	{2, 1, 3, 3, 1, 1}, {2, 1, 3, 1, 3, 1}, {3, 1, 1, 1, 2, 3}, {3, 1, 1, 3, 2, 1},
	{3, 3, 1, 1, 2, 1}, {3, 1, 2, 1, 1, 3}, {3, 1, 2, 3, 1, 1}, {3, 3, 2, 1, 1, 1},
	{3, 1, 4, 1, 1, 1}, {2, 2, 1, 4, 1, 1}, {4, 3, 1, 1, 1, 1}, {1, 1, 1, 2, 2, 4},
	{1, 1, 1, 4, 2, 2}, {1, 2, 1, 1, 2, 4}, {1, 2, 1, 4, 2, 1}, {1, 4, 1, 1, 2, 2},
	{1, 4, 1, 2, 2, 1}, {1, 1, 2, 2, 1, 4}, {1, 1, 2, 4, 1, 2}, {1, 2, 2, 1, 1, 4},
	{1, 2, 2, 4, 1, 1}, {1, 4, 2, 1, 1, 2}, {1, 4, 2, 2, 1, 1}, {2, 4, 1, 2, 1, 1},
	{2, 2, 1, 1, 1, 4}, {4, 1, 3, 1, 1, 1}, {2, 4, 1, 1, 1, 2}, {1, 3, 4, 1, 1, 1},
	{1, 1, 1, 2, 4, 2}, {1, 2, 1, 1, 4, 2}, {1, 2, 1, 2, 4, 1}, {1, 1, 4, 2, 1, 2},
	{1, 2, 4, 1, 1, 2}, {1, 2, 4, 2, 1, 1}, {4, 1, 1, 2, 1, 2}, {4, 2, 1, 1, 1, 2},
	{4, 2, 1, 2, 1, 1}, {2, 1, 2, 1, 4, 1}, {2, 1, 4, 1, 2, 1}, {4, 1, 2, 1, 2, 1},
	{1, 1, 1, 1, 4, 3}, {1, 1, 1, 3, 4, 1}, {1, 3, 1, 1, 4, 1}, {1, 1, 4, 1, 1, 3},
	{1, 1, 4, 3, 1, 1}, {4, 1, 1, 1, 1, 3}, {4, 1, 1, 3, 1, 1}, {1, 1, 3, 1, 4, 1},
	{1, 1, 4, 1, 3, 1}, {3, 1, 1, 1, 4, 1}, {4, 1, 1, 1, 3, 1}, {2, 1, 1, 4, 1, 2},
	{2, 1, 1, 2, 1, 4}, {2, 1, 1, 2, 3, 2}, {2, 3, 3, 1, 1, 1, 2},
}

// Code 128 character values with a fixed meaning in every code set.
const (
	c128CodeC  = 99
	c128CodeB  = 100
	c128CodeA  = 101
	c128FNC1   = 102
	c128StartA = 103
	c128Stop   = 106
)

// code sets, in the order of the start characters
const (
	setA = iota
	setB
	setC
	setNone = -1
)

// Code128 encodes arbitrary bytes. Bytes from 0x80 are written as FNC4
// extended characters.
func Code128(data []byte) (Modules, error) {
	return encodeCode128(data, false)
}

// Code128GS1 encodes a GS1-128 symbol: a leading FNC1 follows the start
// character and every 0x1d group separator in data becomes an FNC1.
func Code128GS1(data []byte) (Modules, error) {
	return encodeCode128(data, true)
}

// Code128Values returns the character values of the symbol for data,
// including start, check and stop characters.
func Code128Values(data []byte, gs1 bool) ([]int, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty Code 128 message", barscan.ErrFormat)
	}
	e := code128Encoder{set: setNone}
	if gs1 {
		e.switchTo(startSet(data, 0))
		e.emit(c128FNC1)
	}
	for i := 0; i < len(data); {
		c := data[i]
		if gs1 && c == 0x1d {
			if e.set == setNone {
				e.switchTo(setB)
			}
			e.emit(c128FNC1)
			i++
			continue
		}

		if n := digitRun(data, i); n >= 4 || (n >= 2 && (e.set == setC || n == len(data)-i)) {
			if e.set != setC {
				e.switchTo(setC)
			}
			for ; n >= 2; n -= 2 {
				e.emit(int(data[i]-'0')*10 + int(data[i+1]-'0'))
				i += 2
			}
			continue
		}

		lo := c & 0x7f
		want := setB
		if lo < 0x20 || (e.set == setA && lo < 0x60) {
			want = setA
		}
		if e.set != want {
			e.switchTo(want)
		}
		if c >= 0x80 {
			// FNC4 shares its value with the latch to the current set
			e.emit(c128CodeA - e.set)
		}
		if want == setA && lo < 0x20 {
			e.emit(int(lo) + 0x40)
		} else {
			e.emit(int(lo) - 0x20)
		}
		i++
	}

	sum := e.values[0]
	for i, v := range e.values[1:] {
		sum += (i + 1) * v
	}
	values := append(e.values, sum%103, c128Stop)
	return values, nil
}

func encodeCode128(data []byte, gs1 bool) (Modules, error) {
	values, err := Code128Values(data, gs1)
	if err != nil {
		return nil, err
	}
	m := make(Modules, 0, 11*len(values)+2)
	for _, v := range values {
		m = m.appendRuns(true, code128Patterns[v]...)
	}
	return m, nil
}

type code128Encoder struct {
	set    int
	values []int
}

func (e *code128Encoder) emit(v int) {
	e.values = append(e.values, v)
}

func (e *code128Encoder) switchTo(set int) {
	if e.set == setNone {
		e.emit(c128StartA + set)
	} else {
		e.emit(c128CodeA - set)
	}
	e.set = set
}

// startSet picks the code set for a message starting at data[i].
func startSet(data []byte, i int) int {
	if n := digitRun(data, i); n >= 4 || (n >= 2 && n == len(data)-i) {
		return setC
	}
	if i < len(data) && data[i]&0x7f < 0x20 {
		return setA
	}
	return setB
}

func digitRun(data []byte, i int) int {
	n := 0
	for ; i+n < len(data) && data[i+n] >= '0' && data[i+n] <= '9'; n++ {
	}
	return n
}
