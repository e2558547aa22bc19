// Package linescan converts a line of gray samples into alternating space
// and bar widths.
package linescan

import "github.com/ericlevine/barscan"

// Subpixel is the number of width units per sample.
const Subpixel = 32

// DefaultThreshold separates dark from light samples until SetThreshold
// is called.
const DefaultThreshold = 128

// Edge is one completed element: its color and its width in 1/Subpixel
// sample units.
type Edge struct {
	Color barscan.Color
	Width uint32
}

// Scanner locates edges between dark and light samples with sub-sample
// precision by interpolating where the threshold is crossed. Every line
// starts with a space; a line starting dark yields a minimal space first.
type Scanner struct {
	threshold byte

	n        uint32 // samples pushed on this line
	prev     byte
	color    barscan.Color
	lastEdge uint32
}

// New returns a Scanner using DefaultThreshold.
func New() *Scanner {
	s := &Scanner{threshold: DefaultThreshold}
	s.NewScan()
	return s
}

// SetThreshold changes the luminance below which a sample is dark.
func (s *Scanner) SetThreshold(t byte) {
	s.threshold = t
}

// Threshold returns the current threshold.
func (s *Scanner) Threshold() byte {
	return s.threshold
}

// NewScan starts a new line.
func (s *Scanner) NewScan() {
	s.n = 0
	s.prev = 0
	s.color = barscan.Space
	s.lastEdge = 0
}

// Position returns the location of the last edge in 1/Subpixel units
// from the first sample of the line.
func (s *Scanner) Position() uint32 {
	return s.lastEdge
}

// Push adds the next sample and returns the element it completes, if any.
func (s *Scanner) Push(v byte) (Edge, bool) {
	i := s.n
	s.n++
	prev := s.prev
	s.prev = v

	dark := v < s.threshold
	if dark == (s.color == barscan.Bar) {
		return Edge{}, false
	}
	if i == 0 {
		return s.emit(0), true
	}

	// interpolate the crossing between samples i-1 and i
	a, b, t := int(prev), int(v), int(s.threshold)
	den := abs(a - b)
	frac := uint32((abs(a-t)*Subpixel + den/2) / den)
	return s.emit((i-1)*Subpixel + frac), true
}

// Flush completes the element in progress at the end of the line.
func (s *Scanner) Flush() (Edge, bool) {
	if s.n == 0 {
		return Edge{}, false
	}
	e := s.emit(s.n * Subpixel)
	s.n = 0
	return e, true
}

// emit closes the current element at edge. Elements are at least one
// unit wide.
func (s *Scanner) emit(edge uint32) Edge {
	edge = max(edge, s.lastEdge+1)
	e := Edge{Color: s.color, Width: edge - s.lastEdge}
	s.lastEdge = edge
	s.color ^= 1
	return e
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
