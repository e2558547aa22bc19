package linescan

const (
	histBits    = 5
	histShift   = 8 - histBits
	histBuckets = 1 << histBits
)

// Histogram counts samples of a line in 32 luminance buckets.
type Histogram [histBuckets]int

// Add counts the samples in line.
func (h *Histogram) Add(line []byte) {
	for _, v := range line {
		h[v>>histShift]++
	}
}

// Reset clears all counts.
func (h *Histogram) Reset() {
	*h = Histogram{}
}

// Threshold picks a black point halfway between the two dominant peaks of
// h. It fails when the samples are not clearly split into dark and light
// by a valley.
func (h *Histogram) Threshold() (byte, bool) {
	first := 0
	for x, n := range h {
		if n > h[first] {
			first = x
		}
	}

	// the second peak is weighted by its distance from the first
	second, score := 0, 0
	for x, n := range h {
		dist := x - first
		if s := n * dist * dist; s > score {
			second, score = x, s
		}
	}
	lo, hi := min(first, second), max(first, second)
	if h[second] == 0 || hi-lo <= histBuckets/16 {
		return 0, false
	}

	floor := min(h[lo], h[hi])
	for x := lo + 1; x < hi; x++ {
		if h[x] < floor {
			// midpoint of the peak bucket centers
			return byte((lo+hi)<<(histShift-1) + 1<<(histShift-1)), true
		}
	}
	return 0, false
}
