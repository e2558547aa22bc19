package decoder

// decodeE quantizes the combined width e of two adjacent elements against
// the width s of an n module character. It returns the number of modules
// minus two, or -1 when e is outside [1.5, n-1.5) modules or s is zero.
//
// Widths within half a module of a whole module count land in the same
// bin. The result depends only on the ratio e/s, so scaling both by the
// same factor never changes it.
func decodeE(e, s, n uint32) int {
	if s == 0 {
		return -1
	}
	x := e * n * 2 / s
	if x < 3 {
		return -1
	}
	if E := (x - 3) / 2; E < n-3 {
		return int(E)
	}
	return -1
}
