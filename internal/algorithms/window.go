package algorithms

// MaxSumWindow finds the contiguous window of length k with the largest sum.
// On ties the leftmost window wins. For k <= 0 or k > len(seq) it returns a
// nil window and a zero sum.
func MaxSumWindow(seq []int, k int) ([]int, int) {
	if k <= 0 || k > len(seq) {
		return nil, 0
	}

	current := 0
	for _, v := range seq[:k] {
		current += v
	}

	// the first window seeds the maximum, so all-negative input still
	// reports its least negative window
	best, bestStart := current, 0
	for start := 1; start+k <= len(seq); start++ {
		current += seq[start+k-1] - seq[start-1]
		if current > best {
			best, bestStart = current, start
		}
	}

	window := make([]int, k)
	copy(window, seq[bestStart:bestStart+k])
	return window, best
}
