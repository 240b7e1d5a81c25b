// Package algorithms holds the small sequence exercises shipped with the
// analyzer: block reversal and the fixed-window maximum sum scan.
package algorithms

import "errors"

// ErrInvalidBlockSize is returned by ReverseBlocks for a non-positive size.
var ErrInvalidBlockSize = errors.New("block size must be positive")

// ReverseBlocks returns a copy of seq where every full block of size
// elements is reversed. A trailing block shorter than size is copied in its
// original order, so a size larger than len(seq) returns seq unchanged.
func ReverseBlocks[T any](seq []T, size int) ([]T, error) {
	if size <= 0 {
		return nil, ErrInvalidBlockSize
	}

	result := make([]T, len(seq))
	copy(result, seq)

	for start := 0; start+size <= len(result); start += size {
		block := result[start : start+size]
		for i, j := 0, len(block)-1; i < j; i, j = i+1, j-1 {
			block[i], block[j] = block[j], block[i]
		}
	}

	return result, nil
}
