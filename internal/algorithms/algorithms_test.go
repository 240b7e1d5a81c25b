package algorithms

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		size int
		want []int
	}{
		{"partial trailing block", []int{1, 2, 3, 4, 5, 6, 7}, 3, []int{3, 2, 1, 6, 5, 4, 7}},
		{"exact multiple", []int{1, 2, 3, 4}, 2, []int{2, 1, 4, 3}},
		{"size one is identity", []int{1, 2, 3}, 1, []int{1, 2, 3}},
		{"size larger than input", []int{1, 2, 3}, 5, []int{1, 2, 3}},
		{"size equal to input", []int{1, 2, 3}, 3, []int{3, 2, 1}},
		{"empty input", []int{}, 4, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReverseBlocks(tt.in, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReverseBlocks_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := ReverseBlocks([]int{1, 2}, size)
		assert.ErrorIs(t, err, ErrInvalidBlockSize)
	}
}

func TestReverseBlocks_DoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b", "c", "d"}
	_, err := ReverseBlocks(in, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, in)
}

func TestReverseBlocks_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		n := r.Intn(30)
		in := make([]int, n)
		for i := range in {
			in[i] = r.Intn(100) - 50
		}
		size := r.Intn(8) + 1

		got, err := ReverseBlocks(in, size)
		require.NoError(t, err)
		require.Len(t, got, n)

		sortedIn, sortedGot := slices.Clone(in), slices.Clone(got)
		slices.Sort(sortedIn)
		slices.Sort(sortedGot)
		assert.Equal(t, sortedIn, sortedGot, "multiset must be preserved")

		full := n / size * size
		for start := 0; start < full; start += size {
			block := slices.Clone(in[start : start+size])
			slices.Reverse(block)
			assert.Equal(t, block, got[start:start+size])
		}
		assert.Equal(t, in[full:], got[full:], "remainder must keep its order")
	}
}

func TestMaxSumWindow(t *testing.T) {
	tests := []struct {
		name       string
		in         []int
		k          int
		wantWindow []int
		wantSum    int
	}{
		{"mixed signs", []int{1, -2, 3, 4, -1, 2, 1, -5, 4}, 3, []int{3, 4, -1}, 6},
		{"all negative", []int{-5, -1, -3, -2}, 2, []int{-1, -3}, -4},
		{"single negative", []int{-7}, 1, []int{-7}, -7},
		{"tie keeps leftmost", []int{2, 1, 1, 2}, 2, []int{2, 1}, 3},
		{"whole sequence", []int{1, 2, 3}, 3, []int{1, 2, 3}, 6},
		{"k too large", []int{1, 2}, 3, nil, 0},
		{"k zero", []int{1, 2}, 0, nil, 0},
		{"k negative", []int{1, 2}, -1, nil, 0},
		{"empty input", nil, 1, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, sum := MaxSumWindow(tt.in, tt.k)
			assert.Equal(t, tt.wantWindow, window)
			assert.Equal(t, tt.wantSum, sum)
		})
	}
}

func TestMaxSumWindow_MatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(11))

	for iter := 0; iter < 200; iter++ {
		n := r.Intn(20) + 1
		in := make([]int, n)
		for i := range in {
			in[i] = r.Intn(21) - 10
		}
		k := r.Intn(n) + 1

		bestStart, bestSum := -1, 0
		for start := 0; start+k <= n; start++ {
			s := 0
			for _, v := range in[start : start+k] {
				s += v
			}
			if bestStart == -1 || s > bestSum {
				bestStart, bestSum = start, s
			}
		}

		window, sum := MaxSumWindow(in, k)
		assert.Equal(t, bestSum, sum)
		assert.Equal(t, in[bestStart:bestStart+k], window)
	}
}
