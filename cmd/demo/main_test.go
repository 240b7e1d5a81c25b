package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Defaults(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(nil, &stdout, &stderr))

	out := stdout.String()
	assert.Contains(t, out, "  Result:     [3 2 1 6 5 4 7]\n")
	assert.Contains(t, out, "  Result:     [3 4 -1] (sum: 6)\n")
}

func TestRun_CustomInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-blocks", "1, 2, 3, 4", "-block-size", "0", "-window", "5,6", "-k", "3"}, &stdout, &stderr)
	require.Equal(t, 0, code)

	out := stdout.String()
	assert.Contains(t, out, "  Error:      block size must be positive\n")
	assert.Contains(t, out, "  Result:     no window of that length\n")
}

func TestRun_InvalidList(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-window", "1,x"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `invalid integer "x"`)
}
