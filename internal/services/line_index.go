package services

import (
	"io"
	"sort"
)

// lineIndex records the offset of every newline read through it, so byte
// offsets reported by csv.Reader can be mapped back to physical lines.
type lineIndex struct {
	r        io.Reader
	offset   int64
	newlines []int64
}

func newLineIndex(r io.Reader) *lineIndex {
	return &lineIndex{r: r}
}

func (l *lineIndex) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	for i, b := range p[:n] {
		if b == '\n' {
			l.newlines = append(l.newlines, l.offset+int64(i))
		}
	}
	l.offset += int64(n)
	return n, err
}

// lineAt returns the 1-based line holding the byte at offset
func (l *lineIndex) lineAt(offset int64) int {
	return sort.Search(len(l.newlines), func(i int) bool {
		return l.newlines[i] >= offset
	}) + 1
}

// lines is the number of newline-terminated lines read so far
func (l *lineIndex) lines() int {
	return len(l.newlines)
}
