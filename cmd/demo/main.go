package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"temperature-stats/internal/algorithms"
)

// intList is a comma-separated list of integers
type intList []int

func (l *intList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(s string) error {
	var values []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid integer %q", part)
		}
		values = append(values, v)
	}
	*l = values
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	blocks := intList{1, 2, 3, 4, 5, 6, 7}
	window := intList{1, -2, 3, 4, -1, 2, 1, -5, 4}
	fs.Var(&blocks, "blocks", "Comma-separated sequence for block reversal")
	blockSize := fs.Int("block-size", 3, "Block size for block reversal")
	fs.Var(&window, "window", "Comma-separated sequence for the maximum-sum window search")
	k := fs.Int("k", 3, "Window length for the maximum-sum window search")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	fmt.Fprintln(stdout, "Block reversal")
	fmt.Fprintf(stdout, "  Input:      %v\n", []int(blocks))
	fmt.Fprintf(stdout, "  Block size: %d\n", *blockSize)
	reversed, err := algorithms.ReverseBlocks([]int(blocks), *blockSize)
	if err != nil {
		fmt.Fprintf(stdout, "  Error:      %v\n", err)
	} else {
		fmt.Fprintf(stdout, "  Result:     %v\n", reversed)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Maximum-sum window")
	fmt.Fprintf(stdout, "  Input:      %v\n", []int(window))
	fmt.Fprintf(stdout, "  Length k:   %d\n", *k)
	best, sum := algorithms.MaxSumWindow([]int(window), *k)
	if best == nil {
		fmt.Fprintln(stdout, "  Result:     no window of that length")
	} else {
		fmt.Fprintf(stdout, "  Result:     %v (sum: %d)\n", best, sum)
	}

	return 0
}
