package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// hMETIS fmt flags.
const (
	fmtNetWeights = 1
	fmtPinWeights = 10
)

// MaxCount bounds the net and pin counts an hMETIS header may declare.
const MaxCount = 1 << 24

// preallocated caps the slice capacity reserved from a header count before
// the records backing it have been read.
const preallocated = 1 << 16

// lineReader yields the non-blank, non-comment lines of an hMETIS file
// together with their 1-based line numbers.
type lineReader struct {
	sc   *bufio.Scanner
	line int
}

func newLineReader(r io.Reader) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)
	return &lineReader{sc: sc}
}

func (lr *lineReader) next() ([]string, bool) {
	for lr.sc.Scan() {
		lr.line++
		text := strings.TrimSpace(lr.sc.Text())
		if text == "" || strings.HasPrefix(text, "%") {
			continue
		}
		return strings.Fields(text), true
	}
	return nil, false
}

func (lr *lineReader) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrInvalidFormat, lr.line, fmt.Sprintf(format, args...))
}

// ReadHMetis parses an hMETIS hypergraph file. Pins are converted to
// 0-based indices. Duplicate pins within a net and trailing content are
// rejected.
func ReadHMetis(r io.Reader) (*Instance, error) {
	lr := newLineReader(r)

	header, ok := lr.next()
	if !ok {
		if err := lr.sc.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("%w: missing header", ErrInvalidFormat)
	}
	if len(header) < 2 || len(header) > 3 {
		return nil, lr.errorf("header must be \"numNets numPins [fmt]\"")
	}
	numNets, err1 := strconv.Atoi(header[0])
	numPins, err2 := strconv.Atoi(header[1])
	if err1 != nil || err2 != nil || numNets < 0 || numPins < 0 {
		return nil, lr.errorf("invalid net or pin count")
	}
	if numNets > MaxCount || numPins > MaxCount {
		return nil, lr.errorf("net or pin count exceeds %d", MaxCount)
	}
	format := 0
	if len(header) == 3 {
		f, err := strconv.Atoi(header[2])
		if err != nil || (f != 0 && f != 1 && f != 10 && f != 11) {
			return nil, lr.errorf("unsupported fmt %q", header[2])
		}
		format = f
	}
	netWeights := format%10 == fmtNetWeights
	pinWeights := format/10 == fmtPinWeights/10

	in := &Instance{
		Weights: make([]float64, 0, min(numNets, preallocated)),
		Nets:    make([][]int, 0, min(numNets, preallocated)),
	}

	for e := range numNets {
		fields, ok := lr.next()
		if !ok {
			return nil, fmt.Errorf("%w: expected %d nets, found %d", ErrInvalidFormat, numNets, e)
		}
		weight := 1.0
		if netWeights {
			w, err := parseWeight(fields[0])
			if err != nil {
				return nil, lr.errorf("net %d weight: %v", e+1, err)
			}
			weight = w
			fields = fields[1:]
		}
		seen := make(map[int]bool, len(fields))
		net := make([]int, 0, len(fields))
		for _, f := range fields {
			p, err := strconv.Atoi(f)
			if err != nil || p < 1 || p > numPins {
				return nil, lr.errorf("net %d: pin %q out of range 1..%d", e+1, f, numPins)
			}
			if seen[p] {
				return nil, lr.errorf("net %d: duplicate pin %d", e+1, p)
			}
			seen[p] = true
			net = append(net, p-1)
		}
		in.Weights = append(in.Weights, weight)
		in.Nets = append(in.Nets, net)
	}

	if !pinWeights {
		in.Capacities = slices.Repeat([]float64{1}, numPins)
	}
	for p := 0; pinWeights && p < numPins; p++ {
		fields, ok := lr.next()
		if !ok {
			return nil, fmt.Errorf("%w: expected %d pin weights, found %d", ErrInvalidFormat, numPins, p)
		}
		if len(fields) != 1 {
			return nil, lr.errorf("pin %d: expected a single weight", p+1)
		}
		c, err := parseWeight(fields[0])
		if err != nil {
			return nil, lr.errorf("pin %d weight: %v", p+1, err)
		}
		in.Capacities = append(in.Capacities, c)
	}

	if _, ok := lr.next(); ok {
		return nil, lr.errorf("unexpected content after the last record")
	}
	if err := lr.sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return in, nil
}

func parseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if w < 0 {
		return 0, fmt.Errorf("negative weight %v", w)
	}
	return w, nil
}

// WriteHMetis writes in in hMETIS format. Net and pin weights are written
// only when some of them differ from 1. The format has no way to express a
// net without pins, so such instances are rejected.
func WriteHMetis(in *Instance, w io.Writer) error {
	for e, net := range in.Nets {
		if len(net) == 0 {
			return fmt.Errorf("net %d has no pins", e)
		}
	}
	bw := bufio.NewWriter(w)
	netWeights := !allOnes(in.Weights)
	pinWeights := !allOnes(in.Capacities)

	format := 0
	if netWeights {
		format += fmtNetWeights
	}
	if pinWeights {
		format += fmtPinWeights
	}
	if format == 0 {
		fmt.Fprintf(bw, "%d %d\n", len(in.Nets), len(in.Capacities))
	} else {
		fmt.Fprintf(bw, "%d %d %d\n", len(in.Nets), len(in.Capacities), format)
	}

	for e, net := range in.Nets {
		fields := make([]string, 0, len(net)+1)
		if netWeights {
			fields = append(fields, formatWeight(in.Weights[e]))
		}
		for _, p := range net {
			fields = append(fields, strconv.Itoa(p+1))
		}
		fmt.Fprintln(bw, strings.Join(fields, " "))
	}
	if pinWeights {
		for _, c := range in.Capacities {
			fmt.Fprintln(bw, formatWeight(c))
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

func allOnes(xs []float64) bool {
	for _, x := range xs {
		if x != 1 {
			return false
		}
	}
	return true
}

// ImportHMetis reads an hMETIS file from path.
func ImportHMetis(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadHMetis(f)
}

// ExportHMetis writes in to path in hMETIS format.
func ExportHMetis(in *Instance, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteHMetis(in, w) })
}
