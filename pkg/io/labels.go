package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteLabels writes one line per pin: 1 for the true side, 0 otherwise.
func WriteLabels(labels []bool, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, l := range labels {
		if l {
			bw.WriteString("1\n")
		} else {
			bw.WriteString("0\n")
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write labels: %w", err)
	}
	return nil
}

// ReadLabels parses a partition file written by [WriteLabels]. Blank lines
// and '%' comments are skipped.
func ReadLabels(r io.Reader) ([]bool, error) {
	lr := newLineReader(r)
	var labels []bool
	for {
		fields, ok := lr.next()
		if !ok {
			break
		}
		if len(fields) != 1 {
			return nil, lr.errorf("expected a single label")
		}
		switch fields[0] {
		case "0":
			labels = append(labels, false)
		case "1":
			labels = append(labels, true)
		default:
			return nil, lr.errorf("label must be 0 or 1, got %q", fields[0])
		}
	}
	if err := lr.sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

// ImportLabels reads a partition file from path.
func ImportLabels(path string) ([]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLabels(f)
}

// ExportLabels writes labels to path.
func ExportLabels(labels []bool, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteLabels(labels, w) })
}

// Instance file extensions understood by [ImportFile] and [ExportFile].
const (
	ExtHMetis = ".hgr"
	ExtJSON   = ".json"
)

// ImportFile reads an instance, choosing the format by extension. Unknown
// extensions are parsed as hMETIS. The instance is named after the file.
func ImportFile(path string) (*Instance, error) {
	var (
		in  *Instance
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtJSON:
		in, err = ImportJSON(path)
	default:
		in, err = ImportHMetis(path)
	}
	if err != nil {
		return nil, err
	}
	if in.Name == "" {
		in.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return in, nil
}

// ExportFile writes an instance, choosing the format by extension.
func ExportFile(in *Instance, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtJSON:
		return ExportJSON(in, path)
	case ExtHMetis:
		return ExportHMetis(in, path)
	default:
		return fmt.Errorf("%w: unknown extension %q", ErrInvalidFormat, filepath.Ext(path))
	}
}
