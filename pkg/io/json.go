package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadJSON decodes an instance from r and validates it. Missing net weights
// default to 1. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Instance, error) {
	var in Instance
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidFormat, err)
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// WriteJSON encodes in as indented JSON.
func WriteJSON(in *Instance, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ImportJSON reads a JSON instance from path.
func ImportJSON(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportJSON writes in to path as JSON.
func ExportJSON(in *Instance, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(in, w) })
}

// writeFile creates path and hands it to write, reporting the first error
// of writing or closing.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
