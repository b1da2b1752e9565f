package io

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/hypercut/pkg/hypergraph"
)

func TestReadHMetis(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Instance
	}{
		{
			name: "unweighted",
			src:  "% comment\n2 4\n1 2\n2 3 4\n",
			want: Instance{
				Capacities: []float64{1, 1, 1, 1},
				Weights:    []float64{1, 1},
				Nets:       [][]int{{0, 1}, {1, 2, 3}},
			},
		},
		{
			name: "net weights",
			src:  "2 3 1\n5 1 2\n2 2 3\n",
			want: Instance{
				Capacities: []float64{1, 1, 1},
				Weights:    []float64{5, 2},
				Nets:       [][]int{{0, 1}, {1, 2}},
			},
		},
		{
			name: "pin weights",
			src:  "1 3 10\n1 2 3\n4\n%\n0.5\n2\n",
			want: Instance{
				Capacities: []float64{4, 0.5, 2},
				Weights:    []float64{1},
				Nets:       [][]int{{0, 1, 2}},
			},
		},
		{
			name: "both",
			src:  "1 2 11\n\n3 2 1\n7\n8\n",
			want: Instance{
				Capacities: []float64{7, 8},
				Weights:    []float64{3},
				Nets:       [][]int{{1, 0}},
			},
		},
		{
			name: "no nets",
			src:  "0 2\n",
			want: Instance{
				Capacities: []float64{1, 1},
				Weights:    []float64{},
				Nets:       [][]int{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadHMetis(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("ReadHMetis: %v", err)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("ReadHMetis = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestReadHMetisErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"empty", "", "missing header"},
		{"bad header", "2\n", "line 1"},
		{"bad fmt", "1 2 3\n1 2\n", "unsupported fmt"},
		{"pin out of range", "1 2\n1 3\n", "line 2"},
		{"pin zero", "1 2\n0 1\n", "out of range"},
		{"duplicate pin", "1 3\n1 2 1\n", "duplicate pin"},
		{"missing net", "2 2\n1 2\n", "expected 2 nets"},
		{"missing pin weight", "1 2 10\n1 2\n1\n", "expected 2 pin weights"},
		{"negative weight", "1 2 1\n-1 1 2\n", "negative"},
		{"trailing", "1 2\n1 2\n1 2\n", "unexpected content"},
		{"pin count too large", "1 99999999999999\n1 2\n", "exceeds"},
		{"net count too large", "99999999999999 2\n1 2\n", "exceeds"},
		{"count overflows int", "1 99999999999999999999999\n1 2\n", "invalid net or pin count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHMetis(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("error %v does not wrap ErrInvalidFormat", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q should mention %q", err, tt.line)
			}
		})
	}
}

func TestHMetisRoundTrip(t *testing.T) {
	tests := []*Instance{
		{Capacities: []float64{1, 1, 1}, Weights: []float64{1, 1}, Nets: [][]int{{0, 1}, {1, 2}}},
		{Capacities: []float64{1, 1, 1}, Weights: []float64{2.5, 1}, Nets: [][]int{{0, 1}, {2, 0}}},
		{Capacities: []float64{3, 1, 0}, Weights: []float64{1}, Nets: [][]int{{0, 1, 2}}},
		{Capacities: []float64{3, 1}, Weights: []float64{4}, Nets: [][]int{{1, 0}}},
	}

	for i, in := range tests {
		var buf bytes.Buffer
		if err := WriteHMetis(in, &buf); err != nil {
			t.Fatalf("case %d: WriteHMetis: %v", i, err)
		}
		got, err := ReadHMetis(&buf)
		if err != nil {
			t.Fatalf("case %d: ReadHMetis: %v\n%s", i, err, buf.String())
		}
		if !reflect.DeepEqual(got, in) {
			t.Errorf("case %d: round trip = %+v, want %+v", i, got, in)
		}
	}
}

func TestWriteHMetisHeader(t *testing.T) {
	var buf bytes.Buffer
	in := &Instance{Capacities: []float64{1, 2}, Weights: []float64{1}, Nets: [][]int{{0, 1}}}
	if err := WriteHMetis(in, &buf); err != nil {
		t.Fatal(err)
	}
	want := "1 2 10\n1 2\n1\n2\n"
	if buf.String() != want {
		t.Errorf("WriteHMetis = %q, want %q", buf.String(), want)
	}

	empty := &Instance{Capacities: []float64{1}, Weights: []float64{1}, Nets: [][]int{{}}}
	if err := WriteHMetis(empty, &buf); err == nil {
		t.Error("empty nets should be rejected")
	}
}

func TestReadJSON(t *testing.T) {
	src := `{"capacities":[1,2,3],"nets":[[0,1],[1,2]]}`
	in, err := ReadJSON(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if want := []float64{1, 1}; !reflect.DeepEqual(in.Weights, want) {
		t.Errorf("default weights = %v, want %v", in.Weights, want)
	}
	if in.NumPins() != 3 || in.NumNets() != 2 {
		t.Errorf("got %d pins, %d nets", in.NumPins(), in.NumNets())
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"malformed", `{"capacities":`, ErrInvalidFormat},
		{"unknown field", `{"capacities":[1],"edges":[]}`, ErrInvalidFormat},
		{"pin out of range", `{"capacities":[1],"nets":[[2]]}`, hypergraph.ErrPinOutOfRange},
		{"weight count", `{"capacities":[1],"weights":[1,1],"nets":[[0]]}`, hypergraph.ErrWeightCount},
		{"negative capacity", `{"capacities":[-1]}`, hypergraph.ErrNegativeValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadJSON error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	labels := []bool{true, false, false, true}
	var buf bytes.Buffer
	if err := WriteLabels(labels, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "1\n0\n0\n1\n" {
		t.Errorf("WriteLabels = %q", buf.String())
	}

	got, err := ReadLabels(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, labels) {
		t.Errorf("ReadLabels = %v, want %v", got, labels)
	}

	if _, err := ReadLabels(strings.NewReader("0\n2\n")); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("ReadLabels(bad) = %v, want ErrInvalidFormat", err)
	}
}

func TestImportExportFile(t *testing.T) {
	dir := t.TempDir()
	in := &Instance{
		Capacities: []float64{1, 2, 1},
		Weights:    []float64{1, 3},
		Nets:       [][]int{{0, 1}, {1, 2}},
	}

	for _, name := range []string{"inst.hgr", "inst.json"} {
		path := filepath.Join(dir, name)
		if err := ExportFile(in, path); err != nil {
			t.Fatalf("ExportFile(%s): %v", name, err)
		}
		got, err := ImportFile(path)
		if err != nil {
			t.Fatalf("ImportFile(%s): %v", name, err)
		}
		if got.Name != "inst" {
			t.Errorf("%s: Name = %q, want inst", name, got.Name)
		}
		got.Name = ""
		if !reflect.DeepEqual(got, in) {
			t.Errorf("%s: round trip = %+v, want %+v", name, got, in)
		}
	}

	if err := ExportFile(in, filepath.Join(dir, "inst.txt")); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("ExportFile(.txt) = %v, want ErrInvalidFormat", err)
	}
	if _, err := ImportFile(filepath.Join(dir, "missing.hgr")); err == nil {
		t.Error("ImportFile(missing) should fail")
	}
}

func TestImportExamples(t *testing.T) {
	tests := []struct {
		file       string
		pins, nets int
		capacity   float64
	}{
		{"ring.hgr", 12, 14, 16},
		{"cells.json", 8, 6, 10},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			in, err := ImportFile(filepath.Join("..", "..", "examples", tt.file))
			if err != nil {
				t.Fatalf("ImportFile: %v", err)
			}
			if in.NumPins() != tt.pins || in.NumNets() != tt.nets {
				t.Errorf("got %d pins, %d nets; want %d, %d", in.NumPins(), in.NumNets(), tt.pins, tt.nets)
			}
			h, err := in.Hypergraph()
			if err != nil {
				t.Fatal(err)
			}
			if got := h.TotalCapacity(); got != tt.capacity {
				t.Errorf("TotalCapacity = %v, want %v", got, tt.capacity)
			}
		})
	}
}
