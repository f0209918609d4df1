// Package metadata reads and writes the JSON mapping record that
// accompanies the generated images.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/paintmap/internal/symmetry"
)

// Record describes one projection run.
type Record struct {
	Model           string          `json:"model"`
	Axis            string          `json:"axis"`
	ImageSize       int             `json:"image_size"`
	SymmetryAxis    string          `json:"symmetry_axis"`
	CoveragePx      int             `json:"coverage_px"`
	ProjectionImage string          `json:"projection_image"`
	UVMapImage      string          `json:"uvmap_image"`
	UVMirrorPairs   []symmetry.Pair `json:"uv_mirror_pairs"`
}

// Write serializes rec as indented JSON. Non-ASCII text is written as-is
// and a missing pair list is written as an empty array.
func Write(w io.Writer, rec Record) error {
	if rec.UVMirrorPairs == nil {
		rec.UVMirrorPairs = []symmetry.Pair{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile writes rec to path, replacing any existing file.
func WriteFile(path string, rec Record) error {
	var buf bytes.Buffer
	if err := Write(&buf, rec); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Read parses a record written by Write.
func Read(r io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return &rec, nil
}

// ReadFile parses the record stored at path.
func ReadFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
