package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/macroplace/pkg/netlist"
	"github.com/matzehuels/macroplace/pkg/placer"
)

// WriteDesign encodes d as indented JSON. The output can be re-read with
// [ReadDesign].
func WriteDesign(d *netlist.Design, w io.Writer) error {
	return encode(d, w)
}

// ExportDesign writes d to path, replacing the file atomically.
func ExportDesign(d *netlist.Design, path string) error {
	return export(path, func(w io.Writer) error { return WriteDesign(d, w) })
}

// WriteResult encodes a placement result as indented JSON.
func WriteResult(res *placer.Result, w io.Writer) error {
	return encode(res, w)
}

// ExportResult writes a placement result to path.
func ExportResult(res *placer.Result, path string) error {
	return export(path, func(w io.Writer) error { return WriteResult(res, w) })
}

// WriteJSON encodes any report (such as a [placer.Connectivity]) the same
// way as the other writers.
func WriteJSON(v any, w io.Writer) error {
	return encode(v, w)
}

func encode(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// export writes through a temporary file in the target directory and
// renames it into place, so readers never see a partial file.
func export(path string, write func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
