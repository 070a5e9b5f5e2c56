package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/netlist"
	"github.com/matzehuels/macroplace/pkg/placer"
)

// ReadDesign decodes a JSON design from r and validates it.
//
// Unknown fields are rejected so that misspelled keys ("heigth") do not
// silently turn into zero sizes. An instance without a "timing" field is
// assumed to have timing data.
//
// ReadDesign returns an INVALID_DESIGN error if the JSON is malformed or
// the design fails [netlist.Design.Validate]. ReadDesign does not close r.
func ReadDesign(r io.Reader) (*netlist.Design, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var d netlist.Design
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDesign, err, "decode design")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ImportDesign reads the design file at path. A missing file yields
// FILE_NOT_FOUND.
func ImportDesign(path string) (*netlist.Design, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	d, err := ReadDesign(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ReadResult decodes a placement result written by [WriteResult].
func ReadResult(r io.Reader) (*placer.Result, error) {
	var res placer.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode result")
	}
	return &res, nil
}

// ImportResult reads the result file at path.
func ImportResult(path string) (*placer.Result, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res, err := ReadResult(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
