package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
)

// Engine selects the Graphviz layout engine.
type Engine string

// Engines used by this package. Floorplan and adjacency drawings need
// [Neato] to honour pinned positions; the tree drawing uses [Dot].
const (
	Neato Engine = Engine(graphviz.NEATO)
	Dot   Engine = Engine(graphviz.DOT)
)

// RenderSVG lays out a DOT graph with engine and renders it to SVG.
func RenderSVG(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	data, err := renderGraphviz(ctx, dot, engine, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG lays out a DOT graph with engine and renders it to PNG.
func RenderPNG(ctx context.Context, dot string, engine Engine) ([]byte, error) {
	return renderGraphviz(ctx, dot, engine, graphviz.PNG)
}

// Render produces dot in the given format. FormatDOT returns the source
// unchanged.
func Render(ctx context.Context, dot string, engine Engine, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		return RenderSVG(ctx, dot, engine)
	case FormatPNG:
		return RenderPNG(ctx, dot, engine)
	case FormatDOT:
		return []byte(dot), nil
	}
	return nil, fmt.Errorf("unsupported format %q (must be one of: svg, png, dot)", format)
}

func renderGraphviz(ctx context.Context, dot string, engine Engine, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's fixed-unit svg header with one that
// scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
