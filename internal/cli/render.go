package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	mpio "github.com/matzehuels/macroplace/pkg/io"
	"github.com/matzehuels/macroplace/pkg/pipeline"
	"github.com/matzehuels/macroplace/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file (single view/format) or base path
	views   string
	formats string
	size    float64
	halos   bool
	regions bool
	cache   cacheFlags
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{size: render.DefaultSize}

	cmd := &cobra.Command{
		Use:   "render <result.json>",
		Short: "Draw a placement result",
		Long: `Render draws a placement result written by "macroplace place".

Views:
  floorplan   macros at their placed coordinates inside the fence
  adjacency   macros and fence edges linked by connection weight
  tree        the slicing tree of the chosen partitioning`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single view and format) or base path")
	cmd.Flags().StringVarP(&opts.views, "type", "t", "", "view(s): floorplan (default), adjacency, tree (comma-separated)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().Float64Var(&opts.size, "size", opts.size, "drawing size in points")
	cmd.Flags().BoolVar(&opts.halos, "halos", false, "draw macro halos (floorplan)")
	cmd.Flags().BoolVar(&opts.regions, "regions", false, "draw partition regions (floorplan)")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	res, err := mpio.ImportResult(input)
	if err != nil {
		return err
	}

	popts := pipeline.Options{
		Views:   parseList(opts.views, pipeline.ViewFloorplan),
		Formats: parseList(opts.formats, render.FormatSVG),
		Size:    opts.size,
		Halos:   opts.halos,
		Regions: opts.regions,
		Logger:  c.Logger,
	}
	if err := popts.ValidateForRender(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, res, popts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d drawings", len(artifacts)))

	con := console{w: cmd.OutOrStdout()}
	single := len(popts.Views) == 1 && len(popts.Formats) == 1
	base := artifactBase(opts.output, input)
	for _, view := range popts.Views {
		for _, format := range popts.Formats {
			path := outputPath(opts.output, base, view, format, single)
			if err := writeFile(path, artifacts[pipeline.ArtifactName(view, format)]); err != nil {
				return err
			}
			con.file(path)
		}
	}
	if cached {
		con.detail("from cache")
	}
	return nil
}

// outputPath names one rendered file: the output flag itself for a single
// drawing, <base>_<view>.<format> otherwise.
func outputPath(output, base, view, format string, single bool) string {
	if single && output != "" {
		return output
	}
	if single {
		return base + "." + format
	}
	return fmt.Sprintf("%s_%s.%s", base, view, format)
}
