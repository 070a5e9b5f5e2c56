package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/macroplace/pkg/errors"
	mpio "github.com/matzehuels/macroplace/pkg/io"
	"github.com/matzehuels/macroplace/pkg/pipeline"
	"github.com/matzehuels/macroplace/pkg/placer"
	"github.com/matzehuels/macroplace/pkg/source/mongo"
)

// placeOpts holds the command-line flags for the place command.
type placeOpts struct {
	placement   placementFlags
	cache       cacheFlags
	output      string // result JSON path, stdout when empty
	writeDesign string // updated design path; "-" rewrites the input
	views       string // views to render next to the result
	formats     string
	mongoURI    string
	mongoDB     string
	mongoColl   string
}

func (c *CLI) placeCommand() *cobra.Command {
	var opts placeOpts

	cmd := &cobra.Command{
		Use:   "place <design.json | design-name>",
		Short: "Place the macros of a design",
		Long: `Place reads a design, places its macros and writes the placement result.

With --mongo-uri the argument names a design in MongoDB and the placed
coordinates are written back to the same document.`,
		Example: `  macroplace place soc.json -o soc.place.json --halo 2,2 --channel 1,1
  macroplace place soc.json --write-design soc.placed.json --render floorplan
  macroplace place soc --mongo-uri mongodb://localhost:27017`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlace(cmd, args[0], &opts)
		},
	}

	opts.placement.register(cmd)
	opts.cache.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "result file (default: stdout)")
	cmd.Flags().StringVar(&opts.writeDesign, "write-design", "", "write the design with placed coordinates to this path (\"-\" rewrites the input)")
	cmd.Flags().StringVar(&opts.views, "render", "", "views to render: floorplan, adjacency, tree (comma-separated)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "render format(s): svg (default), png, dot")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", os.Getenv(envMongoURI), "load the design from MongoDB (env "+envMongoURI+")")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", mongo.DefaultDatabase, "MongoDB database")
	cmd.Flags().StringVar(&opts.mongoColl, "mongo-collection", mongo.DefaultCollection, "MongoDB collection")

	return cmd
}

func (c *CLI) runPlace(cmd *cobra.Command, input string, opts *placeOpts) error {
	ctx := cmd.Context()

	popts, warnings, err := opts.placement.options(cmd)
	if err != nil {
		return err
	}
	popts.Logger = c.Logger
	// Status output goes to stdout only when the result does not.
	stdout := cmd.OutOrStdout()
	quiet := opts.output == ""
	con := console{w: stdout}
	c.report(con, quiet, warnings)

	src, sink, closeSrc, err := c.openSource(ctx, input, opts)
	if err != nil {
		return err
	}
	defer closeSrc()

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	pipeOpts := pipeline.Options{
		Placement: popts,
		Views:     parseList(opts.views),
		Formats:   parseList(opts.formats),
		Logger:    c.Logger,
	}

	spinner := newPlaceSpinner(ctx, cmd.ErrOrStderr(), "Placing "+filepath.Base(input))
	pipeOpts.Placement.Progress = spinner.progress
	spinner.start()
	prog := newProgress(c.Logger)
	var result *pipeline.Result
	if sink != nil {
		result, err = runner.ExecuteAndWrite(ctx, src, sink, pipeOpts)
	} else {
		result, err = runner.Execute(ctx, src, pipeOpts)
	}
	spinner.stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Placed %d macros", result.Stats.Macros))

	res := result.Placement
	if opts.output == "" {
		if err := mpio.WriteResult(res, stdout); err != nil {
			return err
		}
	} else if err := mpio.ExportResult(res, opts.output); err != nil {
		return err
	}

	if !quiet {
		printSummary(con, result)
		con.file(opts.output)
	}
	c.report(con, quiet, res.Warnings)

	base := artifactBase(opts.output, input)
	for name, data := range result.Artifacts {
		path := base + "_" + name
		if err := writeFile(path, data); err != nil {
			return err
		}
		if !quiet {
			con.file(path)
		}
	}
	if !quiet && len(result.Artifacts) == 0 {
		con.nextStep("Draw the floorplan", fmt.Sprintf("%s render %s", appName, opts.output))
	}
	return nil
}

// openSource picks the design source and write-back sink for a place run.
// The returned close function is always non-nil.
func (c *CLI) openSource(ctx context.Context, input string, opts *placeOpts) (placer.Source, placer.Sink, func(), error) {
	if opts.mongoURI != "" {
		store, err := mongo.Connect(ctx, mongo.Config{
			URI:        opts.mongoURI,
			Database:   opts.mongoDB,
			Collection: opts.mongoColl,
			Design:     input,
			Logger:     c.Logger,
		})
		if err != nil {
			return nil, nil, func() {}, err
		}
		closeStore := func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(cctx)
		}
		return store, store, closeStore, nil
	}

	f := mpio.DesignFile{Path: input}
	switch opts.writeDesign {
	case "":
		return f, nil, func() {}, nil
	case "-":
	default:
		f.Out = opts.writeDesign
	}
	return f, f, func() {}, nil
}

// report prints warnings, or logs them when stdout carries data.
func (c *CLI) report(con console, quiet bool, warnings []errors.Warning) {
	if !quiet {
		con.warnings(warnings)
		return
	}
	for _, w := range warnings {
		c.Logger.Warn(w.Message, "code", w.Code, "subject", w.Subject)
	}
}

func printSummary(con console, r *pipeline.Result) {
	con.success("Placed %s", StyleHighlight.Render(r.Placement.Design))
	con.stats(r.Stats.Instances, r.Stats.Macros, r.Stats.Nets, r.CacheInfo.PlaceHit)
	con.keyValue("wirelength", StyleNumber.Render(fmt.Sprintf("%.2f", r.Placement.WeightedWL)))
	con.keyValue("candidates", fmt.Sprintf("%d (best #%d)", r.Placement.SolutionCount, r.Placement.BestCandidate))
	if clamped := r.Placement.Clamped(); len(clamped) > 0 {
		con.keyValue("clamped", strings.Join(clamped, ", "))
	}
}

// artifactBase derives the base path for rendered files from the output
// path, or from the input when the result goes to stdout.
func artifactBase(output, input string) string {
	p := output
	if p == "" {
		p = filepath.Base(input)
	}
	return strings.TrimSuffix(p, filepath.Ext(p))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
