package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/config"
	mpio "github.com/matzehuels/macroplace/pkg/io"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/placer"
)

func (c *CLI) weightsCommand() *cobra.Command {
	var (
		pf      placementFlags
		asJSON  bool
		minimum int
	)

	cmd := &cobra.Command{
		Use:   "weights <design.json>",
		Short: "Show macro connection weights without placing",
		Long: `Weights derives the macro-to-macro and macro-to-boundary connection
weights of a design and prints them together with the number of boundary
terminals on each fence edge.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, warnings, err := pf.options(cmd)
			if err != nil {
				return err
			}
			opts.Logger = c.Logger
			d, err := mpio.ImportDesign(args[0])
			if err != nil {
				return err
			}
			p, err := placer.New(opts)
			if err != nil {
				return err
			}
			conn, err := p.Analyze(cmd.Context(), d)
			if err != nil {
				return err
			}
			conn.Warnings = append(warnings, conn.Warnings...)

			if asJSON {
				return mpio.WriteJSON(conn, cmd.OutOrStdout())
			}
			printWeights(console{w: cmd.OutOrStdout()}, conn, opts.Locals, minimum)
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of tables")
	cmd.Flags().IntVar(&minimum, "min", 1, "hide weights below this value")

	return cmd
}

func printWeights(con console, c *placer.Connectivity, locals map[string]macro.LocalInfo, minimum int) {
	con.line(StyleTitle.Render(c.Design))

	pairs := newTable("Macro", "Macro", "Weight")
	shown := 0
	for _, p := range c.Pairs {
		if p.Weight < minimum {
			continue
		}
		pairs.Row(p.A, p.B, strconv.Itoa(p.Weight))
		shown++
	}
	if shown > 0 {
		con.line(pairs.Render())
	} else {
		con.info("No macro pairs with weight >= %d", minimum)
	}

	edges := newTable("Macro", "Edge", "Weight")
	shown = 0
	for _, e := range c.EdgeWeights {
		if e.Weight < minimum {
			continue
		}
		edges.Row(e.Macro, e.Edge.String(), strconv.Itoa(e.Weight))
		shown++
	}
	if shown > 0 {
		con.line(edges.Render())
	}

	counts := newTable("Edge", "Terminals")
	for _, e := range adjacency.Edges() {
		counts.Row(e.String(), strconv.Itoa(c.EdgePinCounts[e]))
	}
	con.line(counts.Render())

	if len(locals) > 0 {
		overrides := newTable("Macro", "Halo", "Channel")
		for _, name := range config.Names(locals) {
			l := locals[name]
			overrides.Row(name, pair(l.HaloX, l.HaloY), pair(l.ChannelX, l.ChannelY))
		}
		con.line(overrides.Render())
	}

	con.warnings(c.Warnings)
}

// pair formats an x,y override; unset components print as "-".
func pair(x, y *float64) string {
	f := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	return f(x) + "," + f(y)
}
