package placer

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/macroplace/pkg/adjacency"
	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/geom"
	"github.com/matzehuels/macroplace/pkg/macro"
	"github.com/matzehuels/macroplace/pkg/partition"
)

// DefaultCandidates is the number of independently seeded partitionings
// evaluated per run.
const DefaultCandidates = 4

// Options configures a placement run.
type Options struct {
	// Fence constrains macro placement. The zero value uses the design core.
	Fence geom.Rect `json:"fence"`

	// Spacing is the global halo and channel; Locals overrides it per macro
	// instance name.
	Spacing macro.Spacing              `json:"spacing"`
	Locals  map[string]macro.LocalInfo `json:"locals,omitempty"`

	Candidates int    `json:"candidates,omitempty"`
	Seed       uint64 `json:"seed"`
	Parallel   bool   `json:"parallel,omitempty"`

	LeafSize      int                `json:"leaf_size,omitempty"`
	RefinePasses  int                `json:"refine_passes,omitempty"`
	Balance       float64            `json:"balance,omitempty"`
	RegisterDepth int                `json:"register_depth,omitempty"`
	TieBreak      adjacency.TieBreak `json:"tie_break,omitempty"`

	// SiteX and SiteY snap macro origins to a grid anchored at the fence
	// corner when the channel leaves room for it. Zero disables snapping.
	SiteX float64 `json:"site_x,omitempty"`
	SiteY float64 `json:"site_y,omitempty"`

	// Progress, when set, is called after each candidate finishes with the
	// number finished so far. It may be called from several goroutines.
	Progress func(done, total int) `json:"-"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults validates options and fills zero values.
// Safe to call repeatedly.
func (o *Options) ValidateAndSetDefaults() error {
	if !o.Fence.IsZero() {
		if err := errors.ValidateRect("fence", o.Fence.LX, o.Fence.LY, o.Fence.UX, o.Fence.UY); err != nil {
			return err
		}
	}
	if err := o.Spacing.Validate(); err != nil {
		return err
	}
	if o.Candidates < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "candidates must be non-negative, got %d", o.Candidates)
	}
	if o.Candidates == 0 {
		o.Candidates = DefaultCandidates
	}
	if o.SiteX < 0 || o.SiteY < 0 || math.IsNaN(o.SiteX) || math.IsNaN(o.SiteY) {
		return errors.New(errors.ErrCodeInvalidInput, "site size must be non-negative")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	ao := o.adjacencyOptions()
	if err := ao.ValidateAndSetDefaults(); err != nil {
		return err
	}
	o.RegisterDepth = ao.RegisterDepth

	po := o.partitionOptions(o.Seed)
	if err := po.ValidateAndSetDefaults(); err != nil {
		return err
	}
	o.LeafSize, o.RefinePasses, o.Balance = po.LeafSize, po.RefinePasses, po.Balance
	return nil
}

func (o *Options) adjacencyOptions() adjacency.Options {
	return adjacency.Options{
		RegisterDepth: o.RegisterDepth,
		TieBreak:      o.TieBreak,
		Logger:        o.Logger,
	}
}

func (o *Options) partitionOptions(seed uint64) partition.Options {
	return partition.Options{
		LeafSize:     o.LeafSize,
		RefinePasses: o.RefinePasses,
		Balance:      o.Balance,
		Seed:         seed,
		Logger:       o.Logger,
	}
}
