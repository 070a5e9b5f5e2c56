// Package mongo stores designs in a MongoDB collection, one document per
// design, and serves them as a placement source and sink.
//
// Documents use the same field names as the JSON design format, keyed by
// "name":
//
//	store, err := mongo.Connect(ctx, mongo.Config{URI: "mongodb://localhost", Design: "soc"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close(ctx)
//	res, err := p.PlaceAndWrite(ctx, store, store)
package mongo

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/macroplace/pkg/errors"
	"github.com/matzehuels/macroplace/pkg/netlist"
)

// Defaults for Config.
const (
	DefaultDatabase   = "macroplace"
	DefaultCollection = "designs"
	DefaultTimeout    = 10 * time.Second
)

// Config selects the database, collection and design document.
type Config struct {
	URI        string
	Database   string
	Collection string
	// Design is the name of the design document to load and update.
	Design  string
	Timeout time.Duration
	Logger  *log.Logger
}

// ValidateAndSetDefaults fills zero values. Safe to call repeatedly.
func (c *Config) ValidateAndSetDefaults() error {
	if c.URI == "" {
		return errors.New(errors.ErrCodeInvalidInput, "mongo URI is required")
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Store is a design collection. It implements placer.Source and
// placer.Sink for Config.Design.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	cfg    Config
}

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	cfg.Logger.Debug("connected to mongo", "database", cfg.Database, "collection", cfg.Collection)
	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		cfg:    cfg,
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// LoadDesign reads and validates the configured design.
func (s *Store) LoadDesign(ctx context.Context) (*netlist.Design, error) {
	return s.Load(ctx, s.cfg.Design)
}

// Load reads and validates the named design.
func (s *Store) Load(ctx context.Context, name string) (*netlist.Design, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var d netlist.Design
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "design %q not in %s.%s", name, s.cfg.Database, s.cfg.Collection)
	}
	if err != nil {
		return nil, fmt.Errorf("find design %s: %w", name, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Save inserts or replaces d.
func (s *Store) Save(ctx context.Context, d *netlist.Design) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"name": d.Name}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save design %s: %w", d.Name, err)
	}
	return nil
}

// WriteBack sets the coordinates of the placed instances in one update of
// the design document, so either all placements land or none do.
func (s *Store) WriteBack(ctx context.Context, placements []netlist.Placement) error {
	d, err := s.LoadDesign(ctx)
	if err != nil {
		return err
	}
	// Apply to the loaded copy only to reject unknown instances up front.
	if err := d.Apply(placements); err != nil {
		return err
	}
	if len(placements) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	update, filters := placementUpdate(placements)
	res, err := s.coll.UpdateOne(ctx, bson.M{"name": s.cfg.Design}, update,
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: filters}))
	if err != nil {
		return fmt.Errorf("write placements to %s: %w", s.cfg.Design, err)
	}
	if res.MatchedCount == 0 {
		return errors.New(errors.ErrCodeNotFound, "design %q disappeared during placement", s.cfg.Design)
	}
	s.cfg.Logger.Debug("wrote placements to mongo", "design", s.cfg.Design, "count", len(placements))
	return nil
}

// placementUpdate builds a $set of instance coordinates with one array
// filter per placed instance.
func placementUpdate(placements []netlist.Placement) (bson.M, []interface{}) {
	set := bson.M{}
	filters := make([]interface{}, len(placements))
	for i, p := range placements {
		id := fmt.Sprintf("p%d", i)
		set["instances.$["+id+"].x"] = p.LX
		set["instances.$["+id+"].y"] = p.LY
		filters[i] = bson.M{id + ".name": p.Name}
	}
	return bson.M{"$set": set}, filters
}
