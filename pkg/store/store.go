// Package store keeps a history of partition runs.
//
// Each completed run is saved as a [Record] holding its parameters, its
// evaluation and the winning labelling. Three backends implement [Store]:
//   - [MemoryStore]: in-process storage for tests and single-instance servers
//   - [FileStore]: one JSON file per run, used by the CLI
//   - [MongoStore]: a MongoDB collection for API deployments
//
// # Usage
//
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{URI: "mongodb://localhost:27017"})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	if err := st.Save(ctx, rec); err != nil {
//	    return err
//	}
//	recent, err := st.List(ctx, store.ListOptions{Limit: 20})
package store

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("run not found")

	// ErrInvalidRecord is returned when saving a record without an ID.
	ErrInvalidRecord = errors.New("invalid record")
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Record is one stored partition run.
type Record struct {
	ID           string        `json:"id" bson:"_id"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	Name         string        `json:"name,omitempty" bson:"name,omitempty"`
	InstanceHash string        `json:"instance_hash" bson:"instance_hash"`
	Pins         int           `json:"pins" bson:"pins"`
	Nets         int           `json:"nets" bson:"nets"`
	Epsilon      float64       `json:"epsilon" bson:"epsilon"`
	Trials       int           `json:"trials" bson:"trials"`
	Seed         uint64        `json:"seed" bson:"-"`
	Limit        float64       `json:"limit" bson:"limit"`
	Imbalance    float64       `json:"imbalance" bson:"imbalance"`
	CutWeight    float64       `json:"cut_weight" bson:"cut_weight"`
	Duration     time.Duration `json:"duration" bson:"duration"`
	Cached       bool          `json:"cached" bson:"cached"`
	Labels       []bool        `json:"labels,omitempty" bson:"labels,omitempty"`
}

// Summary returns a copy of r without its labels.
func (r *Record) Summary() *Record {
	s := *r
	s.Labels = nil
	return &s
}

// ListOptions bounds a List call.
type ListOptions struct {
	// Limit is the maximum number of records; <= 0 uses DefaultListLimit.
	Limit int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store is the interface for run history backends.
type Store interface {
	// Save stores rec, replacing any record with the same ID.
	Save(ctx context.Context, rec *Record) error

	// Get returns the full record with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns record summaries (no labels), newest first.
	List(ctx context.Context, opts ListOptions) ([]*Record, error)

	// Close releases the backend.
	Close() error
}

func validate(rec *Record) error {
	if rec == nil || rec.ID == "" {
		return ErrInvalidRecord
	}
	return nil
}
