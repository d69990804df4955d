// Package store provides knowledge store selection options.
package store

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/coursemind/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Supported knowledge store backends.
const (
	BackendMilvus   = "milvus"
	BackendPGVector = "pgvector"
	BackendMemory   = "memory"
)

// Options selects and shapes the knowledge store.
type Options struct {
	// Backend is one of milvus, pgvector, memory.
	Backend string `json:"backend" mapstructure:"backend"`
	// Collection is the collection (milvus) or table (pgvector) name.
	Collection string `json:"collection" mapstructure:"collection"`
	// Dimension is the embedding vector dimension.
	Dimension int `json:"dimension" mapstructure:"dimension"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Backend:    BackendMilvus,
		Collection: "sigma_web_dev_course",
		Dimension:  1024, // bge-m3
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Backend, options.Join(prefixes...)+"store.backend", o.Backend, "Knowledge store backend: milvus, pgvector or memory.")
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"store.collection", o.Collection, "Knowledge store collection or table name.")
	fs.IntVar(&o.Dimension, options.Join(prefixes...)+"store.dimension", o.Dimension, "Embedding vector dimension.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Backend {
	case BackendMilvus, BackendPGVector, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("store.backend must be milvus, pgvector or memory, got %q", o.Backend))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("store.collection is required"))
	}
	if o.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("store.dimension must be positive"))
	}
	return errs
}
