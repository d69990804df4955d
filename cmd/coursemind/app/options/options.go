// Package options contains flags and options for initializing the course
// question-answering server.
package options

import (
	"fmt"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	ragsvc "github.com/kart-io/coursemind/internal/rag"
	cliflag "github.com/kart-io/coursemind/pkg/app/cliflag"
	cacheopts "github.com/kart-io/coursemind/pkg/options/cache"
	convopts "github.com/kart-io/coursemind/pkg/options/conversation"
	llmopts "github.com/kart-io/coursemind/pkg/options/llm"
	logopts "github.com/kart-io/coursemind/pkg/options/logger"
	milvusopts "github.com/kart-io/coursemind/pkg/options/milvus"
	pgopts "github.com/kart-io/coursemind/pkg/options/postgres"
	ragopts "github.com/kart-io/coursemind/pkg/options/rag"
	grpcopts "github.com/kart-io/coursemind/pkg/options/server/grpc"
	httpopts "github.com/kart-io/coursemind/pkg/options/server/http"
	storeopts "github.com/kart-io/coursemind/pkg/options/store"
	tracingopts "github.com/kart-io/coursemind/pkg/options/tracing"
)

// ServerOptions contains the configuration options for the server.
type ServerOptions struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// GRPCOptions contains the gRPC health server configuration.
	GRPCOptions *grpcopts.Options `json:"grpc" mapstructure:"grpc"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// TracingOptions contains OpenTelemetry configuration.
	TracingOptions *tracingopts.Options `json:"tracing" mapstructure:"tracing"`

	// StoreOptions selects the knowledge store backend.
	StoreOptions *storeopts.Options `json:"store" mapstructure:"store"`

	// MilvusOptions contains Milvus configuration (store.backend=milvus).
	MilvusOptions *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// PostgresOptions contains pgvector configuration (store.backend=pgvector).
	PostgresOptions *pgopts.Options `json:"postgres" mapstructure:"postgres"`

	// EmbeddingOptions contains embedding provider configuration.
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`

	// ChatOptions contains chat provider configuration.
	ChatOptions *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`

	// RAGOptions contains retrieval and answer configuration.
	RAGOptions *ragopts.Options `json:"rag" mapstructure:"rag"`

	// CacheOptions contains cache configuration.
	CacheOptions *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// ConversationOptions contains conversation persistence configuration.
	ConversationOptions *convopts.Options `json:"conversation" mapstructure:"conversation"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTPOptions:         httpopts.NewOptions(),
		GRPCOptions:         grpcopts.NewOptions(),
		LogOptions:          logopts.NewOptions(),
		TracingOptions:      tracingopts.NewOptions(),
		StoreOptions:        storeopts.NewOptions(),
		MilvusOptions:       milvusopts.NewOptions(),
		PostgresOptions:     pgopts.NewOptions(),
		EmbeddingOptions:    llmopts.NewEmbeddingOptions(),
		ChatOptions:         llmopts.NewChatOptions(),
		RAGOptions:          ragopts.NewOptions(),
		CacheOptions:        cacheopts.NewOptions(),
		ConversationOptions: convopts.NewOptions(),
		ShutdownTimeout:     30 * time.Second,
	}
}

// Flags returns flags for a specific server by section name.
func (o *ServerOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.HTTPOptions.AddFlags(fss.FlagSet("http"))
	o.GRPCOptions.AddFlags(fss.FlagSet("grpc"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.PostgresOptions.AddFlags(fss.FlagSet("postgres"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"))
	o.ChatOptions.AddFlags(fss.FlagSet("chat"))
	o.RAGOptions.AddFlags(fss.FlagSet("rag"))
	o.CacheOptions.AddFlags(fss.FlagSet("cache"))
	o.ConversationOptions.AddFlags(fss.FlagSet("conversation"))

	// misc flags
	fs := fss.FlagSet("misc")
	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")

	return fss
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.HTTPOptions.Complete(); err != nil {
		return err
	}
	if err := o.GRPCOptions.Complete(); err != nil {
		return err
	}
	if err := o.LogOptions.Complete(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.RAGOptions.Complete(); err != nil {
		return fmt.Errorf("rag: %w", err)
	}
	if err := o.CacheOptions.Complete(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.GRPCOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	switch o.StoreOptions.Backend {
	case storeopts.BackendMilvus:
		errs = append(errs, o.MilvusOptions.Validate()...)
	case storeopts.BackendPGVector:
		errs = append(errs, o.PostgresOptions.Validate()...)
	}
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.ChatOptions.Validate()...)
	errs = append(errs, o.RAGOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.ConversationOptions.Validate()...)

	return utilerrors.NewAggregate(errs)
}

// Config builds a ragsvc.Config based on ServerOptions.
func (o *ServerOptions) Config() (*ragsvc.Config, error) {
	return &ragsvc.Config{
		StoreConfig: ragsvc.StoreConfig{
			StoreOptions:    o.StoreOptions,
			MilvusOptions:   o.MilvusOptions,
			PostgresOptions: o.PostgresOptions,
		},
		HTTPOptions:         o.HTTPOptions,
		GRPCOptions:         o.GRPCOptions,
		LogOptions:          o.LogOptions,
		TracingOptions:      o.TracingOptions,
		EmbeddingOptions:    o.EmbeddingOptions,
		ChatOptions:         o.ChatOptions,
		RAGOptions:          o.RAGOptions,
		CacheOptions:        o.CacheOptions,
		ConversationOptions: o.ConversationOptions,
		ShutdownTimeout:     o.ShutdownTimeout,
	}, nil
}
