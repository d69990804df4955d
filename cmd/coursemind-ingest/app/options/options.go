// Package options contains flags and options for the ingestion command.
package options

import (
	"fmt"
	"os"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	ragsvc "github.com/kart-io/coursemind/internal/rag"
	cliflag "github.com/kart-io/coursemind/pkg/app/cliflag"
	ingestopts "github.com/kart-io/coursemind/pkg/options/ingest"
	llmopts "github.com/kart-io/coursemind/pkg/options/llm"
	logopts "github.com/kart-io/coursemind/pkg/options/logger"
	milvusopts "github.com/kart-io/coursemind/pkg/options/milvus"
	pgopts "github.com/kart-io/coursemind/pkg/options/postgres"
	storeopts "github.com/kart-io/coursemind/pkg/options/store"
	tracingopts "github.com/kart-io/coursemind/pkg/options/tracing"
	translateopts "github.com/kart-io/coursemind/pkg/options/translate"
)

// IngestOptions contains the configuration options for one ingestion run.
type IngestOptions struct {
	LogOptions       *logopts.Options         `json:"log" mapstructure:"log"`
	TracingOptions   *tracingopts.Options     `json:"tracing" mapstructure:"tracing"`
	StoreOptions     *storeopts.Options       `json:"store" mapstructure:"store"`
	MilvusOptions    *milvusopts.Options      `json:"milvus" mapstructure:"milvus"`
	PostgresOptions  *pgopts.Options          `json:"postgres" mapstructure:"postgres"`
	EmbeddingOptions *llmopts.ProviderOptions `json:"embedding" mapstructure:"embedding"`
	// ChatOptions is used by the llm translator only.
	ChatOptions      *llmopts.ProviderOptions `json:"chat" mapstructure:"chat"`
	TranslateOptions *translateopts.Options   `json:"translate" mapstructure:"translate"`
	IngestOptions    *ingestopts.Options      `json:"ingest" mapstructure:"ingest"`

	// Output is the report format: table or json.
	Output string `json:"output" mapstructure:"output"`
}

// NewIngestOptions creates an IngestOptions instance with default values.
func NewIngestOptions() *IngestOptions {
	return &IngestOptions{
		LogOptions:       logopts.NewOptions(),
		TracingOptions:   tracingopts.NewOptions(),
		StoreOptions:     storeopts.NewOptions(),
		MilvusOptions:    milvusopts.NewOptions(),
		PostgresOptions:  pgopts.NewOptions(),
		EmbeddingOptions: llmopts.NewEmbeddingOptions(),
		ChatOptions:      llmopts.NewChatOptions(),
		TranslateOptions: translateopts.NewOptions(),
		IngestOptions:    ingestopts.NewOptions(),
		Output:           ragsvc.ReportTable,
	}
}

// Flags returns flags grouped by section name.
func (o *IngestOptions) Flags() (fss cliflag.NamedFlagSets) {
	o.IngestOptions.AddFlags(fss.FlagSet("ingest"))
	o.TranslateOptions.AddFlags(fss.FlagSet("translate"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	o.MilvusOptions.AddFlags(fss.FlagSet("milvus"))
	o.PostgresOptions.AddFlags(fss.FlagSet("postgres"))
	o.EmbeddingOptions.AddFlags(fss.FlagSet("embedding"))
	o.ChatOptions.AddFlags(fss.FlagSet("chat"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	o.TracingOptions.AddFlags(fss.FlagSet("tracing"))

	fs := fss.FlagSet("misc")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Report format: table or json.")

	return fss
}

// Complete completes all the required options.
func (o *IngestOptions) Complete() error {
	if err := o.LogOptions.Complete(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := o.EmbeddingOptions.Complete(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := o.ChatOptions.Complete(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if err := o.TranslateOptions.Complete(); err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	return nil
}

// Validate checks whether the options are valid.
func (o *IngestOptions) Validate() error {
	errs := []error{}

	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)
	errs = append(errs, o.StoreOptions.Validate()...)
	switch o.StoreOptions.Backend {
	case storeopts.BackendMilvus:
		errs = append(errs, o.MilvusOptions.Validate()...)
	case storeopts.BackendPGVector:
		errs = append(errs, o.PostgresOptions.Validate()...)
	case storeopts.BackendMemory:
		errs = append(errs, fmt.Errorf("store.backend memory cannot persist an ingestion run"))
	}
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	if o.TranslateOptions.Provider == "llm" {
		errs = append(errs, o.ChatOptions.Validate()...)
	}
	errs = append(errs, o.TranslateOptions.Validate()...)
	errs = append(errs, o.IngestOptions.Validate()...)
	if o.Output != ragsvc.ReportTable && o.Output != ragsvc.ReportJSON {
		errs = append(errs, fmt.Errorf("output must be table or json, got %q", o.Output))
	}

	return utilerrors.NewAggregate(errs)
}

// Config builds a ragsvc.IngestConfig; the report goes to stdout.
func (o *IngestOptions) Config() (*ragsvc.IngestConfig, error) {
	return &ragsvc.IngestConfig{
		StoreConfig: ragsvc.StoreConfig{
			StoreOptions:    o.StoreOptions,
			MilvusOptions:   o.MilvusOptions,
			PostgresOptions: o.PostgresOptions,
		},
		LogOptions:       o.LogOptions,
		TracingOptions:   o.TracingOptions,
		IngestOptions:    o.IngestOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		ChatOptions:      o.ChatOptions,
		TranslateOptions: o.TranslateOptions,
		ReportFormat:     o.Output,
		Output:           os.Stdout,
	}, nil
}
