// Package rag provides query-path configuration options.
package rag

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/coursemind/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains query-path configuration. TopK and SourceCap are
// hot-reloadable.
type Options struct {
	// TopK is the number of records retrieved per question.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// SourceCap limits distinct source URLs in an answer; 0 means unbounded.
	SourceCap int `json:"source-cap" mapstructure:"source-cap"`

	// CourseName is used in the assistant persona.
	CourseName string `json:"course-name" mapstructure:"course-name"`

	// DefaultLanguage 预留给单语言部署，当前只用于日志。
	DefaultLanguage string `json:"default-language" mapstructure:"default-language"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		TopK:            7,
		SourceCap:       3,
		CourseName:      "Sigma Web Development",
		DefaultLanguage: "en",
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"rag.top-k", o.TopK, "Number of transcript segments retrieved per question.")
	fs.IntVar(&o.SourceCap, options.Join(prefixes...)+"rag.source-cap", o.SourceCap, "Maximum distinct sources per answer (0 = unbounded).")
	fs.StringVar(&o.CourseName, options.Join(prefixes...)+"rag.course-name", o.CourseName, "Course name used in the assistant persona.")
	fs.StringVar(&o.DefaultLanguage, options.Join(prefixes...)+"rag.default-language", o.DefaultLanguage, "Language answers are written in.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("rag.top-k must be positive"))
	}
	if o.SourceCap < 0 {
		errs = append(errs, fmt.Errorf("rag.source-cap must not be negative"))
	}
	if o.CourseName == "" {
		errs = append(errs, fmt.Errorf("rag.course-name is required"))
	}
	return errs
}

// Complete completes the RAG options with defaults.
func (o *Options) Complete() error {
	if o.DefaultLanguage == "" {
		o.DefaultLanguage = "en"
	}
	return nil
}
