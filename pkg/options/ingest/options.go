// Package ingest provides options for the offline ingestion pipeline.
package ingest

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/coursemind/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// SegmentOptions selects the chunking policy.
type SegmentOptions struct {
	// Policy is "time" or "sentence".
	Policy string `json:"policy" mapstructure:"policy"`
	// MaxDuration bounds a time-bounded chunk.
	MaxDuration time.Duration `json:"max-duration" mapstructure:"max-duration"`
	// Terminators are the sentence-ending runes.
	Terminators string `json:"terminators" mapstructure:"terminators"`
}

// Options 入库流水线配置。
type Options struct {
	// CatalogPath 视频目录文件（.json / .yaml）。
	CatalogPath string `json:"catalog" mapstructure:"catalog"`

	// TranscriptsDir 转写结果目录。
	TranscriptsDir string `json:"transcripts-dir" mapstructure:"transcripts-dir"`

	// AudioDir 音频文件目录，仅转写命令使用。
	AudioDir string `json:"audio-dir" mapstructure:"audio-dir"`

	// Workers 并发准备阶段的 worker 数，提交阶段始终按目录顺序串行。
	Workers int `json:"workers" mapstructure:"workers"`

	// SourceLang / TargetLang 翻译的源语言和目标语言。
	SourceLang string `json:"source-lang" mapstructure:"source-lang"`
	TargetLang string `json:"target-lang" mapstructure:"target-lang"`

	// TranscribeCommand 外部转写命令，支持 {audio} / {output} 占位符。
	TranscribeCommand string `json:"transcribe-command" mapstructure:"transcribe-command"`

	// TranscribeTimeout 单个视频转写等待上限。
	TranscribeTimeout time.Duration `json:"transcribe-timeout" mapstructure:"transcribe-timeout"`

	// Recreate 入库前删除已有集合，重新从 0 分配 id。
	Recreate bool `json:"recreate" mapstructure:"recreate"`

	Segment *SegmentOptions `json:"segment" mapstructure:"segment"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		CatalogPath:       "configs/catalog.yaml",
		TranscriptsDir:    "transcripts",
		AudioDir:          "audio",
		Workers:           1,
		SourceLang:        "hi-IN",
		TargetLang:        "en",
		TranscribeTimeout: 2400 * time.Second,
		Segment: &SegmentOptions{
			Policy:      "time",
			MaxDuration: 45 * time.Second,
			Terminators: "।?!.",
		},
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "ingest."
	fs.StringVar(&o.CatalogPath, p+"catalog", o.CatalogPath, "Video catalog file (.json, .yaml or .yml).")
	fs.StringVar(&o.TranscriptsDir, p+"transcripts-dir", o.TranscriptsDir, "Directory holding transcript JSON files.")
	fs.StringVar(&o.AudioDir, p+"audio-dir", o.AudioDir, "Directory holding audio files for transcription.")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Videos prepared concurrently; records are still committed in catalog order.")
	fs.StringVar(&o.SourceLang, p+"source-lang", o.SourceLang, "Transcript language code.")
	fs.StringVar(&o.TargetLang, p+"target-lang", o.TargetLang, "Language stored documents are translated to.")
	fs.StringVar(&o.TranscribeCommand, p+"transcribe-command", o.TranscribeCommand, "External transcription command run for missing transcripts ({audio}, {output} placeholders).")
	fs.DurationVar(&o.TranscribeTimeout, p+"transcribe-timeout", o.TranscribeTimeout, "Upper bound on waiting for one transcription.")
	fs.BoolVar(&o.Recreate, p+"recreate", o.Recreate, "Drop the collection before ingesting.")

	if o.Segment == nil {
		o.Segment = &SegmentOptions{}
	}
	fs.StringVar(&o.Segment.Policy, p+"segment.policy", o.Segment.Policy, "Chunking policy: time or sentence.")
	fs.DurationVar(&o.Segment.MaxDuration, p+"segment.max-duration", o.Segment.MaxDuration, "Maximum chunk span for the time policy.")
	fs.StringVar(&o.Segment.Terminators, p+"segment.terminators", o.Segment.Terminators, "Sentence terminators for the sentence policy.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.CatalogPath == "" {
		errs = append(errs, fmt.Errorf("ingest.catalog is required"))
	}
	if o.TranscriptsDir == "" {
		errs = append(errs, fmt.Errorf("ingest.transcripts-dir is required"))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("ingest.workers must be positive"))
	}
	if o.TranscribeCommand != "" && o.TranscribeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ingest.transcribe-timeout must be positive"))
	}
	if o.Segment == nil {
		return append(errs, fmt.Errorf("ingest.segment is required"))
	}
	switch o.Segment.Policy {
	case "time":
		if o.Segment.MaxDuration <= 0 {
			errs = append(errs, fmt.Errorf("ingest.segment.max-duration must be positive"))
		}
	case "sentence":
		if o.Segment.Terminators == "" {
			errs = append(errs, fmt.Errorf("ingest.segment.terminators must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("ingest.segment.policy must be time or sentence, got %q", o.Segment.Policy))
	}
	return errs
}
