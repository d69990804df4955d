// Package logger holds the log section of the configuration.
package logger

import (
	"fmt"
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/option"
	"github.com/spf13/pflag"
)

// Options is the "log" section. Fields live on the embedded LogOption so the
// same struct can be handed to logger.New.
type Options struct {
	*option.LogOption
}

// NewOptions returns the defaults: INFO, json, stdout.
func NewOptions() *Options {
	o := option.DefaultLogOption()
	if o.Rotation == nil {
		o.Rotation = &option.RotationOption{MaxSize: 100, MaxAge: 15, MaxBackups: 30, Compress: true}
	}
	return &Options{LogOption: o}
}

// AddFlags binds the log flags. Rotation only applies to file outputs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Engine, "log.engine", o.Engine, "Logging engine (zap|slog)")
	fs.StringVar(&o.Level, "log.level", o.Level, "Log level (DEBUG|INFO|WARN|ERROR)")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log format (json|console)")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Log outputs: stdout, stderr or file paths")
	fs.BoolVar(&o.Development, "log.development", o.Development, "Development mode: console-friendly output with stack traces on warn")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Omit the caller field")
	fs.BoolVar(&o.DisableStacktrace, "log.disable-stacktrace", o.DisableStacktrace, "Omit stack traces")

	fs.IntVar(&o.Rotation.MaxSize, "log.rotation.max-size", o.Rotation.MaxSize, "Rotate file outputs after this many MB")
	fs.IntVar(&o.Rotation.MaxAge, "log.rotation.max-age", o.Rotation.MaxAge, "Days to keep rotated files")
	fs.IntVar(&o.Rotation.MaxBackups, "log.rotation.max-backups", o.Rotation.MaxBackups, "Rotated files to keep")
	fs.BoolVar(&o.Rotation.Compress, "log.rotation.compress", o.Rotation.Compress, "Gzip rotated files")
}

// Complete normalizes the level and falls back to stdout.
func (o *Options) Complete() error {
	o.Level = strings.ToUpper(strings.TrimSpace(o.Level))
	if len(o.OutputPaths) == 0 {
		o.OutputPaths = []string{"stdout"}
	}
	return nil
}

// Validate validates the log section.
func (o *Options) Validate() []error {
	if o == nil || o.LogOption == nil {
		return nil
	}
	if err := o.LogOption.Validate(); err != nil {
		return []error{fmt.Errorf("log: %w", err)}
	}
	return nil
}

// Init builds a logger from the options and installs it as the global one.
// The previous global logger stays in place when building fails.
func (o *Options) Init() error {
	l, err := logger.New(o.LogOption)
	if err != nil {
		return err
	}
	logger.SetGlobal(l)
	return nil
}
