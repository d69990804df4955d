// Package grpc provides gRPC server configuration options.
package grpc

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/coursemind/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains gRPC server configuration. The gRPC listener only serves
// the standard health service and reflection.
type Options struct {
	// Enabled starts the gRPC listener.
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Addr is the address to listen on.
	Addr string `json:"addr" mapstructure:"addr"`
	// EnableReflection enables gRPC server reflection for tools like grpcurl.
	EnableReflection bool `json:"enable-reflection" mapstructure:"enable-reflection"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Enabled:          true,
		Addr:             ":9100",
		EnableReflection: true,
	}
}

// AddFlags adds flags for gRPC options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, options.Join(prefixes...)+"grpc.enabled", o.Enabled, "Start the gRPC health endpoint.")
	fs.StringVar(&o.Addr, options.Join(prefixes...)+"grpc.addr", o.Addr, "gRPC server listen address.")
	fs.BoolVar(&o.EnableReflection, options.Join(prefixes...)+"grpc.enable-reflection", o.EnableReflection, "Enable gRPC server reflection.")
}

// Validate validates the gRPC options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}
	if o.Addr == "" {
		return []error{fmt.Errorf("grpc.addr cannot be empty")}
	}
	return nil
}

// Complete completes the gRPC options with defaults.
func (o *Options) Complete() error {
	return nil
}
