// Package app defines the contract between command options and the
// application bootstrap.
package app

import "github.com/kart-io/coursemind/pkg/app/cliflag"

// CliOptions abstracts configuration options for reading parameters from the
// command line, config file and environment.
type CliOptions interface {
	// Flags returns the option flags grouped by section.
	Flags() cliflag.NamedFlagSets
	// Complete fills in derived and default values.
	Complete() error
	// Validate validates the options.
	Validate() error
}
