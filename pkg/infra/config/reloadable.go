package config

// Reloadable is implemented by components that apply configuration changes
// without a restart. Implementations validate first and apply atomically.
type Reloadable interface {
	OnConfigChange(newConfig any) error
}
