// Package conversation provides options for conversation persistence.
package conversation

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/coursemind/pkg/options"
	mysqlopts "github.com/kart-io/coursemind/pkg/options/mysql"
	pgopts "github.com/kart-io/coursemind/pkg/options/postgres"
)

var _ options.IOptions = (*Options)(nil)

// Supported conversation database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Options 会话持久化配置。
type Options struct {
	// Enabled 是否持久化会话。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Driver 数据库驱动：sqlite, postgres, mysql。
	Driver string `json:"driver" mapstructure:"driver"`

	// SQLitePath sqlite 数据库文件路径。
	SQLitePath string `json:"sqlite-path" mapstructure:"sqlite-path"`

	// ListLimit 会话列表默认返回条数。
	ListLimit int `json:"list-limit" mapstructure:"list-limit"`

	Postgres *pgopts.Options    `json:"postgres" mapstructure:"postgres"`
	MySQL    *mysqlopts.Options `json:"mysql" mapstructure:"mysql"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Enabled:    true,
		Driver:     DriverSQLite,
		SQLitePath: "_output/data/conversations.db",
		ListLimit:  50,
		Postgres:   pgopts.NewOptions(),
		MySQL:      mysqlopts.NewOptions(),
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "conversation."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Persist conversations and messages.")
	fs.StringVar(&o.Driver, p+"driver", o.Driver, "Conversation database driver: sqlite, postgres or mysql.")
	fs.StringVar(&o.SQLitePath, p+"sqlite-path", o.SQLitePath, "SQLite database file.")
	fs.IntVar(&o.ListLimit, p+"list-limit", o.ListLimit, "Default number of conversations returned by the list endpoint.")

	if o.Postgres == nil {
		o.Postgres = pgopts.NewOptions()
	}
	if o.MySQL == nil {
		o.MySQL = mysqlopts.NewOptions()
	}
	o.Postgres.AddFlags(fs, append(prefixes, "conversation")...)
	o.MySQL.AddFlags(fs, append(prefixes, "conversation")...)
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}

	var errs []error
	switch o.Driver {
	case DriverSQLite:
		if o.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("conversation.sqlite-path is required for sqlite"))
		}
	case DriverPostgres:
		errs = append(errs, o.Postgres.Validate()...)
	case DriverMySQL:
		errs = append(errs, o.MySQL.Validate()...)
	default:
		errs = append(errs, fmt.Errorf("conversation.driver must be sqlite, postgres or mysql, got %q", o.Driver))
	}
	if o.ListLimit <= 0 {
		errs = append(errs, fmt.Errorf("conversation.list-limit must be positive"))
	}
	return errs
}
