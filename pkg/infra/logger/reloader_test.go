package logger

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/coursemind/pkg/infra/config"
	logopts "github.com/kart-io/coursemind/pkg/options/logger"
)

func TestReloaderAppliesLevel(t *testing.T) {
	opts := logopts.NewOptions()
	opts.Level = "INFO"
	require.NoError(t, opts.Init())

	r := NewReloader(opts)
	next := r.Target()
	next.Level = "DEBUG"
	next.Format = opts.Format

	require.NoError(t, r.OnConfigChange(next))
	assert.Equal(t, "DEBUG", r.Level())
	assert.Equal(t, "DEBUG", opts.Level)
}

func TestReloaderRejectsWrongType(t *testing.T) {
	opts := logopts.NewOptions()
	r := NewReloader(opts)
	before := opts.Level

	err := r.OnConfigChange(&logopts.Options{})
	assert.ErrorContains(t, err, "invalid config type")
	assert.Equal(t, before, r.Level())
}

func TestReloaderViaWatcher(t *testing.T) {
	opts := logopts.NewOptions()
	opts.Level = "INFO"
	require.NoError(t, opts.Init())

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("log:\n  level: WARN\n")))

	r := NewReloader(opts)
	w := config.NewWatcher(v)
	w.Subscribe(ConfigKey, config.NewReloadableSubscriber(r, ConfigKey, r.Target()).Handler())

	assert.Equal(t, 0, w.Notify())
	assert.Equal(t, "WARN", r.Level())
}
