package logger

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	o := NewOptions()
	o.Level = " debug "
	o.OutputPaths = nil

	require.NoError(t, o.Complete())
	assert.Equal(t, "DEBUG", o.Level)
	assert.Equal(t, []string{"stdout"}, o.OutputPaths)
	assert.Empty(t, o.Validate())
}

func TestAddFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--log.level=WARN", "--log.format=console", "--log.rotation.max-age=3"}))
	assert.Equal(t, "WARN", o.Level)
	assert.Equal(t, "console", o.Format)
	assert.Equal(t, 3, o.Rotation.MaxAge)
}

func TestValidateNil(t *testing.T) {
	var o *Options
	assert.Nil(t, o.Validate())
}
