package app

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "COURSEMIND", EnvPrefix("coursemind"))
	assert.Equal(t, "COURSEMIND_INGEST", EnvPrefix("coursemind-ingest"))
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CM_TEST_KEY", "sk-123")

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
chat:
  api-key: ${CM_TEST_KEY}
  base-url: http://$CM_TEST_UNSET_HOST:11434
rag:
  top-k: 7
`)))

	ExpandEnvVars(v)
	assert.Equal(t, "sk-123", v.GetString("chat.api-key"))
	assert.Equal(t, "http://$CM_TEST_UNSET_HOST:11434", v.GetString("chat.base-url"))
	assert.Equal(t, 7, v.GetInt("rag.top-k"))
}
