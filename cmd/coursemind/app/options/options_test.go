package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeopts "github.com/kart-io/coursemind/pkg/options/store"
)

func TestServerOptionsFlags(t *testing.T) {
	fss := NewServerOptions().Flags()
	assert.Equal(t, []string{
		"http", "grpc", "log", "tracing", "store", "milvus", "postgres",
		"embedding", "chat", "rag", "cache", "conversation", "misc",
	}, fss.Order)
	assert.NotNil(t, fss.FlagSets["rag"].Lookup("rag.top-k"))
	assert.NotNil(t, fss.FlagSets["cache"].Lookup("cache.redis.host"))
	assert.NotNil(t, fss.FlagSets["conversation"].Lookup("conversation.postgres.host"))
}

func TestServerOptionsValidate(t *testing.T) {
	o := NewServerOptions()
	o.ChatOptions.APIKey = "key"
	require.NoError(t, o.Validate())

	o.RAGOptions.TopK = 0
	o.StoreOptions.Backend = "faiss"
	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top-k")
	assert.Contains(t, err.Error(), "faiss")
}

func TestServerOptionsConfig(t *testing.T) {
	o := NewServerOptions()
	o.StoreOptions.Backend = storeopts.BackendPGVector

	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Same(t, o.PostgresOptions, cfg.PostgresOptions)
	assert.Same(t, o.RAGOptions, cfg.RAGOptions)
	assert.Equal(t, o.ShutdownTimeout, cfg.ShutdownTimeout)
}
