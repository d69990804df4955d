package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider 模拟供应商实现，用于测试。
type mockProvider struct {
	name string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = []float32{0.1, 0.2, 0.3}
	}
	return result, nil
}

func (m *mockProvider) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockProvider) Chat(_ context.Context, _ []Message) (string, error) {
	return "mock response", nil
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ string) (string, error) {
	return "mock generated text", nil
}

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("test-provider", func(config map[string]any) (Provider, error) {
		return &mockProvider{name: ConfigString(config, "name", "test-provider")}, nil
	})

	p, err := NewProvider("test-provider", map[string]any{"name": "custom-name"})
	require.NoError(t, err)
	assert.Equal(t, "custom-name", p.Name())

	e, err := NewEmbeddingProvider("test-provider", nil)
	require.NoError(t, err)
	assert.Equal(t, "test-provider", e.Name())

	c, err := NewChatProvider("test-provider", nil)
	require.NoError(t, err)
	assert.Equal(t, "test-provider", c.Name())

	assert.Contains(t, ListProviders(), "test-provider")
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("unknown-provider", nil)
	assert.Error(t, err)
	_, err = NewEmbeddingProvider("unknown-provider", nil)
	assert.Error(t, err)
}

func TestConfigHelpers(t *testing.T) {
	cfg := map[string]any{"a": "x", "empty": "", "d": 3 * time.Second, "neg": -time.Second, "wrong": 5}

	assert.Equal(t, "x", ConfigString(cfg, "a", "def"))
	assert.Equal(t, "def", ConfigString(cfg, "empty", "def"))
	assert.Equal(t, "def", ConfigString(cfg, "wrong", "def"))
	assert.Equal(t, "def", ConfigString(nil, "a", "def"))

	assert.Equal(t, 3*time.Second, ConfigDuration(cfg, "d", time.Minute))
	assert.Equal(t, time.Minute, ConfigDuration(cfg, "neg", time.Minute))
	assert.Equal(t, time.Minute, ConfigDuration(cfg, "missing", time.Minute))
}
