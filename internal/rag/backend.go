package ragsvc

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/component/milvus"
	"github.com/kart-io/coursemind/pkg/component/postgres"
	"github.com/kart-io/coursemind/pkg/component/storage"
	"github.com/kart-io/coursemind/pkg/llm"
	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/coursemind/pkg/llm/gemini"
	_ "github.com/kart-io/coursemind/pkg/llm/ollama"
	_ "github.com/kart-io/coursemind/pkg/llm/openai"
	llmopts "github.com/kart-io/coursemind/pkg/options/llm"
	milvusopts "github.com/kart-io/coursemind/pkg/options/milvus"
	pgopts "github.com/kart-io/coursemind/pkg/options/postgres"
	storeopts "github.com/kart-io/coursemind/pkg/options/store"
)

// StoreConfig 知识库后端配置，服务和导入工具共用。
type StoreConfig struct {
	StoreOptions    *storeopts.Options
	MilvusOptions   *milvusopts.Options
	PostgresOptions *pgopts.Options
}

// openKnowledgeStore 按 backend 打开知识库，连接注册到 mgr 统一关闭。
// recreate 为 true 时先删除已有集合。
func openKnowledgeStore(ctx context.Context, cfg *StoreConfig, mgr *storage.Manager, recreate bool) (store.KnowledgeStore, error) {
	opts := cfg.StoreOptions

	var ks store.KnowledgeStore
	switch opts.Backend {
	case storeopts.BackendMilvus:
		client, err := milvus.New(ctx, cfg.MilvusOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize milvus: %w", err)
		}
		if err := mgr.Register("milvus", client); err != nil {
			_ = client.Close()
			return nil, err
		}
		ks = store.NewMilvusStore(client, opts.Collection, opts.Dimension)
	case storeopts.BackendPGVector:
		client, err := postgres.New(ctx, cfg.PostgresOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		if err := mgr.Register("postgres", client); err != nil {
			_ = client.Close()
			return nil, err
		}
		ks = store.NewPGVectorStore(client.Pool(), opts.Collection, opts.Dimension)
	case storeopts.BackendMemory:
		logger.Warn("Using in-memory knowledge store, records are lost on exit")
		ks = store.NewMemoryStore(opts.Dimension)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", opts.Backend)
	}

	if recreate {
		logger.Warnw("Dropping knowledge store collection", "backend", opts.Backend, "collection", opts.Collection)
		if err := ks.DropCollection(ctx); err != nil {
			return nil, fmt.Errorf("failed to drop collection %s: %w", opts.Collection, err)
		}
	}
	if err := ks.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure collection %s: %w", opts.Collection, err)
	}
	logger.Infow("Knowledge store initialized",
		"backend", opts.Backend,
		"collection", opts.Collection,
		"dimension", opts.Dimension,
	)
	return ks, nil
}

// newEmbeddingProvider 创建向量化供应商。
func newEmbeddingProvider(opts *llmopts.ProviderOptions) (llm.EmbeddingProvider, error) {
	p, err := llm.NewEmbeddingProvider(opts.Provider, opts.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	logger.Infow("Embedding provider initialized", "provider", opts.Provider, "model", opts.Model)
	return p, nil
}

// newChatProvider 创建对话供应商。
func newChatProvider(opts *llmopts.ProviderOptions) (llm.ChatProvider, error) {
	p, err := llm.NewChatProvider(opts.Provider, opts.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	logger.Infow("Chat provider initialized", "provider", opts.Provider, "model", opts.Model)
	return p, nil
}
