package biz

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/coursemind/internal/rag/metrics"
	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/infra/config"
	"github.com/kart-io/coursemind/pkg/infra/tracing"
	ragopts "github.com/kart-io/coursemind/pkg/options/rag"
	"github.com/kart-io/coursemind/pkg/utils/json"
)

// AskRequest 问答请求。
type AskRequest struct {
	Query          string `json:"query" validate:"notblank"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// AskResponse 问答响应。
type AskResponse struct {
	Answer         string   `json:"answer"`
	Sources        []Source `json:"sources"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// Service 定义问答服务接口。
type Service interface {
	// Ask 回答一个问题。
	Ask(ctx context.Context, req *AskRequest) (*AskResponse, error)
	// Stats 返回知识库与业务指标统计。
	Stats(ctx context.Context) (map[string]any, error)
	// Ready 初始化完成后返回 true。
	Ready() bool
}

// ConversationRepo 会话持久化接口，由 store.ConversationStore 实现。
type ConversationRepo interface {
	Create(ctx context.Context, query string) (*store.Conversation, error)
	Get(ctx context.Context, convID string) (*store.Conversation, error)
	List(ctx context.Context, limit int) ([]*store.Conversation, error)
	AppendMessages(ctx context.Context, convID string, msgs ...*store.Message) error
	Messages(ctx context.Context, convID string) ([]*store.Message, error)
	Delete(ctx context.Context, convID string) error
	DeleteAll(ctx context.Context) (int64, error)
}

// Deps 是 RAGService 的全部依赖，由服务启动阶段显式构造。
type Deps struct {
	Store         store.KnowledgeStore
	Embedder      *Embedder
	Generator     *Generator
	Cache         *QueryCache      // 可选
	Conversations ConversationRepo // 可选
	Metrics       *metrics.RAGMetrics
	StoreName     string
	Collection    string
}

// RAGService 组合检索、上下文拼接和生成，提供问答服务。
// 依赖在构造时注入；初始化阶段结束后调用 MarkReady 才开始接受请求。
type RAGService struct {
	deps      Deps
	retriever *Retriever
	ready     atomic.Bool
	topK      atomic.Int64
	sourceCap atomic.Int64
}

var (
	_ Service           = (*RAGService)(nil)
	_ config.Reloadable = (*RAGService)(nil)
)

// NewRAGService 创建问答服务实例，初始为未就绪。
func NewRAGService(deps Deps, opts *ragopts.Options) *RAGService {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	s := &RAGService{
		deps:      deps,
		retriever: NewRetriever(deps.Store, deps.Embedder),
	}
	s.topK.Store(int64(opts.TopK))
	s.sourceCap.Store(int64(opts.SourceCap))
	return s
}

// MarkReady 标记初始化完成。
func (s *RAGService) MarkReady() {
	s.ready.Store(true)
	logger.Infow("rag service ready", "top_k", s.topK.Load(), "source_cap", s.sourceCap.Load())
}

// Ready 实现 Service。
func (s *RAGService) Ready() bool { return s.ready.Load() }

// Metrics returns the metrics collector.
func (s *RAGService) Metrics() *metrics.RAGMetrics { return s.deps.Metrics }

// Conversations returns the conversation repository, nil when disabled.
func (s *RAGService) Conversations() ConversationRepo { return s.deps.Conversations }

// OnConfigChange 热更新 rag.top-k 和 rag.source-cap。
func (s *RAGService) OnConfigChange(newConfig any) error {
	opts, ok := newConfig.(*ragopts.Options)
	if !ok {
		return fmt.Errorf("unexpected config type %T", newConfig)
	}
	if opts.TopK <= 0 {
		return fmt.Errorf("rag.top-k must be positive, got %d", opts.TopK)
	}
	if opts.SourceCap < 0 {
		return fmt.Errorf("rag.source-cap must not be negative, got %d", opts.SourceCap)
	}

	s.topK.Store(int64(opts.TopK))
	s.sourceCap.Store(int64(opts.SourceCap))
	logger.Infow("rag config reloaded", "top_k", opts.TopK, "source_cap", opts.SourceCap)
	return nil
}

// Ask 回答一个问题。
func (s *RAGService) Ask(ctx context.Context, req *AskRequest) (resp *AskResponse, err error) {
	cacheHit := false
	defer func() {
		kind := ""
		if err != nil {
			kind = errorKind(err)
		}
		s.deps.Metrics.RecordQuery(cacheHit, kind)
	}()

	query := ""
	if req != nil {
		query = strings.TrimSpace(req.Query)
	}
	if query == "" {
		return nil, errors.ErrInvalidQuery
	}
	if !s.Ready() {
		return nil, errors.ErrNotReady
	}

	ctx, span := tracing.StartSpan(ctx, "rag.Ask", attribute.Int(tracing.AttrQuery, len(query)))
	defer span.End()

	// 未知会话在检索前拒绝
	if req.ConversationID != "" && s.deps.Conversations != nil {
		if _, err := s.deps.Conversations.Get(ctx, req.ConversationID); err != nil {
			return nil, err
		}
	}

	k, sourceCap := int(s.topK.Load()), int(s.sourceCap.Load())

	if s.deps.Cache != nil {
		if cached := s.deps.Cache.Get(ctx, query, k, sourceCap); cached != nil {
			cacheHit = true
			cached.ConversationID = s.persist(ctx, req.ConversationID, query, cached)
			return cached, nil
		}
	}

	start := time.Now()
	results, err := s.retriever.Retrieve(ctx, query, k)
	s.deps.Metrics.RecordRetrieval(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	contextText, sources := Assemble(results, sourceCap)
	span.SetAttributes(attribute.Int(tracing.AttrSources, len(sources)))

	start = time.Now()
	answer, err := s.deps.Generator.Generate(ctx, query, contextText)
	s.deps.Metrics.RecordGeneration(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	resp = &AskResponse{Answer: answer, Sources: sources}
	if s.deps.Cache != nil {
		s.deps.Cache.Set(ctx, query, k, sourceCap, resp)
	}
	resp.ConversationID = s.persist(ctx, req.ConversationID, query, resp)

	logger.Infow("question answered", "results", len(results), "sources", len(sources), "conversation_id", resp.ConversationID)
	return resp, nil
}

// persist 保存问答到会话，返回会话 id。持久化失败只记日志。
// 会话存储关闭时原样返回请求中的 id。
func (s *RAGService) persist(ctx context.Context, convID, query string, resp *AskResponse) string {
	if s.deps.Conversations == nil {
		return convID
	}

	if convID == "" {
		conv, err := s.deps.Conversations.Create(ctx, query)
		if err != nil {
			logger.Warnw("failed to create conversation", "error", err)
			return ""
		}
		convID = conv.ID
	}

	sources, err := json.Marshal(resp.Sources)
	if err != nil {
		logger.Warnw("failed to marshal sources", "error", err)
	}
	err = s.deps.Conversations.AppendMessages(ctx, convID,
		&store.Message{Role: store.RoleUser, Content: query},
		&store.Message{Role: store.RoleAssistant, Content: resp.Answer, Sources: string(sources)},
	)
	if err != nil {
		logger.Warnw("failed to persist conversation messages", "conversation_id", convID, "error", err)
	}
	return convID
}

// Stats 返回知识库记录数、后端信息和业务指标。
func (s *RAGService) Stats(ctx context.Context) (map[string]any, error) {
	if !s.Ready() {
		return nil, errors.ErrNotReady
	}

	count, err := s.deps.Store.Count(ctx)
	if err != nil {
		return nil, errors.ErrRetrievalFailed.WithCause(err)
	}

	return map[string]any{
		"store":          s.deps.StoreName,
		"collection":     s.deps.Collection,
		"record_count":   count,
		"embed_provider": s.deps.Embedder.Name(),
		"chat_provider":  s.deps.Generator.Name(),
		"top_k":          s.topK.Load(),
		"source_cap":     s.sourceCap.Load(),
		"metrics":        s.deps.Metrics.Stats(),
	}, nil
}
