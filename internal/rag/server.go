// Package ragsvc wires the course question-answering service and the
// transcript ingestion run.
package ragsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"github.com/spf13/viper"

	"github.com/kart-io/coursemind/internal/pkg/middleware"
	"github.com/kart-io/coursemind/internal/rag/biz"
	"github.com/kart-io/coursemind/internal/rag/handler"
	"github.com/kart-io/coursemind/internal/rag/metrics"
	"github.com/kart-io/coursemind/internal/rag/router"
	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/component/database"
	"github.com/kart-io/coursemind/pkg/component/redis"
	"github.com/kart-io/coursemind/pkg/component/storage"
	"github.com/kart-io/coursemind/pkg/infra/app"
	"github.com/kart-io/coursemind/pkg/infra/config"
	logreload "github.com/kart-io/coursemind/pkg/infra/logger"
	"github.com/kart-io/coursemind/pkg/infra/server"
	"github.com/kart-io/coursemind/pkg/infra/tracing"
	cacheopts "github.com/kart-io/coursemind/pkg/options/cache"
	convopts "github.com/kart-io/coursemind/pkg/options/conversation"
	llmopts "github.com/kart-io/coursemind/pkg/options/llm"
	logopts "github.com/kart-io/coursemind/pkg/options/logger"
	ragopts "github.com/kart-io/coursemind/pkg/options/rag"
	grpcopts "github.com/kart-io/coursemind/pkg/options/server/grpc"
	httpopts "github.com/kart-io/coursemind/pkg/options/server/http"
	tracingopts "github.com/kart-io/coursemind/pkg/options/tracing"
)

// Name is the name of the application.
const Name = "coursemind"

// Config contains application-related configurations.
type Config struct {
	StoreConfig

	HTTPOptions         *httpopts.Options
	GRPCOptions         *grpcopts.Options
	LogOptions          *logopts.Options
	TracingOptions      *tracingopts.Options
	EmbeddingOptions    *llmopts.ProviderOptions
	ChatOptions         *llmopts.ProviderOptions
	RAGOptions          *ragopts.Options
	CacheOptions        *cacheopts.Options
	ConversationOptions *convopts.Options
	ShutdownTimeout     time.Duration
}

// Server represents the question-answering server.
type Server struct {
	srv      *server.Manager
	service  *biz.RAGService
	http     *server.HTTPServer
	grpc     *server.GRPCServer
	storage  *storage.Manager
	tracer   *tracing.Provider
	watcher  *config.Watcher
	shutdown time.Duration
}

// NewServer initializes and returns a new Server instance. The service is
// marked ready only after every dependency is constructed.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	printBanner(cfg)

	// 1. 初始化日志
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting course QA service...")

	// 2. 初始化链路追踪
	if cfg.TracingOptions.ServiceName == "" {
		cfg.TracingOptions.ServiceName = Name
	}
	tracer, err := tracing.NewProvider(ctx, cfg.TracingOptions, app.GetVersion())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	s := &Server{
		storage:  storage.NewManager(),
		tracer:   tracer,
		shutdown: cfg.ShutdownTimeout,
	}
	ok := false
	defer func() {
		if !ok {
			s.release()
		}
	}()

	// 3. 初始化知识库
	knowledge, err := openKnowledgeStore(ctx, &cfg.StoreConfig, s.storage, false)
	if err != nil {
		return nil, err
	}

	// 4. 初始化 Redis 缓存（失败时降级为无缓存）
	queryCache := cfg.newQueryCache(ctx, s.storage)

	// 5. 初始化会话存储
	var conversations biz.ConversationRepo
	if cfg.ConversationOptions.Enabled {
		db, err := database.Open(ctx, cfg.ConversationOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize conversation database: %w", err)
		}
		if err := s.storage.Register("conversations", db); err != nil {
			_ = db.Close()
			return nil, err
		}
		convStore := store.NewConversationStore(db.DB())
		if err := convStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate conversation tables: %w", err)
		}
		conversations = convStore
		logger.Infow("Conversation store initialized", "driver", cfg.ConversationOptions.Driver)
	} else {
		logger.Info("Conversation persistence is disabled")
	}

	// 6. 初始化 LLM 供应商
	embedProvider, err := newEmbeddingProvider(cfg.EmbeddingOptions)
	if err != nil {
		return nil, err
	}
	chatProvider, err := newChatProvider(cfg.ChatOptions)
	if err != nil {
		return nil, err
	}

	// 7. 初始化 Biz 层
	ragMetrics := metrics.New()
	s.service = biz.NewRAGService(biz.Deps{
		Store:         knowledge,
		Embedder:      biz.NewEmbedder(embedProvider),
		Generator:     biz.NewGenerator(chatProvider, &biz.GeneratorConfig{CourseName: cfg.RAGOptions.CourseName}),
		Cache:         queryCache,
		Conversations: conversations,
		Metrics:       ragMetrics,
		StoreName:     cfg.StoreOptions.Backend,
		Collection:    cfg.StoreOptions.Collection,
	}, cfg.RAGOptions)

	// 8. 初始化 Handler 层
	ragHandler := handler.NewRAGHandler(handler.Deps{
		Service:       s.service,
		Conversations: conversations,
		Metrics:       ragMetrics,
		Health:        s.storage,
		Records:       knowledge,
		ListLimit:     cfg.ConversationOptions.ListLimit,
	})

	// 9. 初始化服务器并注册路由
	s.srv = server.NewManager(cfg.ShutdownTimeout)
	s.http = server.NewHTTPServer(cfg.HTTPOptions,
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.BodyLimit(cfg.HTTPOptions.MaxBodyBytes),
		middleware.Tracing(router.HealthPaths...),
		middleware.Logger(router.HealthPaths...),
	)
	router.Register(s.http.Engine(), ragHandler)
	s.srv.Add(s.http)

	if cfg.GRPCOptions.Enabled {
		s.grpc = server.NewGRPCServer(cfg.GRPCOptions)
		s.srv.Add(s.grpc)
	}

	// 10. 监听配置变更，热更新 top-k / source-cap 与日志级别
	s.watcher = config.NewWatcher(viper.GetViper())
	s.watcher.Subscribe("rag", config.NewReloadableSubscriber(s.service, "rag", &ragopts.Options{}).Handler())
	logReloader := logreload.NewReloader(cfg.LogOptions)
	s.watcher.Subscribe(logreload.ConfigKey,
		config.NewReloadableSubscriber(logReloader, logreload.ConfigKey, logReloader.Target()).Handler())

	ok = true
	return s, nil
}

// newQueryCache 连接 Redis；不可用时只记录警告，服务照常启动。
func (cfg *Config) newQueryCache(ctx context.Context, mgr *storage.Manager) *biz.QueryCache {
	if !cfg.CacheOptions.Enabled {
		logger.Info("Cache is disabled")
		return nil
	}

	client, err := redis.New(ctx, cfg.CacheOptions.Redis)
	if err != nil {
		logger.Warnw("failed to connect to redis, cache will be disabled", "error", err.Error())
		return nil
	}
	if err := mgr.Register("redis", client); err != nil {
		_ = client.Close()
		logger.Warnw("failed to register redis client, cache will be disabled", "error", err.Error())
		return nil
	}

	logger.Infow("Redis cache initialized",
		"addr", cfg.CacheOptions.Redis.Addr(),
		"ttl", cfg.CacheOptions.TTL,
	)
	return biz.NewQueryCache(client.Client(), &biz.QueryCacheConfig{
		TTL:       cfg.CacheOptions.TTL,
		KeyPrefix: cfg.CacheOptions.KeyPrefix,
	})
}

// Run starts the listeners, marks the service ready and blocks until
// shutdown.
func (s *Server) Run(ctx context.Context) error {
	defer s.release()

	if err := s.srv.Start(ctx); err != nil {
		return err
	}
	s.service.MarkReady()
	if s.grpc != nil {
		s.grpc.SetServing(true)
	}
	s.watcher.Start()

	logger.Info("Course QA service is ready")
	return s.srv.Wait(ctx)
}

// release closes backend connections and flushes pending spans.
func (s *Server) release() {
	var errs []error
	if err := s.storage.CloseAll(); err != nil {
		errs = append(errs, err)
	}

	timeout := s.shutdown
	if timeout <= 0 {
		timeout = server.DefaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		logger.Warnw("failed to release resources", "error", err.Error())
	}
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  Store: %s (%s)\n", cfg.StoreOptions.Backend, cfg.StoreOptions.Collection)
	fmt.Printf("  Embedding: %s (%s)\n", cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.Model)
	fmt.Printf("  Chat: %s (%s)\n", cfg.ChatOptions.Provider, cfg.ChatOptions.Model)
	fmt.Printf("  HTTP: %s\n", cfg.HTTPOptions.Addr)
	if cfg.GRPCOptions.Enabled {
		fmt.Printf("  gRPC: %s\n", cfg.GRPCOptions.Addr)
	}
}
