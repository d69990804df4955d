package ragsvc

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/kart-io/logger"

	"github.com/kart-io/coursemind/internal/pkg/course"
	"github.com/kart-io/coursemind/internal/pkg/segment"
	"github.com/kart-io/coursemind/internal/rag/biz"
	"github.com/kart-io/coursemind/internal/rag/metrics"
	"github.com/kart-io/coursemind/pkg/component/storage"
	"github.com/kart-io/coursemind/pkg/infra/app"
	"github.com/kart-io/coursemind/pkg/infra/tracing"
	ingestopts "github.com/kart-io/coursemind/pkg/options/ingest"
	llmopts "github.com/kart-io/coursemind/pkg/options/llm"
	logopts "github.com/kart-io/coursemind/pkg/options/logger"
	tracingopts "github.com/kart-io/coursemind/pkg/options/tracing"
	translateopts "github.com/kart-io/coursemind/pkg/options/translate"
	"github.com/kart-io/coursemind/pkg/translate"
	// 导入翻译供应商以自动注册
	_ "github.com/kart-io/coursemind/pkg/translate/google"
	"github.com/kart-io/coursemind/pkg/translate/llmtrans"
	"github.com/kart-io/coursemind/pkg/utils/json"
)

// IngestName is the name of the ingestion command.
const IngestName = "coursemind-ingest"

// Report output formats.
const (
	ReportTable = "table"
	ReportJSON  = "json"
)

// IngestConfig contains configurations of one ingestion run.
type IngestConfig struct {
	StoreConfig

	LogOptions       *logopts.Options
	TracingOptions   *tracingopts.Options
	IngestOptions    *ingestopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	// ChatOptions 只在 translate.provider=llm 时使用。
	ChatOptions      *llmopts.ProviderOptions
	TranslateOptions *translateopts.Options
	ReportFormat     string
	Output           io.Writer
}

// RunIngest 导入目录中的全部视频，并把报告写到 Output。
// 单个视频失败不会让运行失败；只有初始化错误和取消会返回错误。
func (cfg *IngestConfig) RunIngest(ctx context.Context) (*biz.IngestReport, error) {
	// 1. 初始化日志
	cfg.LogOptions.AddInitialField("service.name", IngestName)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// 2. 初始化链路追踪
	if cfg.TracingOptions.ServiceName == "" {
		cfg.TracingOptions.ServiceName = IngestName
	}
	tracer, err := tracing.NewProvider(ctx, cfg.TracingOptions, app.GetVersion())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	// 3. 读取视频目录
	opts := cfg.IngestOptions
	catalog, err := course.LoadCatalog(opts.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Infow("Catalog loaded", "path", opts.CatalogPath, "videos", len(catalog))

	policy, err := segment.NewPolicy(opts.Segment.Policy, opts.Segment.MaxDuration, opts.Segment.Terminators)
	if err != nil {
		return nil, err
	}

	// 4. 初始化知识库
	mgr := storage.NewManager()
	defer func() {
		if err := mgr.CloseAll(); err != nil {
			logger.Warnw("failed to close storage clients", "error", err.Error())
		}
	}()
	knowledge, err := openKnowledgeStore(ctx, &cfg.StoreConfig, mgr, opts.Recreate)
	if err != nil {
		return nil, err
	}

	// 5. 初始化向量化与翻译
	embedProvider, err := newEmbeddingProvider(cfg.EmbeddingOptions)
	if err != nil {
		return nil, err
	}
	translator, err := cfg.newTranslator()
	if err != nil {
		return nil, err
	}

	var transcriber biz.Transcriber
	if opts.TranscribeCommand != "" {
		transcriber = &biz.CommandTranscriber{
			Command:  opts.TranscribeCommand,
			AudioDir: opts.AudioDir,
			Timeout:  opts.TranscribeTimeout,
		}
	}

	// 6. 执行导入
	ingestor := biz.NewIngestor(&biz.IngestConfig{
		TranscriptsDir: opts.TranscriptsDir,
		SourceLang:     opts.SourceLang,
		TargetLang:     opts.TargetLang,
		Workers:        opts.Workers,
		Policy:         policy,
	}, translator, biz.NewEmbedder(embedProvider), biz.NewWriter(knowledge), transcriber, metrics.New())

	report, runErr := ingestor.Run(ctx, catalog)
	if report != nil && cfg.Output != nil {
		if err := WriteReport(cfg.Output, cfg.ReportFormat, report); err != nil {
			logger.Warnw("failed to write ingest report", "error", err.Error())
		}
	}
	return report, runErr
}

// newTranslator 按 translate.provider 创建翻译供应商。
func (cfg *IngestConfig) newTranslator() (translate.Translator, error) {
	opts := cfg.TranslateOptions
	configMap := opts.ToConfigMap()
	if opts.Provider == llmtrans.ProviderName {
		chat, err := newChatProvider(cfg.ChatOptions)
		if err != nil {
			return nil, err
		}
		configMap[llmtrans.ConfigKeyChat] = chat
	}

	t, err := translate.New(opts.Provider, configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize translator: %w", err)
	}
	logger.Infow("Translator initialized", "provider", opts.Provider)
	return t, nil
}

// WriteReport 以表格或 JSON 输出导入报告。
func WriteReport(w io.Writer, format string, report *biz.IngestReport) error {
	if format == ReportJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	rows := make([][]string, 0, len(report.Videos))
	for _, v := range report.Videos {
		rows = append(rows, []string{
			strconv.Itoa(v.Number),
			v.Title,
			string(v.Status),
			strconv.Itoa(v.Chunks),
			strconv.Itoa(v.Records),
			v.Duration.Round(time.Millisecond).String(),
			v.Reason,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("#", "Title", "Status", "Chunks", "Records", "Duration", "Reason").
		Rows(rows...)

	_, err := fmt.Fprintf(w, "%s\n\ningested %d, skipped %d, failed %d, records %d in %s\n",
		t, report.Ingested, report.Skipped, report.Failed, report.Records, report.Duration.Round(time.Millisecond))
	return err
}
