package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/coursemind/internal/pkg/course"
	"github.com/kart-io/coursemind/internal/pkg/segment"
	"github.com/kart-io/coursemind/internal/rag/metrics"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/infra/pool"
	"github.com/kart-io/coursemind/pkg/translate"
)

// VideoStatus 单个视频的导入结果。
type VideoStatus string

const (
	VideoIngested VideoStatus = "ingested"
	VideoSkipped  VideoStatus = "skipped"
	VideoFailed   VideoStatus = "failed"
)

// VideoReport 单个视频的导入报告。
type VideoReport struct {
	Number   int           `json:"number"`
	Title    string        `json:"title"`
	Status   VideoStatus   `json:"status"`
	Chunks   int           `json:"chunks"`
	Records  int           `json:"records"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// IngestReport 一次导入运行的汇总。
type IngestReport struct {
	Videos   []VideoReport `json:"videos"`
	Ingested int           `json:"ingested"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration"`
}

func (r *IngestReport) add(v VideoReport) {
	r.Videos = append(r.Videos, v)
	switch v.Status {
	case VideoIngested:
		r.Ingested++
		r.Records += v.Records
	case VideoSkipped:
		r.Skipped++
	case VideoFailed:
		r.Failed++
	}
}

// IngestConfig 导入配置。
type IngestConfig struct {
	TranscriptsDir string
	SourceLang     string
	TargetLang     string
	// Workers 准备阶段并发数，<=1 时串行。
	Workers int
	Policy  segment.Policy
}

// Ingestor 按目录顺序把视频转写结果写入知识库。
// 准备阶段（读取、分段、翻译、向量化）可以并发，
// 提交阶段严格按目录顺序在调用方 goroutine 上执行。
type Ingestor struct {
	cfg         *IngestConfig
	translator  translate.Translator
	embedder    *Embedder
	writer      *Writer
	transcriber Transcriber
	metrics     *metrics.RAGMetrics
}

// NewIngestor 创建导入器；transcriber 和 m 可以为 nil。
func NewIngestor(cfg *IngestConfig, translator translate.Translator, embedder *Embedder, writer *Writer,
	transcriber Transcriber, m *metrics.RAGMetrics,
) *Ingestor {
	if m == nil {
		m = metrics.New()
	}
	return &Ingestor{
		cfg:         cfg,
		translator:  translator,
		embedder:    embedder,
		writer:      writer,
		transcriber: transcriber,
		metrics:     m,
	}
}

// prepared 是准备阶段的产物。
type prepared struct {
	video      course.Video
	chunks     []segment.Chunk
	translated []string
	vectors    [][]float32
	skip       string
	err        error
	elapsed    time.Duration
}

// Run 处理整个目录。单个视频的失败只记录在报告中，不中断运行；
// 只有 ctx 取消会提前结束并返回错误。
func (in *Ingestor) Run(ctx context.Context, catalog course.Catalog) (*IngestReport, error) {
	start := time.Now()
	report := &IngestReport{}

	results, release, err := in.prepareAll(ctx, catalog)
	if err != nil {
		return nil, err
	}
	defer release()

	for i := range catalog {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		var p prepared
		select {
		case p = <-results[i]:
		case <-ctx.Done():
			report.Duration = time.Since(start)
			return report, ctx.Err()
		}
		report.add(in.commit(ctx, p))
	}

	report.Duration = time.Since(start)
	logger.Infow("ingestion finished",
		"videos", len(catalog),
		"ingested", report.Ingested,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"records", report.Records,
		"duration", report.Duration,
	)
	return report, nil
}

// prepareAll 启动准备阶段，每个视频的结果写入各自的缓冲 channel。
func (in *Ingestor) prepareAll(ctx context.Context, catalog course.Catalog) ([]chan prepared, func(), error) {
	results := make([]chan prepared, len(catalog))
	for i := range results {
		results[i] = make(chan prepared, 1)
	}

	if in.cfg.Workers <= 1 {
		go func() {
			for i, v := range catalog {
				if ctx.Err() != nil {
					return
				}
				results[i] <- in.prepare(ctx, v)
			}
		}()
		return results, func() {}, nil
	}

	p, err := pool.NewPool("ingest", pool.DefaultConfig(in.cfg.Workers))
	if err != nil {
		return nil, nil, fmt.Errorf("create ingest pool: %w", err)
	}

	go func() {
		for i, v := range catalog {
			i, v := i, v
			task := func() {
				defer func() {
					if r := recover(); r != nil {
						results[i] <- prepared{video: v, err: fmt.Errorf("panic: %v", r)}
					}
				}()
				results[i] <- in.prepare(ctx, v)
			}
			if err := p.SubmitWithContext(ctx, task); err != nil {
				results[i] <- prepared{video: v, err: err}
			}
		}
	}()

	return results, p.Release, nil
}

// prepare 读取转写、分段、翻译、向量化，并记录耗时。
func (in *Ingestor) prepare(ctx context.Context, video course.Video) prepared {
	start := time.Now()
	p := in.doPrepare(ctx, video)
	p.elapsed = time.Since(start)
	return p
}

func (in *Ingestor) doPrepare(ctx context.Context, video course.Video) prepared {
	p := prepared{video: video}

	path := course.TranscriptPath(in.cfg.TranscriptsDir, video)
	transcript, err := course.LoadTranscript(path)
	if stderrors.Is(err, fs.ErrNotExist) && in.transcriber != nil {
		if terr := in.transcriber.Transcribe(ctx, video, path); terr != nil {
			p.err = terr
			return p
		}
		transcript, err = course.LoadTranscript(path)
	}
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			p.skip = "transcript not found"
		} else {
			p.err = err
		}
		return p
	}

	p.chunks = segment.Segment(transcript.WordUnits, in.cfg.Policy)
	if len(p.chunks) == 0 {
		p.skip = "no chunks"
		return p
	}

	texts := make([]string, len(p.chunks))
	for i, c := range p.chunks {
		texts[i] = c.Text
	}

	translated, err := in.translator.TranslateBatch(ctx, texts, in.cfg.SourceLang, in.cfg.TargetLang)
	if err == nil {
		err = translate.Validate(texts, translated)
	}
	if err != nil {
		p.err = errors.ErrTranslationFailed.WithCause(err)
		return p
	}
	p.translated = translated

	p.vectors, p.err = in.embedder.EmbedBatch(ctx, translated)
	return p
}

// commit 写入一个准备好的视频并生成报告行。
func (in *Ingestor) commit(ctx context.Context, p prepared) (rep VideoReport) {
	start := time.Now()
	rep = VideoReport{Number: p.video.Number, Title: p.video.Title, Chunks: len(p.chunks)}
	defer func() { rep.Duration = p.elapsed + time.Since(start) }()

	switch {
	case p.skip != "":
		rep.Status, rep.Reason = VideoSkipped, p.skip
		logger.Warnw("video skipped", "video_number", p.video.Number, "title", p.video.Title, "reason", p.skip)
		in.metrics.RecordVideo(0, true)
		return rep
	case p.err != nil:
		err := p.err
		if errors.FromError(err).Code != errors.ErrPartialIngest.Code {
			err = errors.ErrPartialIngest.WithCause(err)
		}
		rep.Status, rep.Reason = VideoFailed, failureReason(err)
		logger.Warnw("video failed", "video_number", p.video.Number, "title", p.video.Title, "error", err)
		in.metrics.RecordVideo(0, true)
		return rep
	}

	n, err := in.writer.Append(ctx, p.chunks, p.translated, p.vectors, p.video)
	if err != nil {
		rep.Status, rep.Reason = VideoFailed, failureReason(err)
		logger.Warnw("video failed", "video_number", p.video.Number, "title", p.video.Title, "error", err)
		in.metrics.RecordVideo(0, true)
		return rep
	}

	rep.Status, rep.Records = VideoIngested, n
	in.metrics.RecordVideo(n, false)
	return rep
}

// failureReason 返回最内层 Errno 的消息加根因，便于报告展示。
func failureReason(err error) string {
	label := ""
	for {
		if e, ok := err.(*errors.Errno); ok && e.Code != errors.ErrPartialIngest.Code {
			label = e.MessageEN
		}
		next := stderrors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}

	if e, ok := err.(*errors.Errno); ok {
		return e.MessageEN
	}
	if label == "" {
		return err.Error()
	}
	return label + ": " + err.Error()
}
