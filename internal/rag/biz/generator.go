package biz

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/infra/tracing"
	"github.com/kart-io/coursemind/pkg/llm"
)

// RefusalSentence 是上下文不足时唯一允许的回答，调用方可以直接比较。
const RefusalSentence = "I'm sorry, but I don't have enough information from the course videos to answer that question."

var promptTemplate = template.Must(template.New("prompt").Parse(`You are an expert teaching assistant for the "{{.Course}}" course.
Your primary goal is to help users find where specific topics are taught by analyzing the provided video transcript chunks.

Here are the relevant transcript chunks retrieved for the user's question:
{{.Context}}

Here is the user's question: "{{.Question}}"

Please follow these instructions precisely to formulate your answer:
1. Carefully analyze all the provided chunks to identify the most relevant one(s).
2. Answer in a helpful, human-friendly way, explaining where the topic is taught.
3. Explicitly mention the video title and the start time (e.g., "at around 5 minutes and 30 seconds").
4. Provide a brief, one or two-sentence summary of what is discussed in that segment.
5. If the context suggests the topic is only briefly mentioned, state that and guide the user appropriately (e.g., "it is only a brief introduction").
6. If the provided context does not contain enough information to answer the question, you MUST respond with exactly: "{{.Refusal}}" Do not make up information.
`))

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// CourseName 出现在角色设定中的课程名。
	CourseName string
}

// Generator 负责答案生成。
type Generator struct {
	chat   llm.ChatProvider
	config *GeneratorConfig
}

// NewGenerator 创建生成器实例。
func NewGenerator(chat llm.ChatProvider, config *GeneratorConfig) *Generator {
	return &Generator{chat: chat, config: config}
}

// BuildPrompt 构建完整提示词，上下文原样嵌入。
func (g *Generator) BuildPrompt(question, contextText string) string {
	var sb strings.Builder
	_ = promptTemplate.Execute(&sb, map[string]string{
		"Course":   g.config.CourseName,
		"Context":  contextText,
		"Question": question,
		"Refusal":  RefusalSentence,
	})
	return sb.String()
}

// Generate 生成答案。上下文为空时直接返回拒答句，不调用模型。
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	if strings.TrimSpace(contextText) == "" {
		logger.Infow("empty context, returning refusal")
		return RefusalSentence, nil
	}

	ctx, span := tracing.StartSpan(ctx, "generator.Generate", attribute.String(tracing.AttrProvider, g.chat.Name()))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return "", errors.ErrGenerationFailed.WithCause(fmt.Errorf("context cancelled before generation: %w", err))
	}

	answer, err := g.chat.Generate(ctx, g.BuildPrompt(question, contextText), "")
	if err != nil {
		tracing.RecordError(ctx, err)
		logger.Errorw("LLM generation failed", "provider", g.chat.Name(), "error", err)
		return "", errors.ErrGenerationFailed.WithCause(err)
	}

	answer = strings.TrimSpace(answer)
	logger.Debugw("answer generated", "provider", g.chat.Name(), "length", len(answer))
	return answer, nil
}

// Name returns the chat provider name.
func (g *Generator) Name() string { return g.chat.Name() }
