// Package llmtrans 通过任意 llm.ChatProvider 完成批量翻译。
package llmtrans

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kart-io/coursemind/pkg/llm"
	"github.com/kart-io/coursemind/pkg/translate"
)

const ProviderName = "llm"

// ConfigKeyChat 配置 map 中 ChatProvider 的键。
const ConfigKeyChat = "chat_provider"

func init() {
	translate.Register(ProviderName, NewTranslator)
}

const systemPrompt = "You are a translation engine. Translate each numbered line and reply with exactly the same numbering, one line per item, and nothing else."

var numbered = regexp.MustCompile(`^\s*(\d+)[.)]\s?(.*)$`)

// Translator 基于 LLM 的翻译供应商。
type Translator struct {
	chat llm.ChatProvider
}

// NewTranslator 从配置 map 创建，需要 chat_provider。
func NewTranslator(configMap map[string]any) (translate.Translator, error) {
	chat, ok := configMap[ConfigKeyChat].(llm.ChatProvider)
	if !ok || chat == nil {
		return nil, fmt.Errorf("llm translate: %s 是必需的", ConfigKeyChat)
	}
	return &Translator{chat: chat}, nil
}

// Name 返回供应商名称。
func (t *Translator) Name() string {
	return ProviderName
}

// TranslateBatch 把整批文本编号后一次性交给模型，再按编号解析。
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate from %s to %s.\n\n", source, target)
	for i, text := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.Join(strings.Fields(text), " "))
	}

	reply, err := t.chat.Generate(ctx, sb.String(), systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("llm translate: %w", err)
	}

	out, err := parseNumbered(reply, len(texts))
	if err != nil {
		return nil, fmt.Errorf("llm translate: %w", err)
	}
	return out, nil
}

// parseNumbered 解析 "N. text" 行。缺少编号、重复编号或译文为空都视为失败。
func parseNumbered(reply string, n int) ([]string, error) {
	out := make([]string, n)
	filled := make([]bool, n)
	seen := 0
	for _, line := range strings.Split(reply, "\n") {
		m := numbered.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > n {
			continue
		}
		text := strings.TrimSpace(m[2])
		if filled[idx-1] {
			return nil, fmt.Errorf("%w: item %d repeated", translate.ErrLengthMismatch, idx)
		}
		if text == "" {
			return nil, fmt.Errorf("%w: item %d is empty", translate.ErrLengthMismatch, idx)
		}
		filled[idx-1] = true
		out[idx-1] = text
		seen++
	}
	if seen != n {
		return nil, fmt.Errorf("%w: %d in, %d out", translate.ErrLengthMismatch, n, seen)
	}
	return out, nil
}
