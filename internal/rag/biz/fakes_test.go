package biz

import (
	"context"
	"strings"
	"sync"

	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/llm"
)

// fakeEmbedding 把文本映射为固定向量：关键词命中对应维度。
type fakeEmbedding struct {
	mu       sync.Mutex
	calls    int
	err      error
	truncate bool
}

var vocabulary = []string{"closure", "function", "css", "html"}

func vectorFor(text string) []float32 {
	v := make([]float32, len(vocabulary)+1)
	lower := strings.ToLower(text)
	for i, w := range vocabulary {
		if strings.Contains(lower, w) {
			v[i] = 1
		}
	}
	v[len(vocabulary)] = 0.1
	return v
}

func (f *fakeEmbedding) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, vectorFor(t))
	}
	if f.truncate && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedding) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := f.Embed(ctx, []string{text})
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEmbedding) Name() string { return "fake-embed" }

// fakeChat 遵循提示词第 6 条：上下文缺少关键词时返回拒答句。
type fakeChat struct {
	mu      sync.Mutex
	prompts []string
	answer  string
	err     error
}

func (f *fakeChat) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return f.Generate(ctx, messages[len(messages)-1].Content, "")
}

func (f *fakeChat) Generate(_ context.Context, prompt, _ string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeChat) Name() string { return "fake-chat" }

func (f *fakeChat) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// failingStore 所有操作都返回 err。
type failingStore struct{ err error }

func (s failingStore) EnsureCollection(context.Context) error { return s.err }
func (s failingStore) DropCollection(context.Context) error   { return s.err }
func (s failingStore) Count(context.Context) (int, error)     { return 0, s.err }
func (s failingStore) Insert(context.Context, []store.Record) error {
	return s.err
}

func (s failingStore) Search(context.Context, []float32, int) ([]store.SearchResult, error) {
	return nil, s.err
}

// fakeTranslator 给每段加前缀；failOn 命中时整批失败。
type fakeTranslator struct {
	failOn string
	short  bool
}

func (f fakeTranslator) TranslateBatch(_ context.Context, texts []string, _, _ string) ([]string, error) {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if f.failOn != "" && strings.Contains(t, f.failOn) {
			return nil, errTranslate
		}
		out = append(out, "en: "+t)
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (fakeTranslator) Name() string { return "fake-translate" }

type constErr string

func (e constErr) Error() string { return string(e) }

const (
	errTranslate = constErr("translate backend down")
	errBackend   = constErr("backend down")
)
