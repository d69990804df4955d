// Package translate 提供批量翻译供应商抽象层。
// 一次调用翻译一个视频的全部片段，输出与输入顺序、长度一致；
// 任何失败都返回 nil 切片，调用方跳过该视频。
package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrLengthMismatch 翻译结果数量与输入不一致。
var ErrLengthMismatch = errors.New("translation count does not match input count")

// Translator 定义翻译供应商接口。
type Translator interface {
	// TranslateBatch 批量翻译，out[i] 对应 texts[i]。
	TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error)

	// Name 返回供应商名称。
	Name() string
}

// Factory 供应商工厂函数类型。
type Factory func(config map[string]any) (Translator, error)

var registry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register 注册翻译供应商工厂。
func Register(name string, factory Factory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[name] = factory
}

// New 根据名称创建翻译供应商。
func New(name string, config map[string]any) (Translator, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown translation provider: %s", name)
	}
	return factory(config)
}

// List 列出已注册的供应商名称。
func List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate 检查输出长度与输入一致。
func Validate(in, out []string) error {
	if len(in) != len(out) {
		return fmt.Errorf("%w: %d in, %d out", ErrLengthMismatch, len(in), len(out))
	}
	return nil
}

// Noop 原样返回输入，用于源语言即回答语言的部署。
type Noop struct{}

func init() {
	Register("noop", func(map[string]any) (Translator, error) { return Noop{}, nil })
}

// TranslateBatch returns a copy of texts.
func (Noop) TranslateBatch(_ context.Context, texts []string, _, _ string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([]string, len(texts))
	copy(out, texts)
	return out, nil
}

// Name 返回供应商名称。
func (Noop) Name() string { return "noop" }
