// Package logger hot-reloads the global logger from the "log" config section.
package logger

import (
	"fmt"
	"sync"

	"github.com/kart-io/logger"
	"github.com/kart-io/logger/option"

	logopts "github.com/kart-io/coursemind/pkg/options/logger"
)

// ConfigKey is the config section the reloader subscribes to.
const ConfigKey = "log"

// Reloader 在运行时替换全局日志的级别、格式与输出。
// 新配置先构建出 logger，成功后才替换全局实例，失败时保持原状。
type Reloader struct {
	mu   sync.Mutex
	opts *logopts.Options
}

// NewReloader wraps the options the global logger was initialized from.
func NewReloader(opts *logopts.Options) *Reloader {
	return &Reloader{opts: opts}
}

// Target returns a fresh decode target for the "log" section.
func (r *Reloader) Target() *option.LogOption {
	return option.DefaultLogOption()
}

// OnConfigChange implements config.Reloadable.
func (r *Reloader) OnConfigChange(newConfig any) error {
	next, ok := newConfig.(*option.LogOption)
	if !ok {
		return fmt.Errorf("invalid config type: expected *option.LogOption, got %T", newConfig)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid logger configuration: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 只替换可热更新的字段，InitialFields / OTLP 等保持启动时的值
	candidate := *r.opts.LogOption
	candidate.Level = next.Level
	candidate.Format = next.Format
	candidate.Development = next.Development
	candidate.DisableCaller = next.DisableCaller
	candidate.DisableStacktrace = next.DisableStacktrace
	if len(next.OutputPaths) > 0 {
		candidate.OutputPaths = append([]string(nil), next.OutputPaths...)
	}

	if err := (&logopts.Options{LogOption: &candidate}).Init(); err != nil {
		return fmt.Errorf("failed to apply logger config: %w", err)
	}
	*r.opts.LogOption = candidate

	logger.Infow("Logger configuration reloaded",
		"level", candidate.Level,
		"format", candidate.Format,
		"development", candidate.Development,
	)
	return nil
}

// Level returns the level currently applied.
func (r *Reloader) Level() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Level
}
