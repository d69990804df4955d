// Package llm provides LLM provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/coursemind/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义 LLM 供应商配置。
// 没有重试配置项：影响答案或入库记录的远程调用只尝试一次。
type ProviderOptions struct {
	// Provider 供应商名称（ollama, gemini, openai）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，留空使用供应商默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥（gemini / openai 需要）。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// name 是 flag 前缀（embedding / chat）。
	name string
}

// NewEmbeddingOptions 创建默认 Embedding 供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider: "ollama",
		BaseURL:  "http://localhost:11434",
		Model:    "bge-m3",
		Timeout:  120 * time.Second,
		name:     "embedding",
	}
}

// NewChatOptions 创建默认 Chat 供应商配置。
func NewChatOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider: "gemini",
		Model:    "gemini-1.5-flash",
		Timeout:  120 * time.Second,
		name:     "chat",
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(append(prefixes, o.name)...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "LLM provider (ollama, gemini, openai).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "LLM API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "LLM API key.")
	fs.StringVar(&o.Model, p+"model", o.Model, "LLM model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "LLM request timeout.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "LLM organization ID (optional).")
}

// Complete 未配置 API key 时从环境变量读取。
func (o *ProviderOptions) Complete() error {
	if o.APIKey != "" {
		return nil
	}
	switch o.Provider {
	case "gemini":
		o.APIKey = os.Getenv("GEMINI_API_KEY")
	case "openai":
		o.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return nil
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Provider {
	case "ollama", "gemini", "openai":
	case "":
		errs = append(errs, fmt.Errorf("%s.provider is required", o.name))
	default:
		errs = append(errs, fmt.Errorf("%s.provider %q is not supported", o.name, o.Provider))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("%s.model is required", o.name))
	}
	// gemini / openai 需要 API key
	if (o.Provider == "gemini" || o.Provider == "openai") && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("%s.api-key is required for %s provider", o.name, o.Provider))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s.timeout must be positive", o.name))
	}
	return errs
}
