// Package translate provides translation provider options.
package translate

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/coursemind/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options 翻译供应商配置。
type Options struct {
	// Provider 供应商：google, llm, noop。
	Provider string `json:"provider" mapstructure:"provider"`

	// ProjectID / Location Google Cloud Translation v3 的项目和区域。
	ProjectID string `json:"project-id" mapstructure:"project-id"`
	Location  string `json:"location" mapstructure:"location"`

	// AccessToken 显式 OAuth2 token，留空使用 ADC。
	AccessToken string `json:"-" mapstructure:"access-token"`

	// CredentialsFile 服务账号 JSON 文件，优先于 ADC。
	CredentialsFile string `json:"credentials-file" mapstructure:"credentials-file"`

	// BaseURL 覆盖 API 地址（测试用）。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Provider: "google",
		Location: "global",
		BaseURL:  "https://translation.googleapis.com",
		Timeout:  60 * time.Second,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *Options) ToConfigMap() map[string]any {
	return map[string]any{
		"project_id":       o.ProjectID,
		"location":         o.Location,
		"access_token":     o.AccessToken,
		"credentials_file": o.CredentialsFile,
		"base_url":         o.BaseURL,
		"timeout":          o.Timeout,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "translate."
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Translation provider: google, llm or noop.")
	fs.StringVar(&o.ProjectID, p+"project-id", o.ProjectID, "Google Cloud project id.")
	fs.StringVar(&o.Location, p+"location", o.Location, "Google Cloud Translation location.")
	fs.StringVar(&o.AccessToken, p+"access-token", o.AccessToken, "Explicit OAuth2 access token (default: application default credentials).")
	fs.StringVar(&o.CredentialsFile, p+"credentials-file", o.CredentialsFile, "Service account credentials JSON file.")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "Translation API base URL.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Translation request timeout.")
}

// Complete fills the project id from the environment.
func (o *Options) Complete() error {
	if o.ProjectID == "" {
		o.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	return nil
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Provider {
	case "google":
		if o.ProjectID == "" {
			errs = append(errs, fmt.Errorf("translate.project-id is required for google"))
		}
	case "llm", "noop":
	default:
		errs = append(errs, fmt.Errorf("translate.provider must be google, llm or noop, got %q", o.Provider))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("translate.timeout must be positive"))
	}
	return errs
}
