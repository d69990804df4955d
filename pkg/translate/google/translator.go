// Package google 提供 Google Cloud Translation v3 翻译供应商。
package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/kart-io/coursemind/pkg/llm"
	"github.com/kart-io/coursemind/pkg/translate"
	"github.com/kart-io/coursemind/pkg/utils/httpclient"
)

const (
	ProviderName = "google"

	cloudTranslationScope = "https://www.googleapis.com/auth/cloud-translation"
	defaultBaseURL        = "https://translation.googleapis.com"
)

func init() {
	translate.Register(ProviderName, NewTranslator)
}

// Config Google 翻译配置。
type Config struct {
	BaseURL         string
	ProjectID       string
	Location        string
	AccessToken     string
	CredentialsFile string
	Timeout         time.Duration
}

// Translator 调用 projects/{p}/locations/{l}:translateText。
type Translator struct {
	config *Config
	client *httpclient.Client
}

// NewTranslator 从配置 map 创建翻译供应商。
// 认证优先级：access_token > credentials_file > 应用默认凭据（ADC）。
func NewTranslator(configMap map[string]any) (translate.Translator, error) {
	cfg := &Config{
		BaseURL:         strings.TrimRight(llm.ConfigString(configMap, "base_url", defaultBaseURL), "/"),
		ProjectID:       llm.ConfigString(configMap, "project_id", ""),
		Location:        llm.ConfigString(configMap, "location", "global"),
		AccessToken:     llm.ConfigString(configMap, "access_token", ""),
		CredentialsFile: llm.ConfigString(configMap, "credentials_file", ""),
		Timeout:         llm.ConfigDuration(configMap, "timeout", 60*time.Second),
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("google translate: project_id 是必需的")
	}

	ts, err := tokenSource(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return NewTranslatorWithTokenSource(cfg, ts), nil
}

// NewTranslatorWithTokenSource 使用给定的 token 源创建翻译供应商。
func NewTranslatorWithTokenSource(cfg *Config, ts oauth2.TokenSource) *Translator {
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = cfg.Timeout
	return &Translator{config: cfg, client: httpclient.NewClientWith(hc)}
}

func tokenSource(ctx context.Context, cfg *Config) (oauth2.TokenSource, error) {
	switch {
	case cfg.AccessToken != "":
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"}), nil
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("google translate: read credentials: %w", err)
		}
		creds, err := googleoauth.CredentialsFromJSON(ctx, data, cloudTranslationScope)
		if err != nil {
			return nil, fmt.Errorf("google translate: parse credentials: %w", err)
		}
		return creds.TokenSource, nil
	default:
		ts, err := googleoauth.DefaultTokenSource(ctx, cloudTranslationScope)
		if err != nil {
			return nil, fmt.Errorf("google translate: application default credentials: %w", err)
		}
		return ts, nil
	}
}

// Name 返回供应商名称。
func (t *Translator) Name() string {
	return ProviderName
}

type translateTextRequest struct {
	Contents           []string `json:"contents"`
	SourceLanguageCode string   `json:"sourceLanguageCode,omitempty"`
	TargetLanguageCode string   `json:"targetLanguageCode"`
	MimeType           string   `json:"mimeType"`
}

type translateTextResponse struct {
	Translations []struct {
		TranslatedText string `json:"translatedText"`
	} `json:"translations"`
}

// TranslateBatch 一次请求翻译整批文本。
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	url := fmt.Sprintf("%s/v3/projects/%s/locations/%s:translateText",
		t.config.BaseURL, t.config.ProjectID, t.config.Location)
	req := translateTextRequest{
		Contents:           texts,
		SourceLanguageCode: source,
		TargetLanguageCode: target,
		MimeType:           "text/plain",
	}

	var resp translateTextResponse
	if err := t.client.PostJSON(ctx, url, http.Header{"x-goog-user-project": {t.config.ProjectID}}, req, &resp); err != nil {
		return nil, fmt.Errorf("google translate: %w", err)
	}

	out := make([]string, len(resp.Translations))
	for i, tr := range resp.Translations {
		out[i] = tr.TranslatedText
	}
	if err := translate.Validate(texts, out); err != nil {
		return nil, fmt.Errorf("google translate: %w", err)
	}
	return out, nil
}
