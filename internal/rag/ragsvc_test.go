package ragsvc

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/coursemind/internal/rag/biz"
	"github.com/kart-io/coursemind/pkg/component/storage"
	cacheopts "github.com/kart-io/coursemind/pkg/options/cache"
	convopts "github.com/kart-io/coursemind/pkg/options/conversation"
	ingestopts "github.com/kart-io/coursemind/pkg/options/ingest"
	llmopts "github.com/kart-io/coursemind/pkg/options/llm"
	logopts "github.com/kart-io/coursemind/pkg/options/logger"
	ragopts "github.com/kart-io/coursemind/pkg/options/rag"
	grpcopts "github.com/kart-io/coursemind/pkg/options/server/grpc"
	httpopts "github.com/kart-io/coursemind/pkg/options/server/http"
	storeopts "github.com/kart-io/coursemind/pkg/options/store"
	tracingopts "github.com/kart-io/coursemind/pkg/options/tracing"
	translateopts "github.com/kart-io/coursemind/pkg/options/translate"
	"github.com/kart-io/coursemind/pkg/utils/json"
)

const testDimension = 3

// fakeOllama answers /api/embed with a fixed-size vector per input.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embed":
			var req struct {
				Input []string `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			vectors := make([][]float32, len(req.Input))
			for i, text := range req.Input {
				vectors[i] = []float32{float32(len(text)), 1, 0}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"model": "test", "embeddings": vectors})
		case "/api/generate":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"model": "test", "response": "answer", "done": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func providerOptions(newOpts func() *llmopts.ProviderOptions, baseURL string) *llmopts.ProviderOptions {
	o := newOpts()
	o.Provider = "ollama"
	o.BaseURL = baseURL
	o.Timeout = 5 * time.Second
	return o
}

func memoryStoreConfig() StoreConfig {
	return StoreConfig{StoreOptions: &storeopts.Options{
		Backend:    storeopts.BackendMemory,
		Collection: "test",
		Dimension:  testDimension,
	}}
}

func TestOpenKnowledgeStore(t *testing.T) {
	mgr := storage.NewManager()
	cfg := memoryStoreConfig()
	ks, err := openKnowledgeStore(context.Background(), &cfg, mgr, false)
	require.NoError(t, err)
	n, err := ks.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, mgr.List())

	ks, err = openKnowledgeStore(context.Background(), &cfg, mgr, true)
	require.NoError(t, err)
	n, err = ks.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	cfg.StoreOptions.Backend = "sqlite-vss"
	_, err = openKnowledgeStore(context.Background(), &cfg, mgr, false)
	assert.ErrorContains(t, err, "unsupported store backend")
}

func TestWriteReport(t *testing.T) {
	report := &biz.IngestReport{
		Videos: []biz.VideoReport{
			{Number: 1, Title: "Intro", Status: biz.VideoIngested, Chunks: 2, Records: 2},
			{Number: 2, Title: "Missing", Status: biz.VideoSkipped, Reason: "transcript not found"},
		},
		Ingested: 1,
		Skipped:  1,
		Records:  2,
	}

	var table bytes.Buffer
	require.NoError(t, WriteReport(&table, ReportTable, report))
	assert.Contains(t, table.String(), "Intro")
	assert.Contains(t, table.String(), "transcript not found")
	assert.Contains(t, table.String(), "ingested 1, skipped 1, failed 0, records 2")

	var out bytes.Buffer
	require.NoError(t, WriteReport(&out, ReportJSON, report))
	var decoded biz.IngestReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, report.Videos[1].Reason, decoded.Videos[1].Reason)
	assert.Equal(t, 2, decoded.Records)
}

func TestRunIngest(t *testing.T) {
	ollama := fakeOllama(t)
	dir := t.TempDir()

	catalog := `- number: 1
  title: Intro
  url: https://www.youtube.com/watch?v=v1
  audio_filename: 01.mp3
- number: 2
  title: Missing
  url: https://www.youtube.com/watch?v=v2
  audio_filename: 02.mp3
`
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(catalog), 0o644))

	transcripts := filepath.Join(dir, "transcripts")
	require.NoError(t, os.MkdirAll(transcripts, 0o755))
	transcript := `{"full_transcript":"html css","word_units":[` +
		`{"text":"html","start":0,"end":1},{"text":"css","start":50,"end":51}]}`
	require.NoError(t, os.WriteFile(filepath.Join(transcripts, "01.json"), []byte(transcript), 0o644))

	ingest := ingestopts.NewOptions()
	ingest.CatalogPath = catalogPath
	ingest.TranscriptsDir = transcripts

	translateOpts := translateopts.NewOptions()
	translateOpts.Provider = "noop"

	var out bytes.Buffer
	cfg := &IngestConfig{
		StoreConfig:      memoryStoreConfig(),
		LogOptions:       logopts.NewOptions(),
		TracingOptions:   tracingopts.NewOptions(),
		IngestOptions:    ingest,
		EmbeddingOptions: providerOptions(llmopts.NewEmbeddingOptions, ollama.URL),
		ChatOptions:      providerOptions(llmopts.NewChatOptions, ollama.URL),
		TranslateOptions: translateOpts,
		ReportFormat:     ReportTable,
		Output:           &out,
	}

	report, err := cfg.RunIngest(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Videos, 2)
	assert.Equal(t, biz.VideoIngested, report.Videos[0].Status)
	assert.Equal(t, 2, report.Videos[0].Records)
	assert.Equal(t, biz.VideoSkipped, report.Videos[1].Status)
	assert.Contains(t, out.String(), "Intro")
}

func TestRunIngestBadCatalog(t *testing.T) {
	ingest := ingestopts.NewOptions()
	ingest.CatalogPath = filepath.Join(t.TempDir(), "catalog.toml")

	cfg := &IngestConfig{
		StoreConfig:    memoryStoreConfig(),
		LogOptions:     logopts.NewOptions(),
		TracingOptions: tracingopts.NewOptions(),
		IngestOptions:  ingest,
	}
	_, err := cfg.RunIngest(context.Background())
	assert.Error(t, err)
}

func newServerConfig(t *testing.T, baseURL string) *Config {
	t.Helper()
	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = "127.0.0.1:0"
	httpOpts.Mode = "test"

	grpcOpts := grpcopts.NewOptions()
	grpcOpts.Enabled = false

	conv := convopts.NewOptions()
	conv.SQLitePath = filepath.Join(t.TempDir(), "conversations.db")

	return &Config{
		StoreConfig:         memoryStoreConfig(),
		HTTPOptions:         httpOpts,
		GRPCOptions:         grpcOpts,
		LogOptions:          logopts.NewOptions(),
		TracingOptions:      tracingopts.NewOptions(),
		EmbeddingOptions:    providerOptions(llmopts.NewEmbeddingOptions, baseURL),
		ChatOptions:         providerOptions(llmopts.NewChatOptions, baseURL),
		RAGOptions:          ragopts.NewOptions(),
		CacheOptions:        cacheopts.NewOptions(),
		ConversationOptions: conv,
		ShutdownTimeout:     5 * time.Second,
	}
}

func TestServerLifecycle(t *testing.T) {
	ollama := fakeOllama(t)
	cfg := newServerConfig(t, ollama.URL)

	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	assert.False(t, s.service.Ready())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, s.service.Ready, 5*time.Second, 10*time.Millisecond)
	base := "http://" + s.http.Addr()

	resp, err := http.Get(base + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// 空知识库直接返回拒答句
	resp, err = http.Post(base+"/v1/rag/ask", "application/json", strings.NewReader(`{"query":"what is html?"}`))
	require.NoError(t, err)
	var env struct {
		Code int             `json:"code"`
		Data biz.AskResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, biz.RefusalSentence, env.Data.Answer)
	assert.Empty(t, env.Data.Sources)
	assert.NotEmpty(t, env.Data.ConversationID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewServerUnsupportedBackend(t *testing.T) {
	cfg := newServerConfig(t, "http://127.0.0.1:1")
	cfg.StoreOptions.Backend = "unknown"
	_, err := cfg.NewServer(context.Background())
	assert.ErrorContains(t, err, "unsupported store backend")
}
