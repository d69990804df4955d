package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/coursemind/internal/rag/biz"
	"github.com/kart-io/coursemind/internal/rag/metrics"
	"github.com/kart-io/coursemind/internal/rag/store"
	"github.com/kart-io/coursemind/pkg/component/database"
	"github.com/kart-io/coursemind/pkg/component/storage"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/utils/json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	ready bool
	resp  *biz.AskResponse
	err   error
	last  *biz.AskRequest
}

func (f *fakeService) Ask(_ context.Context, req *biz.AskRequest) (*biz.AskResponse, error) {
	f.last = req
	if !f.ready {
		return nil, errors.ErrNotReady
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.ErrInvalidQuery
	}
	return f.resp, f.err
}

func (f *fakeService) Stats(context.Context) (map[string]any, error) {
	if !f.ready {
		return nil, errors.ErrNotReady
	}
	return map[string]any{"record_count": 2}, nil
}

func (f *fakeService) Ready() bool { return f.ready }

type fakeHealth []storage.HealthStatus

func (f fakeHealth) HealthCheckAll(context.Context) []storage.HealthStatus { return f }

type fakeCounter int

func (f fakeCounter) Count(context.Context) (int, error) { return int(f), nil }

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newEngine(h *RAGHandler) *gin.Engine {
	r := gin.New()
	r.POST("/v1/rag/ask", h.Ask)
	r.GET("/v1/rag/stats", h.Stats)
	r.GET("/v1/conversations", h.ListConversations)
	r.GET("/v1/conversations/:id/messages", h.ListMessages)
	r.DELETE("/v1/conversations", h.DeleteConversations)
	r.DELETE("/v1/conversations/:id", h.DeleteConversation)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", h.Metrics)
	r.GET("/version", h.Version)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestAsk(t *testing.T) {
	svc := &fakeService{ready: true, resp: &biz.AskResponse{
		Answer:  "Closures are covered in \"JS Functions\" at 02:05.",
		Sources: []biz.Source{{Title: "JS Functions", URL: "https://x/?t=125"}},
	}}
	r := newEngine(NewRAGHandler(Deps{Service: svc}))

	w, env := do(t, r, http.MethodPost, "/v1/rag/ask", `{"query":"what is a closure","conversation_id":"c1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "c1", svc.last.ConversationID)

	var got biz.AskResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, svc.resp.Sources, got.Sources)
	assert.JSONEq(t, `{"answer":"Closures are covered in \"JS Functions\" at 02:05.","sources":[{"title":"JS Functions","url":"https://x/?t=125"}]}`, string(env.Data))
}

func TestAskErrors(t *testing.T) {
	tests := []struct {
		name   string
		svc    *fakeService
		body   string
		status int
		code   int
	}{
		{"malformed body", &fakeService{ready: true}, `{"query":`, http.StatusBadRequest, errors.ErrInvalidQuery.Code},
		{"empty query", &fakeService{ready: true}, `{"query":"  "}`, http.StatusBadRequest, errors.ErrInvalidQuery.Code},
		{"not ready", &fakeService{}, `{"query":"q"}`, http.StatusServiceUnavailable, errors.ErrNotReady.Code},
		{"generation", &fakeService{ready: true, err: errors.ErrGenerationFailed}, `{"query":"q"}`, http.StatusInternalServerError, errors.ErrGenerationFailed.Code},
		{"unknown conversation", &fakeService{ready: true, err: errors.ErrConversationNotFound}, `{"query":"q","conversation_id":"nope"}`, http.StatusNotFound, errors.ErrConversationNotFound.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(NewRAGHandler(Deps{Service: tt.svc}))
			w, env := do(t, r, http.MethodPost, "/v1/rag/ask", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Code)
		})
	}
}

func TestStats(t *testing.T) {
	r := newEngine(NewRAGHandler(Deps{Service: &fakeService{ready: true}}))
	w, env := do(t, r, http.MethodGet, "/v1/rag/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"record_count":2}`, string(env.Data))
}

func TestConversations(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	convs := store.NewConversationStore(db.DB())
	require.NoError(t, convs.Migrate(context.Background()))

	ctx := context.Background()
	conv, err := convs.Create(ctx, "what is a closure")
	require.NoError(t, err)
	require.NoError(t, convs.AppendMessages(ctx, conv.ID,
		&store.Message{Role: store.RoleUser, Content: "what is a closure"},
		&store.Message{Role: store.RoleAssistant, Content: "A function with scope.", Sources: `[{"title":"JS Functions","url":"https://x/?t=125"}]`},
	))

	r := newEngine(NewRAGHandler(Deps{Service: &fakeService{ready: true}, Conversations: convs}))

	w, env := do(t, r, http.MethodGet, "/v1/conversations", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []ConversationView
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, conv.ID, list[0].ID)
	assert.Equal(t, "what is a closure", list[0].Title)

	w, env = do(t, r, http.MethodGet, "/v1/conversations/"+conv.ID+"/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []MessageView
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, store.RoleUser, msgs[0].Role)
	assert.Empty(t, msgs[0].Sources)
	assert.Equal(t, []biz.Source{{Title: "JS Functions", URL: "https://x/?t=125"}}, msgs[1].Sources)

	w, env = do(t, r, http.MethodGet, "/v1/conversations/missing/messages", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrConversationNotFound.Code, env.Code)

	w, env = do(t, r, http.MethodGet, "/v1/conversations?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrInvalidParam.Code, env.Code)
}

func TestDeleteConversations(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	convs := store.NewConversationStore(db.DB())
	require.NoError(t, convs.Migrate(context.Background()))

	ctx := context.Background()
	first, err := convs.Create(ctx, "what is flexbox")
	require.NoError(t, err)
	second, err := convs.Create(ctx, "what is grid")
	require.NoError(t, err)
	_, err = convs.Create(ctx, "what is a promise")
	require.NoError(t, err)

	r := newEngine(NewRAGHandler(Deps{Service: &fakeService{ready: true}, Conversations: convs}))

	w, env := do(t, r, http.MethodDelete, "/v1/conversations/"+first.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+first.ID+`","deleted":1}`, string(env.Data))

	w, env = do(t, r, http.MethodDelete, "/v1/conversations/"+first.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrConversationNotFound.Code, env.Code)

	w, env = do(t, r, http.MethodDelete, "/v1/conversations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":2}`, string(env.Data))

	w, _ = do(t, r, http.MethodGet, "/v1/conversations/"+second.ID+"/messages", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationsDisabled(t *testing.T) {
	r := newEngine(NewRAGHandler(Deps{Service: &fakeService{ready: true}}))

	w, env := do(t, r, http.MethodDelete, "/v1/conversations", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":0}`, string(env.Data))

	w, _ = do(t, r, http.MethodDelete, "/v1/conversations/x", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = do(t, r, http.MethodGet, "/v1/conversations", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	w, _ = do(t, r, http.MethodGet, "/v1/conversations/x/messages", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	svc := &fakeService{}
	health := fakeHealth{{Name: "milvus", Healthy: true}}
	r := newEngine(NewRAGHandler(Deps{Service: svc, Health: health}))

	w, _ := do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "not ready until MarkReady")

	svc.ready = true
	w, _ = do(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	r = newEngine(NewRAGHandler(Deps{Service: svc, Health: fakeHealth{{Name: "redis", Error: "dial tcp: refused"}}}))
	w, env := do(t, r, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, env.Message, "redis is unhealthy")
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.RecordQuery(false, "")
	m.RecordQuery(false, "generation_failed")
	r := newEngine(NewRAGHandler(Deps{Service: &fakeService{ready: true}, Metrics: m, Records: fakeCounter(42)}))

	w, _ := do(t, r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "coursemind_queries_total 2")
	assert.Contains(t, body, `coursemind_query_errors_by_kind_total{kind="generation_failed"} 1`)
	assert.Contains(t, body, "coursemind_store_records 42.000000")
}

func TestVersion(t *testing.T) {
	r := newEngine(NewRAGHandler(Deps{Service: &fakeService{}}))
	w, env := do(t, r, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"git_version"`)
}
