package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/coursemind/internal/pkg/httputils"
	"github.com/kart-io/coursemind/pkg/errors"
	"github.com/kart-io/coursemind/pkg/infra/app"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "coursemind"

// Healthz is the liveness check; it never touches dependencies.
func (h *RAGHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz returns 503 until the service is initialized or while a backing
// client is unhealthy.
func (h *RAGHandler) Readyz(c *gin.Context) {
	if !h.deps.Service.Ready() {
		httputils.WriteResponse(c, errors.ErrNotReady, nil)
		return
	}
	if h.deps.Health == nil {
		httputils.WriteResponse(c, nil, gin.H{"status": "ready"})
		return
	}

	statuses := h.deps.Health.HealthCheckAll(c.Request.Context())
	for _, s := range statuses {
		if !s.Healthy {
			logger.Warnw("readiness check failed", "client", s.Name, "error", s.Error)
			httputils.WriteResponse(c, errors.ErrNotReady.WithMessagef("%s is unhealthy: %s", s.Name, s.Error), nil)
			return
		}
	}
	httputils.WriteResponse(c, nil, gin.H{"status": "ready", "clients": statuses})
}

// Metrics exports counters in the Prometheus text format.
func (h *RAGHandler) Metrics(c *gin.Context) {
	var extra map[string]float64
	if h.deps.Records != nil && h.deps.Service.Ready() {
		if n, err := h.deps.Records.Count(c.Request.Context()); err == nil {
			extra = map[string]float64{"store_records": float64(n)}
		} else {
			logger.Warnw("failed to count store records", "error", err)
		}
	}
	c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8",
		[]byte(h.deps.Metrics.Export(MetricsNamespace, extra)))
}

// VersionView is the body of the version endpoint.
type VersionView struct {
	ServiceName string `json:"service_name,omitempty"`
	GitVersion  string `json:"git_version"`
	GitCommit   string `json:"git_commit,omitempty"`
	BuildDate   string `json:"build_date,omitempty"`
	GoVersion   string `json:"go_version,omitempty"`
	Platform    string `json:"platform,omitempty"`
}

// Version returns build information.
func (h *RAGHandler) Version(c *gin.Context) {
	info := app.GetVersionInfo()
	httputils.WriteResponse(c, nil, VersionView{
		ServiceName: info.ServiceName,
		GitVersion:  info.GitVersion,
		GitCommit:   info.GitCommit,
		BuildDate:   info.BuildDate,
		GoVersion:   info.GoVersion,
		Platform:    info.Platform,
	})
}
