// internal/api/handler/api/metrics.go
package api

import (
	"net/http"

	"github.com/newthinker/prism/internal/api/response"
	"github.com/newthinker/prism/internal/metric"
)

// MetricsHandler lists the metrics registered with the compute engine.
type MetricsHandler struct {
	engine *metric.Engine
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(engine *metric.Engine) *MetricsHandler {
	return &MetricsHandler{engine: engine}
}

// MetricInfo describes a registered metric.
type MetricInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List returns all registered metrics.
func (h *MetricsHandler) List(w http.ResponseWriter, r *http.Request) {
	names := h.engine.Names()
	infos := make([]MetricInfo, 0, len(names))
	for _, name := range names {
		m, ok := h.engine.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, MetricInfo{
			Name:        m.Name(),
			Description: m.Description(),
		})
	}
	response.JSON(w, http.StatusOK, infos)
}
