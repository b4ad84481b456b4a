// internal/api/handler/api/analysis.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/newthinker/prism/internal/analysis"
	"github.com/newthinker/prism/internal/api/job"
	"github.com/newthinker/prism/internal/api/response"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/storage/report"
)

const analysisTimeout = 5 * time.Minute

// AnalysisRequest is the request body for starting an analysis.
type AnalysisRequest struct {
	Symbol       string `json:"symbol"`
	MarketSymbol string `json:"market_symbol,omitempty"`
	Market       string `json:"market,omitempty"`
	Window       int    `json:"window,omitempty"`
	Interval     string `json:"interval,omitempty"`
	Source       string `json:"source,omitempty"`
	Start        string `json:"start,omitempty"`
	End          string `json:"end,omitempty"`
}

// AnalysisHandler handles analysis API requests.
type AnalysisHandler struct {
	jobStore *job.Store
	runner   *analysis.Runner
	defaults analysis.Options
	reports  report.Store
}

// NewAnalysisHandler creates a new analysis handler. The reports store is
// optional; when set, every completed analysis is recorded there.
func NewAnalysisHandler(jobStore *job.Store, runner *analysis.Runner, defaults analysis.Options, reports report.Store) *AnalysisHandler {
	return &AnalysisHandler{
		jobStore: jobStore,
		runner:   runner,
		defaults: defaults,
		reports:  reports,
	}
}

// Create starts a new analysis job.
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if req.Symbol == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, nil))
		return
	}

	opts, err := h.buildOptions(req)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	j := h.jobStore.Create("analysis")

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.runAnalysis(jobID, req.Symbol, opts)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

func (h *AnalysisHandler) buildOptions(req AnalysisRequest) (analysis.Options, error) {
	opts := h.defaults
	if req.MarketSymbol != "" {
		opts.MarketSymbol = req.MarketSymbol
	}
	if req.Market != "" {
		opts.Market = core.Market(req.Market)
	}
	if req.Window > 0 {
		opts.Window = req.Window
	}
	if req.Interval != "" {
		opts.Interval = req.Interval
	}
	if req.Source != "" {
		opts.Source = req.Source
	}
	if req.Start != "" {
		start, err := time.Parse("2006-01-02", req.Start)
		if err != nil {
			return opts, core.WrapError(core.ErrConfigInvalid, err)
		}
		opts.Start = start
	}
	if req.End != "" {
		end, err := time.Parse("2006-01-02", req.End)
		if err != nil {
			return opts, core.WrapError(core.ErrConfigInvalid, err)
		}
		opts.End = end
	}
	return opts, nil
}

// runAnalysis executes the analysis and updates job status.
func (h *AnalysisHandler) runAnalysis(jobID, symbol string, opts analysis.Options) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()
	result, err := h.runner.Run(ctx, symbol, opts)

	if err != nil {
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrAnalysisFailed, err)
		})
		return
	}

	if h.reports != nil {
		h.reports.Save(ctx, result.Report())
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

// GetStatus returns the status of an analysis job.
func (h *AnalysisHandler) GetStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}
