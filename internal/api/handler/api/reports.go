// internal/api/handler/api/reports.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/prism/internal/api/response"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/storage/report"
)

const defaultReportLimit = 50

// ReportsHandler serves the analysis report history.
type ReportsHandler struct {
	store report.Store
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(store report.Store) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// List returns stored reports, newest first. Supports symbol, market,
// window, from, to, limit and offset query parameters.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	entries, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"reports": entries,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

// Get returns a single report by ID.
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	entry, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}
	response.JSON(w, http.StatusOK, entry)
}

func parseListFilter(r *http.Request) (report.ListFilter, error) {
	q := r.URL.Query()
	filter := report.ListFilter{
		Symbol: q.Get("symbol"),
		Market: q.Get("market"),
		Limit:  defaultReportLimit,
	}

	if v := q.Get("window"); v != "" {
		window, err := strconv.Atoi(v)
		if err != nil {
			return filter, core.WrapError(core.ErrConfigInvalid, err)
		}
		filter.Window = window
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return filter, core.WrapError(core.ErrConfigInvalid, err)
		}
		if limit > 0 {
			filter.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return filter, core.WrapError(core.ErrConfigInvalid, err)
		}
		if offset > 0 {
			filter.Offset = offset
		}
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, core.WrapError(core.ErrConfigInvalid, err)
		}
		filter.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, core.WrapError(core.ErrConfigInvalid, err)
		}
		filter.To = to
	}

	return filter, nil
}
