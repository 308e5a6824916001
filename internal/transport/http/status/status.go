package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dongwon38/print-agent/internal/service/models/printjob"
	"github.com/Dongwon38/print-agent/internal/worker/poller"
)

const (
	defaultJobsLimit = 20
	maxJobsLimit     = 200
)

type statusService interface {
	Status() poller.Status
}

type journalService interface {
	RecentJobs(ctx context.Context, limit uint64) ([]printjob.Job, error)
}

// Status godoc
//
//	@Summary	Current poller state
//	@Produce	json
//	@Success	200	{object}	poller.Status
//	@Router		/api/status [get]
func Status(w http.ResponseWriter, _ *http.Request, service statusService) {
	writeJSON(w, service.Status())
}

// Jobs godoc
//
//	@Summary	Most recent print attempts
//	@Produce	json
//	@Param		limit	query	int	false	"Maximum number of jobs"
//	@Success	200	{array}	printjob.Job
//	@Failure	400,500	{string}	string
//	@Router		/api/jobs [get]
func Jobs(w http.ResponseWriter, r *http.Request, service journalService) {
	limit := uint64(defaultJobsLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || n == 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)

			return
		}
		limit = min(n, maxJobsLimit)
	}

	jobs, err := service.RecentJobs(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error listing print jobs", "error", err)

		return
	}
	if jobs == nil {
		jobs = []printjob.Job{}
	}

	writeJSON(w, jobs)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}
