// internal/api/handler/api/training.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newthinker/augur/internal/api/job"
	"github.com/newthinker/augur/internal/api/response"
	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/metrics"
)

const (
	// JobTypeTrain tags training jobs in the job store.
	JobTypeTrain = "train"

	trainTimeout       = 5 * time.Minute
	defaultTrainWindow = 30 * 24 * time.Hour
)

// TrainRequest is the request body for starting a training run. Both
// bounds are optional: to defaults to now and from to 30 days before to.
type TrainRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// TrainingApp defines what the training handler needs from the pipeline.
type TrainingApp interface {
	TrainModels(ctx context.Context, from, to time.Time) (*core.TrainingResult, error)
	GetModelPerformance() core.ModelPerformance
}

// TrainingHandler handles training and model performance requests.
type TrainingHandler struct {
	jobStore *job.Store
	app      TrainingApp
	metrics  *metrics.Registry
	now      func() time.Time
}

// NewTrainingHandler creates a new training handler. reg may be nil.
func NewTrainingHandler(jobStore *job.Store, app TrainingApp, reg *metrics.Registry) *TrainingHandler {
	return &TrainingHandler{
		jobStore: jobStore,
		app:      app,
		metrics:  reg,
		now:      time.Now,
	}
}

// Performance returns the per-component accuracy summary.
func (h *TrainingHandler) Performance(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.app.GetModelPerformance())
}

// Create starts a training job and returns immediately with its ID.
func (h *TrainingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
		return
	}

	from, to, err := h.window(req)
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
		return
	}

	j := h.jobStore.Create(JobTypeTrain)
	h.metrics.SetJobsActive(JobTypeTrain, h.jobStore.Active(JobTypeTrain))

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.runTraining(jobID, from, to)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
		"from":   from,
		"to":     to,
	})
}

func (h *TrainingHandler) window(req TrainRequest) (time.Time, time.Time, error) {
	to := h.now()
	if req.To != "" {
		t, err := parseTime(req.To)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}

	from := to.Add(-defaultTrainWindow)
	if req.From != "" {
		t, err := parseTime(req.From)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}

	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("from %s is not before to %s",
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return from, to, nil
}

// parseTime accepts RFC3339 timestamps or plain dates.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// runTraining executes the training run and updates job status.
func (h *TrainingHandler) runTraining(jobID string, from, to time.Time) {
	defer func() {
		h.metrics.SetJobsActive(JobTypeTrain, h.jobStore.Active(JobTypeTrain))
	}()

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), trainTimeout)
	defer cancel()
	result, err := h.app.TrainModels(ctx, from, to)

	if err != nil {
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Result = result
			j.Error = asCoreError(err)
		})
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

func asCoreError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	return core.WrapError(core.ErrComputation, err)
}

// GetStatus returns the status of a job.
func (h *TrainingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobStore.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"type":     j.Type,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status.Done() && j.Result != nil {
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
