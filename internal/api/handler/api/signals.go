// internal/api/handler/api/signals.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/newthinker/augur/internal/api/response"
	"github.com/newthinker/augur/internal/core"
)

// maxAlertBytes bounds the alert request body.
const maxAlertBytes = 64 << 10

// SignalApp defines what the signals handler needs from the pipeline.
type SignalApp interface {
	ProcessSignal(ctx context.Context, alert core.Alert) *core.SignalResponse
	RecentSignals(ctx context.Context, limit int) ([]core.SignalSummary, error)
}

// SignalsHandler handles alert processing requests.
type SignalsHandler struct {
	app SignalApp
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(app SignalApp) *SignalsHandler {
	return &SignalsHandler{app: app}
}

// Process runs one alert through the full pipeline. Malformed alerts are
// rejected before any stage runs.
func (h *SignalsHandler) Process(w http.ResponseWriter, r *http.Request) {
	alert, ok := decodeAlert(w, r)
	if !ok {
		return
	}
	if err := alert.Validate(); err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.app.ProcessSignal(r.Context(), alert))
}

// Recent returns the latest processed signal summaries.
func (h *SignalsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
			return
		}
		limit = n
	}

	signals, err := h.app.RecentSignals(r.Context(), limit)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"signals": signals,
		"count":   len(signals),
	})
}

// decodeAlert reads an alert body, writing a 400 on failure.
func decodeAlert(w http.ResponseWriter, r *http.Request) (core.Alert, bool) {
	var alert core.Alert
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAlertBytes)).Decode(&alert); err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidRequest, err))
		return alert, false
	}
	return alert, true
}
