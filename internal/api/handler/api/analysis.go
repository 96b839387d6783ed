// internal/api/handler/api/analysis.go
package api

import (
	"context"
	"net/http"

	"github.com/newthinker/augur/internal/api/response"
	"github.com/newthinker/augur/internal/core"
)

// AnalysisApp defines the read-side views the analysis handler serves.
type AnalysisApp interface {
	AnalyzePatterns(ctx context.Context, alert core.Alert) *core.PatternAnalysis
	GetMarketSentiment(ctx context.Context, symbol string) *core.SentimentResult
	Dashboard(ctx context.Context) (*core.Dashboard, error)
}

// AnalysisHandler handles pattern, sentiment and dashboard requests.
type AnalysisHandler struct {
	app AnalysisApp
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(app AnalysisApp) *AnalysisHandler {
	return &AnalysisHandler{app: app}
}

// Patterns runs pattern detection for the alert's index. Only the index
// field is required.
func (h *AnalysisHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	alert, ok := decodeAlert(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, h.app.AnalyzePatterns(r.Context(), alert))
}

// Sentiment returns the composite market sentiment.
func (h *AnalysisHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.app.GetMarketSentiment(r.Context(), r.URL.Query().Get("symbol")))
}

// Dashboard returns the combined operator overview.
func (h *AnalysisHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.Dashboard(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, d)
}
