package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/augur/internal/core"
)

func TestReportPath(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2025, 3, 4, 2, 0, 0, 0, ist) // 2025-03-03 20:30 UTC

	assert.Equal(t, "reports/2025/03/03/abc.json", ReportPath("abc", at))
}

func TestReports_SaveLoadList(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	reports := NewReports(fs)
	ctx := context.Background()

	started := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	resp := &core.SignalResponse{
		StartedAt: started,
		Signal:    &core.EnhancedSignal{ID: "sig-1", SignalID: "S3", ConfidenceScore: 71.5},
		Decision:  &core.TradingDecision{SignalID: "S3", Decision: core.DecisionBuy, Confidence: 72},
	}

	p, err := reports.Save(ctx, resp)
	require.NoError(t, err)
	assert.Equal(t, "reports/2025/03/04/sig-1.json", p)

	loaded, err := reports.Load(ctx, "sig-1", started)
	require.NoError(t, err)
	assert.Equal(t, "S3", loaded.Signal.SignalID)
	assert.Equal(t, core.DecisionBuy, loaded.Decision.Decision)

	ids, err := reports.ListDay(ctx, started)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig-1"}, ids)

	_, err = reports.Load(ctx, "sig-2", started)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestReports_SaveWithoutID(t *testing.T) {
	reports := NewReports(nil)
	_, err := reports.Save(context.Background(), &core.SignalResponse{})
	assert.True(t, errors.Is(err, core.ErrArchiveFailed))
}
