// internal/storage/archive/reports.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/newthinker/augur/internal/core"
)

const reportsRoot = "reports"

// ReportPath is where the response with the given ID processed at t is kept.
func ReportPath(id string, t time.Time) string {
	t = t.UTC()
	return path.Join(reportsRoot, t.Format("2006"), t.Format("01"), t.Format("02"), id+".json")
}

// Reports archives processed signal responses as JSON documents.
type Reports struct {
	storage Storage
}

// NewReports wraps a storage backend.
func NewReports(storage Storage) *Reports {
	return &Reports{storage: storage}
}

// Save writes resp under its enhanced signal ID and returns the path.
func (r *Reports) Save(ctx context.Context, resp *core.SignalResponse) (string, error) {
	if resp == nil || resp.Signal == nil || resp.Signal.ID == "" {
		return "", core.WrapError(core.ErrArchiveFailed, fmt.Errorf("response has no signal id"))
	}
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", core.WrapError(core.ErrArchiveFailed, fmt.Errorf("encoding response: %w", err))
	}
	p := ReportPath(resp.Signal.ID, resp.StartedAt)
	if err := r.storage.Write(ctx, p, data); err != nil {
		return "", err
	}
	return p, nil
}

// Load reads back the response archived for id on day.
func (r *Reports) Load(ctx context.Context, id string, day time.Time) (*core.SignalResponse, error) {
	data, err := r.storage.Read(ctx, ReportPath(id, day))
	if err != nil {
		return nil, err
	}
	var resp core.SignalResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("decoding %s: %w", id, err))
	}
	return &resp, nil
}

// ListDay returns the IDs archived on day.
func (r *Reports) ListDay(ctx context.Context, day time.Time) ([]string, error) {
	day = day.UTC()
	prefix := path.Join(reportsRoot, day.Format("2006"), day.Format("01"), day.Format("02"))
	paths, err := r.storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasSuffix(p, ".json") {
			ids = append(ids, strings.TrimSuffix(path.Base(p), ".json"))
		}
	}
	return ids, nil
}
