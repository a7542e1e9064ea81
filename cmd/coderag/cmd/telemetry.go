package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/coderag/internal/telemetry"
	"github.com/Aman-CERP/coderag/internal/ui"
)

// topTermsShown is how many query terms status lists.
const topTermsShown = 5

// recordQuery stores ev in the project's query metrics. Failures are
// logged and never fail the search.
func (p *project) recordQuery(ctx context.Context, ev telemetry.QueryEvent) {
	if !p.cfg.Telemetry.Enabled {
		return
	}
	s, err := telemetry.Open(p.cacheDir())
	if err != nil {
		slog.Debug("telemetry_open_failed", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = s.Close() }()

	if err := s.Record(ctx, ev); err != nil {
		slog.Debug("telemetry_record_failed", slog.String("error", err.Error()))
	}
}

// queryStats reads recorded searches, or nil when there are none.
func (p *project) queryStats(ctx context.Context) *ui.QueryStats {
	if _, err := os.Stat(filepath.Join(p.cacheDir(), telemetry.DBFile)); err != nil {
		return nil
	}
	s, err := telemetry.Open(p.cacheDir())
	if err != nil {
		slog.Debug("telemetry_open_failed", slog.String("error", err.Error()))
		return nil
	}
	defer func() { _ = s.Close() }()

	sum, err := s.Summary(ctx, topTermsShown)
	if err != nil {
		slog.Debug("telemetry_summary_failed", slog.String("error", err.Error()))
		return nil
	}
	if sum.TotalQueries == 0 {
		return nil
	}
	stats := &ui.QueryStats{
		Total:       sum.TotalQueries,
		ZeroResults: sum.ZeroResultCount,
		Degraded:    sum.DegradedCount,
	}
	for _, tc := range sum.TopTerms {
		stats.TopTerms = append(stats.TopTerms, tc.Term)
	}
	return stats
}
