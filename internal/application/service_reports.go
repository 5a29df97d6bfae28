package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OverviewReport is the cache-fronted entry point for the full KPI report.
// Cache failures degrade to recomputation, never to a request failure.
func (s *Service) OverviewReport(ctx context.Context, win Window, mode AttributionMode, now time.Time) (KPIReport, error) {
	key := reportCacheKey(win, mode)
	if s.cache != nil {
		raw, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "report cache read failed",
				"module", "application.reports",
				"key", key,
				"error", err,
			)
		} else if hit {
			var cached KPIReport
			if unmarshalErr := json.Unmarshal(raw, &cached); unmarshalErr == nil {
				return cached, nil
			}
		}
	}
	report, err := s.ComputeKPIReport(ctx, win, mode, now)
	if err != nil {
		return KPIReport{}, err
	}
	if s.cache != nil && s.cfg.ReportCacheTTL > 0 {
		if raw, marshalErr := json.Marshal(report); marshalErr == nil {
			if setErr := s.cache.Set(ctx, key, raw, s.cfg.ReportCacheTTL); setErr != nil {
				s.logger.WarnContext(ctx, "report cache write failed",
					"module", "application.reports",
					"key", key,
					"error", setErr,
				)
			}
		}
	}
	return report, nil
}

func reportCacheKey(win Window, mode AttributionMode) string {
	return fmt.Sprintf("reports:overview:%d:%d:%s", win.From.Unix(), win.To.Unix(), mode)
}

// RefreshBusinessDayReport recomputes and re-caches the current business
// day's report. Scheduled refresh is idempotent; the worker invokes this
// after each rollover.
func (s *Service) RefreshBusinessDayReport(ctx context.Context, now time.Time) error {
	win, err := s.ResolveRange("today", "", "", now)
	if err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, reportCacheKey(win, AttributionOpened))
	}
	_, err = s.OverviewReport(ctx, win, AttributionOpened, now)
	return err
}
