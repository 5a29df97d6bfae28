package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

// SummaryWorker refreshes the cached business-day report on an interval and,
// when the business day rolls over, finalizes agent summaries for the day
// that just closed.
type SummaryWorker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
	nowFn    func() time.Time

	lastDay string
}

func NewSummaryWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *SummaryWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SummaryWorker{
		logger:   logger,
		service:  service,
		interval: interval,
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
}

func (w *SummaryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.lastDay = domain.BusinessDayDate(w.nowFn())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := w.runOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "summary iteration failed",
				"module", "events.summary_worker",
				"layer", "adapter",
				"operation", "run_once",
				"outcome", "failure",
				"error", err,
			)
		}
	}
}

func (w *SummaryWorker) runOnce(ctx context.Context) error {
	now := w.nowFn()
	var errs []error

	day := domain.BusinessDayDate(now)
	if day != w.lastDay {
		// The clock crossed 04:00 local; summarize the day that just ended.
		closed := domain.BusinessDayStart(now).Add(-time.Hour)
		if err := w.service.HandleDailyAgentSummaries(ctx, closed); err != nil {
			errs = append(errs, err)
		} else {
			w.logger.InfoContext(ctx, "business day summarized",
				"module", "events.summary_worker",
				"business_day", domain.BusinessDayDate(closed),
			)
		}
		w.lastDay = day
	}

	if err := w.service.RefreshBusinessDayReport(ctx, now); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
