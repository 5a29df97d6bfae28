package application

import (
	"context"
	"time"
)

// Polarity is a fixed property of each tracked KPI, not derived from the
// numbers: true means lower is better.
var lowerIsBetter = map[string]bool{
	"chat_volume":        false,
	"message_frt_mean":   true,
	"issue_frt_mean":     true,
	"sla_slow_rate":      true,
	"manual_refund_rate": true,
	"fcr_rate":           false,
	"long_running_pct":   true,
	"abandonment_rate":   true,
	"satisfaction_pct":   false,
}

var comparedKPIs = []string{
	"chat_volume",
	"message_frt_mean",
	"issue_frt_mean",
	"sla_slow_rate",
	"manual_refund_rate",
	"fcr_rate",
	"long_running_pct",
	"abandonment_rate",
	"satisfaction_pct",
}

// Compare runs the aggregation engine over the current window and the
// equal-length window immediately preceding it, then derives percentage
// deltas with per-KPI polarity.
func (s *Service) Compare(ctx context.Context, win Window, mode AttributionMode, now time.Time) (ComparisonReport, error) {
	previous := win.Previous()
	current, err := s.ComputeKPIReport(ctx, win, mode, now)
	if err != nil {
		return ComparisonReport{}, err
	}
	prior, err := s.ComputeKPIReport(ctx, previous, mode, now)
	if err != nil {
		return ComparisonReport{}, err
	}
	report := ComparisonReport{Current: win, Previous: previous, Mode: mode}
	currentValues := kpiValues(current)
	priorValues := kpiValues(prior)
	for _, name := range comparedKPIs {
		delta := KPIDelta{
			Name:     name,
			Current:  currentValues[name],
			Previous: priorValues[name],
		}
		if delta.Previous != 0 {
			delta.PctChange = round2((delta.Current - delta.Previous) / delta.Previous * 100)
		}
		improved := delta.Current >= delta.Previous
		if lowerIsBetter[name] {
			improved = delta.Current <= delta.Previous
		}
		delta.IsPositive = improved
		report.Deltas = append(report.Deltas, delta)
	}
	return report, nil
}

func kpiValues(r KPIReport) map[string]float64 {
	totalChats := 0
	for _, v := range r.ChatVolume {
		totalChats += v.Cases
	}
	totalClosed, totalSlow := 0, 0
	for _, a := range r.SLA {
		totalClosed += a.TotalClosed
		totalSlow += a.SlowCount
	}
	slaSlowRate := 0.0
	if totalClosed > 0 {
		slaSlowRate = round2(float64(totalSlow) / float64(totalClosed) * 100)
	}
	refundTotal := r.Refunds.ManualCount + r.Refunds.AutoCount
	manualRefundRate := 0.0
	if refundTotal > 0 {
		manualRefundRate = round2(float64(r.Refunds.ManualCount) / float64(refundTotal) * 100)
	}
	values := map[string]float64{
		"chat_volume":        float64(totalChats),
		"sla_slow_rate":      slaSlowRate,
		"manual_refund_rate": manualRefundRate,
		"fcr_rate":           r.FCR.Rate,
		"long_running_pct":   r.LongRunning.Pct,
		"abandonment_rate":   r.Abandonment.RatePct,
	}
	if r.MessageFRT.MeanMinutes != nil {
		values["message_frt_mean"] = *r.MessageFRT.MeanMinutes
	}
	if r.IssueFRT.MeanMinutes != nil {
		values["issue_frt_mean"] = *r.IssueFRT.MeanMinutes
	}
	if r.Satisfaction.OverallPct != nil {
		values["satisfaction_pct"] = *r.Satisfaction.OverallPct
	}
	return values
}
