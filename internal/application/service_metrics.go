package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/ports"
)

// issueWindowFilter is the single predicate every issue-backed KPI filters
// through, so `opened` vs `updated` attribution stays consistent across the
// whole report.
func issueWindowFilter(win Window, mode AttributionMode) ports.IssueEventFilter {
	field := ports.TimeFieldOpened
	if mode == AttributionUpdated {
		field = ports.TimeFieldUpdated
	}
	return ports.IssueEventFilter{TimeField: field, From: &win.From, To: &win.To}
}

// ChatVolume counts distinct cases per agent having at least one
// agent-authored message in-window. Messages without a sender id land in the
// unassigned bucket rather than being dropped.
func (s *Service) ChatVolume(ctx context.Context, win Window) ([]AgentChatVolume, error) {
	msgs, err := s.messages.Query(ctx, ports.MessageFilter{
		Senders: []domain.SenderType{domain.SenderAgent},
		From:    &win.From,
		To:      &win.To,
	})
	if err != nil {
		return nil, err
	}
	byAgent := map[string]map[uuid.UUID]struct{}{}
	for _, m := range msgs {
		agent := m.SenderID
		if agent == "" {
			agent = UnassignedBucket
		}
		if byAgent[agent] == nil {
			byAgent[agent] = map[uuid.UUID]struct{}{}
		}
		byAgent[agent][m.CaseID] = struct{}{}
	}
	out := make([]AgentChatVolume, 0, len(byAgent))
	for agent, cases := range byAgent {
		out = append(out, AgentChatVolume{AgentID: agent, Cases: len(cases)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cases != out[j].Cases {
			return out[i].Cases > out[j].Cases
		}
		return out[i].AgentID < out[j].AgentID
	})
	return out, nil
}

// MessageFRT measures, per case, the gap between the first agent-authored
// message and the bot message immediately preceding it. Cases without such a
// pair contribute no sample.
func (s *Service) MessageFRT(ctx context.Context, win Window) (FRTStats, error) {
	msgs, err := s.messages.Query(ctx, ports.MessageFilter{From: &win.From, To: &win.To})
	if err != nil {
		return FRTStats{}, err
	}
	byCase := map[uuid.UUID][]domain.Message{}
	for _, m := range msgs {
		byCase[m.CaseID] = append(byCase[m.CaseID], m)
	}
	var samples []float64
	for _, caseMsgs := range byCase {
		sort.Slice(caseMsgs, func(i, j int) bool { return caseMsgs[i].SentAt.Before(caseMsgs[j].SentAt) })
		var lastBot *domain.Message
		for i := range caseMsgs {
			switch caseMsgs[i].Sender {
			case domain.SenderBot:
				lastBot = &caseMsgs[i]
			case domain.SenderAgent:
				if lastBot != nil {
					samples = append(samples, caseMsgs[i].SentAt.Sub(lastBot.SentAt).Minutes())
				}
			}
			if caseMsgs[i].Sender == domain.SenderAgent {
				break
			}
		}
	}
	return frtStats(samples), nil
}

// IssueFRT measures agentLinkedAt - agentCalledAt per issue event. Negative
// durations are data anomalies: logged, skipped, never an error.
func (s *Service) IssueFRT(ctx context.Context, win Window, mode AttributionMode) (FRTStats, error) {
	issues, err := s.issueEvents.Query(ctx, issueWindowFilter(win, mode))
	if err != nil {
		return FRTStats{}, err
	}
	var samples []float64
	for _, issue := range issues {
		if issue.AgentCalledAt == nil || issue.AgentLinkedAt == nil {
			continue
		}
		gap := issue.AgentLinkedAt.Sub(*issue.AgentCalledAt)
		if gap < 0 {
			s.logger.WarnContext(ctx, "issue frt sample skipped",
				"module", "application.metrics",
				"reason", "negative duration",
				"issue_event_id", issue.IssueEventID.String(),
			)
			continue
		}
		samples = append(samples, gap.Minutes())
	}
	return frtStats(samples), nil
}

func frtStats(samples []float64) FRTStats {
	if len(samples) == 0 {
		return FRTStats{Count: 0}
	}
	sort.Float64s(samples)
	var sum float64
	for _, v := range samples {
		sum += v
	}
	mean := round2(sum / float64(len(samples)))
	p50 := round2(nearestRank(samples, 50))
	p90 := round2(nearestRank(samples, 90))
	return FRTStats{Count: len(samples), MeanMinutes: &mean, P50Minutes: &p50, P90Minutes: &p90}
}

// ClosureSLA classifies closed issues per agent against the slow threshold
// and orders the result worst-first.
func (s *Service) ClosureSLA(ctx context.Context, win Window, mode AttributionMode) ([]AgentSLAStats, error) {
	issues, err := s.issueEvents.Query(ctx, issueWindowFilter(win, mode))
	if err != nil {
		return nil, err
	}
	type bucket struct {
		total   int
		slow    int
		minutes float64
	}
	byAgent := map[string]*bucket{}
	for _, issue := range issues {
		if issue.ClosedAt == nil {
			continue
		}
		duration := issue.ClosedAt.Sub(issue.OpenedAt)
		if duration < 0 {
			s.logger.WarnContext(ctx, "closure sample skipped",
				"module", "application.metrics",
				"reason", "closed before opened",
				"issue_event_id", issue.IssueEventID.String(),
			)
			continue
		}
		agent := issue.AgentID
		if agent == "" {
			agent = UnassignedBucket
		}
		b := byAgent[agent]
		if b == nil {
			b = &bucket{}
			byAgent[agent] = b
		}
		b.total++
		b.minutes += duration.Minutes()
		if duration > s.cfg.SLASlowThreshold {
			b.slow++
		}
	}
	out := make([]AgentSLAStats, 0, len(byAgent))
	for agent, b := range byAgent {
		stats := AgentSLAStats{
			AgentID:            agent,
			TotalClosed:        b.total,
			SlowCount:          b.slow,
			AvgDurationMinutes: round2(b.minutes / float64(b.total)),
		}
		stats.SlowRatePct = round2(float64(b.slow) / float64(b.total) * 100)
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SlowRatePct != out[j].SlowRatePct {
			return out[i].SlowRatePct > out[j].SlowRatePct
		}
		if out[i].TotalClosed != out[j].TotalClosed {
			return out[i].TotalClosed > out[j].TotalClosed
		}
		return out[i].AgentID < out[j].AgentID
	})
	return out, nil
}

// Refunds splits refund issues by mode per agent and builds per-machine issue
// summaries with a zero-filled type histogram and an active subcount.
func (s *Service) Refunds(ctx context.Context, win Window, mode AttributionMode) (RefundReport, error) {
	issues, err := s.issueEvents.Query(ctx, issueWindowFilter(win, mode))
	if err != nil {
		return RefundReport{}, err
	}
	report := RefundReport{}
	agents := map[string]*RefundAgentStats{}
	machines := map[string]*MachineIssueStats{}
	for _, issue := range issues {
		machineKey := issue.MachineID
		m := machines[machineKey]
		if m == nil {
			m = &MachineIssueStats{
				MachineID:   issue.MachineID,
				MachineName: issue.MachineName,
				TypeCounts:  map[domain.IssueType]int{},
			}
			for _, t := range domain.IssueTypes() {
				m.TypeCounts[t] = 0
			}
			machines[machineKey] = m
		}
		m.Total++
		m.TypeCounts[issue.Type]++
		if issue.IsActive {
			m.Active++
		}

		if issue.Type != domain.IssueTypeRefund || issue.RefundMode == domain.RefundModeNone {
			continue
		}
		agentKey := issue.AgentID
		if agentKey == "" {
			agentKey = UnassignedBucket
		}
		a := agents[agentKey]
		if a == nil {
			a = &RefundAgentStats{AgentID: agentKey}
			agents[agentKey] = a
		}
		switch issue.RefundMode {
		case domain.RefundModeManual:
			report.ManualCount++
			report.ManualAmount += issue.RefundAmount
			a.ManualCount++
			a.ManualAmount += issue.RefundAmount
			m.ManualRefunds++
			m.ManualRefundAmount += issue.RefundAmount
		case domain.RefundModeAuto:
			report.AutoCount++
			a.AutoCount++
			m.AutoRefunds++
		}
	}
	report.Agents = make([]RefundAgentStats, 0, len(agents))
	for _, a := range agents {
		report.Agents = append(report.Agents, *a)
	}
	sort.Slice(report.Agents, func(i, j int) bool {
		if report.Agents[i].ManualCount != report.Agents[j].ManualCount {
			return report.Agents[i].ManualCount > report.Agents[j].ManualCount
		}
		return report.Agents[i].AgentID < report.Agents[j].AgentID
	})
	report.Machines = make([]MachineIssueStats, 0, len(machines))
	for _, m := range machines {
		report.Machines = append(report.Machines, *m)
	}
	sort.Slice(report.Machines, func(i, j int) bool {
		if report.Machines[i].Total != report.Machines[j].Total {
			return report.Machines[i].Total > report.Machines[j].Total
		}
		return report.Machines[i].MachineID < report.Machines[j].MachineID
	})
	return report, nil
}

// FirstContactResolution is the fraction of cases solved in-window that never
// saw an agent-authored message. No solved cases yields rate 0.
func (s *Service) FirstContactResolution(ctx context.Context, win Window) (FCRStats, error) {
	solved := domain.CaseStatusSolved
	events, err := s.statusEvents.Query(ctx, ports.StatusEventFilter{
		ToStatus: &solved,
		From:     &win.From,
		To:       &win.To,
	})
	if err != nil {
		return FCRStats{}, err
	}
	caseIDs := map[uuid.UUID]struct{}{}
	for _, e := range events {
		caseIDs[e.CaseID] = struct{}{}
	}
	stats := FCRStats{TotalSolved: len(caseIDs)}
	for caseID := range caseIDs {
		id := caseID
		agentMsgs, queryErr := s.messages.Query(ctx, ports.MessageFilter{
			CaseID:  &id,
			Senders: []domain.SenderType{domain.SenderAgent},
		})
		if queryErr != nil {
			return FCRStats{}, queryErr
		}
		if len(agentMsgs) == 0 {
			stats.Count++
		}
	}
	if stats.TotalSolved > 0 {
		stats.Rate = round2(float64(stats.Count) / float64(stats.TotalSolved))
	}
	return stats, nil
}

// LongRunning flags cases active in-window whose span from first customer
// message to resolution (or now, while unresolved) exceeds the threshold.
func (s *Service) LongRunning(ctx context.Context, win Window, now time.Time) (LongRunningStats, error) {
	msgs, err := s.messages.Query(ctx, ports.MessageFilter{From: &win.From, To: &win.To})
	if err != nil {
		return LongRunningStats{}, err
	}
	caseIDs := map[uuid.UUID]struct{}{}
	for _, m := range msgs {
		caseIDs[m.CaseID] = struct{}{}
	}
	stats := LongRunningStats{}
	solved := domain.CaseStatusSolved
	for caseID := range caseIDs {
		id := caseID
		customerMsgs, queryErr := s.messages.Query(ctx, ports.MessageFilter{
			CaseID:  &id,
			Senders: []domain.SenderType{domain.SenderCustomer},
		})
		if queryErr != nil {
			return LongRunningStats{}, queryErr
		}
		if len(customerMsgs) == 0 {
			continue
		}
		start := customerMsgs[0].SentAt
		for _, m := range customerMsgs[1:] {
			if m.SentAt.Before(start) {
				start = m.SentAt
			}
		}
		end := now
		solvedEvents, queryErr := s.statusEvents.Query(ctx, ports.StatusEventFilter{CaseID: &id, ToStatus: &solved})
		if queryErr != nil {
			return LongRunningStats{}, queryErr
		}
		for i, e := range solvedEvents {
			if i == 0 || e.OccurredAt.After(end) {
				end = e.OccurredAt
			}
		}
		stats.Total++
		if end.Sub(start) > s.cfg.LongRunningThreshold {
			stats.Count++
		}
	}
	if stats.Total > 0 {
		stats.Pct = round2(float64(stats.Count) / float64(stats.Total) * 100)
	}
	return stats, nil
}

// Abandonment counts cases opened in-window that never reached SOLVED, never
// got an agent reply, and whose last customer message has gone stale relative
// to now. Staleness is evaluated at query time, not against the window end.
func (s *Service) Abandonment(ctx context.Context, win Window, now time.Time) (AbandonmentStats, error) {
	cases, err := s.cases.Query(ctx, ports.CaseFilter{OpenedFrom: &win.From, OpenedTo: &win.To})
	if err != nil {
		return AbandonmentStats{}, err
	}
	stats := AbandonmentStats{Opened: len(cases)}
	solved := domain.CaseStatusSolved
	for _, c := range cases {
		id := c.CaseID
		solvedEvents, queryErr := s.statusEvents.Query(ctx, ports.StatusEventFilter{CaseID: &id, ToStatus: &solved})
		if queryErr != nil {
			return AbandonmentStats{}, queryErr
		}
		if c.Status == domain.CaseStatusSolved || len(solvedEvents) > 0 {
			continue
		}
		agentMsgs, queryErr := s.messages.Query(ctx, ports.MessageFilter{
			CaseID:  &id,
			Senders: []domain.SenderType{domain.SenderAgent},
		})
		if queryErr != nil {
			return AbandonmentStats{}, queryErr
		}
		if len(agentMsgs) > 0 {
			continue
		}
		customerMsgs, queryErr := s.messages.Query(ctx, ports.MessageFilter{
			CaseID:  &id,
			Senders: []domain.SenderType{domain.SenderCustomer},
		})
		if queryErr != nil {
			return AbandonmentStats{}, queryErr
		}
		if len(customerMsgs) == 0 {
			continue
		}
		last := customerMsgs[0].SentAt
		for _, m := range customerMsgs[1:] {
			if m.SentAt.After(last) {
				last = m.SentAt
			}
		}
		if now.Sub(last) > s.cfg.AbandonmentIdleAfter {
			stats.Abandoned++
		}
	}
	if stats.Opened > 0 {
		stats.RatePct = round2(float64(stats.Abandoned) / float64(stats.Opened) * 100)
	}
	return stats, nil
}

// Satisfaction averages the non-null 1-5 agent ratings in-window, per agent
// and overall.
func (s *Service) Satisfaction(ctx context.Context, win Window, mode AttributionMode) (SatisfactionStats, error) {
	issues, err := s.issueEvents.Query(ctx, issueWindowFilter(win, mode))
	if err != nil {
		return SatisfactionStats{}, err
	}
	type bucket struct {
		sum     int
		samples int
	}
	byAgent := map[string]*bucket{}
	total := bucket{}
	for _, issue := range issues {
		if issue.AgentRating == nil {
			continue
		}
		rating := *issue.AgentRating
		if rating < 1 || rating > 5 {
			s.logger.WarnContext(ctx, "satisfaction sample skipped",
				"module", "application.metrics",
				"reason", "rating out of range",
				"issue_event_id", issue.IssueEventID.String(),
			)
			continue
		}
		agent := issue.AgentID
		if agent == "" {
			agent = UnassignedBucket
		}
		b := byAgent[agent]
		if b == nil {
			b = &bucket{}
			byAgent[agent] = b
		}
		b.sum += rating
		b.samples++
		total.sum += rating
		total.samples++
	}
	stats := SatisfactionStats{Samples: total.samples}
	if total.samples > 0 {
		mean := float64(total.sum) / float64(total.samples)
		overallMean := round2(mean)
		overallPct := round2(mean / 5 * 100)
		stats.OverallMean = &overallMean
		stats.OverallPct = &overallPct
	}
	for agent, b := range byAgent {
		mean := float64(b.sum) / float64(b.samples)
		stats.PerAgent = append(stats.PerAgent, AgentSatisfaction{
			AgentID: agent,
			Mean:    round2(mean),
			Pct:     round2(mean / 5 * 100),
			Samples: b.samples,
		})
	}
	sort.Slice(stats.PerAgent, func(i, j int) bool {
		if stats.PerAgent[i].Mean != stats.PerAgent[j].Mean {
			return stats.PerAgent[i].Mean > stats.PerAgent[j].Mean
		}
		return stats.PerAgent[i].AgentID < stats.PerAgent[j].AgentID
	})
	return stats, nil
}

// ComputeKPIReport fans the independent KPI computations out concurrently and
// assembles the full report. The first store failure is propagated unmodified.
func (s *Service) ComputeKPIReport(ctx context.Context, win Window, mode AttributionMode, now time.Time) (KPIReport, error) {
	report := KPIReport{Window: win, Mode: mode, GeneratedAt: now}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(task func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	run(func() error {
		v, err := s.ChatVolume(ctx, win)
		if err == nil {
			mu.Lock()
			report.ChatVolume = v
			mu.Unlock()
		}
		return err
	})
	run(func() error {
		v, err := s.MessageFRT(ctx, win)
		if err == nil {
			mu.Lock()
			report.MessageFRT = v
			mu.Unlock()
		}
		return err
	})
	run(func() error {
		v, err := s.IssueFRT(ctx, win, mode)
		if err == nil {
			mu.Lock()
			report.IssueFRT = v
			mu.Unlock()
		}
		return err
	})
	run(func() error {
		v, err := s.ClosureSLA(ctx, win, mode)
		if err == nil {
			mu.Lock()
			report.SLA = v
			mu.Unlock()
		}
		return err
	})
	run(func() error {
		v, err := s.Refunds(ctx, win, mode)
		if err == nil {
			mu.Lock()
			report.Refunds = v
			mu.Unlock()
		}
		return err
	})
	run(func() error {
		v, err := s.FirstContactResolution(ctx, win)
		if err == nil {
			mu.Lock()
			report.FCR = v
			mu.Unlock()
		}
		return err
	})
	run(func() error {
		v, err := s.LongRunning(ctx, win, now)
		if err == nil {
			mu.Lock()
			report.LongRunning = v
			mu.Unlock()
		}
		return err
	})
	run(func() error {
		v, err := s.Abandonment(ctx, win, now)
		if err == nil {
			mu.Lock()
			report.Abandonment = v
			mu.Unlock()
		}
		return err
	})
	run(func() error {
		v, err := s.Satisfaction(ctx, win, mode)
		if err == nil {
			mu.Lock()
			report.Satisfaction = v
			mu.Unlock()
		}
		return err
	})
	wg.Wait()
	if firstErr != nil {
		return KPIReport{}, firstErr
	}
	return report, nil
}
