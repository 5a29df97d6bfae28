package postgres

import (
	"encoding/json"

	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

func toDomainCase(m caseModel) domain.Case {
	return domain.Case{
		CaseID: m.CaseID, CustomerRef: m.CustomerRef, Status: domain.CaseStatus(m.Status),
		AssignedTo: m.AssignedTo, CurrentEpisodeID: m.CurrentEpisodeID,
		FirstOpenedAt: m.FirstOpenedAt, LastClosedAt: m.LastClosedAt, TimerDeadline: m.TimerDeadline,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toCaseModel(c domain.Case) caseModel {
	return caseModel{
		CaseID: c.CaseID, CustomerRef: c.CustomerRef, Status: string(c.Status),
		AssignedTo: c.AssignedTo, CurrentEpisodeID: c.CurrentEpisodeID,
		FirstOpenedAt: c.FirstOpenedAt, LastClosedAt: c.LastClosedAt, TimerDeadline: c.TimerDeadline,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func toDomainEpisode(m episodeModel) domain.Episode {
	var meta map[string]string
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &meta)
	}
	return domain.Episode{
		EpisodeID: m.EpisodeID, CaseID: m.CaseID, Sequence: m.Sequence,
		Status: domain.CaseStatus(m.Status), AssignedTo: m.AssignedTo,
		StartedAt: m.StartedAt, EndedAt: m.EndedAt, DurationMinutes: m.DurationMinutes,
		Metadata: meta, MachineID: m.MachineID,
	}
}

func toEpisodeModel(e domain.Episode) episodeModel {
	var meta []byte
	if len(e.Metadata) > 0 {
		meta, _ = json.Marshal(e.Metadata)
	}
	return episodeModel{
		EpisodeID: e.EpisodeID, CaseID: e.CaseID, Sequence: e.Sequence,
		Status: string(e.Status), AssignedTo: e.AssignedTo,
		StartedAt: e.StartedAt, EndedAt: e.EndedAt, DurationMinutes: e.DurationMinutes,
		Metadata: meta, MachineID: e.MachineID,
	}
}

func toDomainMessage(m messageModel) domain.Message {
	return domain.Message{
		MessageID: m.MessageID, CaseID: m.CaseID, EpisodeID: m.EpisodeID,
		Sender: domain.SenderType(m.Sender), SenderID: m.SenderID, SentAt: m.SentAt,
		Text: m.Text, Kind: domain.MessageKind(m.Kind), IssueEventID: m.IssueEventID,
	}
}

func toMessageModel(m domain.Message) messageModel {
	return messageModel{
		MessageID: m.MessageID, CaseID: m.CaseID, EpisodeID: m.EpisodeID,
		Sender: string(m.Sender), SenderID: m.SenderID, SentAt: m.SentAt,
		Text: m.Text, Kind: string(m.Kind), IssueEventID: m.IssueEventID,
	}
}

func toDomainStatusEvent(m statusEventModel) domain.StatusEvent {
	return domain.StatusEvent{
		StatusEventID: m.StatusEventID, CaseID: m.CaseID,
		FromStatus: domain.CaseStatus(m.FromStatus), ToStatus: domain.CaseStatus(m.ToStatus),
		ActorID: m.ActorID, OccurredAt: m.OccurredAt,
	}
}

func toStatusEventModel(e domain.StatusEvent) statusEventModel {
	return statusEventModel{
		StatusEventID: e.StatusEventID, CaseID: e.CaseID,
		FromStatus: string(e.FromStatus), ToStatus: string(e.ToStatus),
		ActorID: e.ActorID, OccurredAt: e.OccurredAt,
	}
}

func toDomainIssueEvent(m issueEventModel) domain.IssueEvent {
	return domain.IssueEvent{
		IssueEventID: m.IssueEventID, CaseID: m.CaseID, AgentID: m.AgentID,
		MachineID: m.MachineID, MachineName: m.MachineName,
		Type: domain.IssueType(m.IssueType), RefundMode: domain.RefundMode(m.RefundMode),
		RefundAmount: m.RefundAmount, OpenedAt: m.OpenedAt, ClosedAt: m.ClosedAt,
		UpdatedAt: m.UpdatedAt, IsActive: m.IsActive,
		AgentCalledAt: m.AgentCalledAt, AgentLinkedAt: m.AgentLinkedAt, AgentRating: m.AgentRating,
	}
}

func toIssueEventModel(e domain.IssueEvent) issueEventModel {
	return issueEventModel{
		IssueEventID: e.IssueEventID, CaseID: e.CaseID, AgentID: e.AgentID,
		MachineID: e.MachineID, MachineName: e.MachineName,
		IssueType: string(e.Type), RefundMode: string(e.RefundMode),
		RefundAmount: e.RefundAmount, OpenedAt: e.OpenedAt, ClosedAt: e.ClosedAt,
		UpdatedAt: e.UpdatedAt, IsActive: e.IsActive,
		AgentCalledAt: e.AgentCalledAt, AgentLinkedAt: e.AgentLinkedAt, AgentRating: e.AgentRating,
	}
}

func toDomainAgent(m agentModel) domain.Agent {
	return domain.Agent{AgentID: m.AgentID, DisplayName: m.DisplayName, Active: m.Active}
}

func toDomainSummary(m dailyAgentSummaryModel) domain.DailyAgentSummary {
	return domain.DailyAgentSummary{
		SummaryID: m.SummaryID, AgentID: m.AgentID, BusinessDay: m.BusinessDay,
		FirstMessageID: m.FirstMessageID, LastMessageID: m.LastMessageID,
		FirstMessageAt: m.FirstMessageAt, LastMessageAt: m.LastMessageAt,
		MessageCount: m.MessageCount, ActiveMinutes: m.ActiveMinutes,
		FirstMessagePreview: m.FirstMessagePreview, LastMessagePreview: m.LastMessagePreview,
		UpdatedAt: m.UpdatedAt,
	}
}

func toSummaryModel(s domain.DailyAgentSummary) dailyAgentSummaryModel {
	return dailyAgentSummaryModel{
		SummaryID: s.SummaryID, AgentID: s.AgentID, BusinessDay: s.BusinessDay,
		FirstMessageID: s.FirstMessageID, LastMessageID: s.LastMessageID,
		FirstMessageAt: s.FirstMessageAt, LastMessageAt: s.LastMessageAt,
		MessageCount: s.MessageCount, ActiveMinutes: s.ActiveMinutes,
		FirstMessagePreview: s.FirstMessagePreview, LastMessagePreview: s.LastMessagePreview,
		UpdatedAt: s.UpdatedAt,
	}
}
