package postgres

import (
	"time"

	"github.com/google/uuid"
)

type caseModel struct {
	CaseID           uuid.UUID  `gorm:"column:case_id;type:uuid;primaryKey"`
	CustomerRef      string     `gorm:"column:customer_ref"`
	Status           string     `gorm:"column:status"`
	AssignedTo       string     `gorm:"column:assigned_to"`
	CurrentEpisodeID *uuid.UUID `gorm:"column:current_episode_id"`
	FirstOpenedAt    *time.Time `gorm:"column:first_opened_at"`
	LastClosedAt     *time.Time `gorm:"column:last_closed_at"`
	TimerDeadline    *time.Time `gorm:"column:timer_deadline"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (caseModel) TableName() string { return "cases" }

type episodeModel struct {
	EpisodeID       uuid.UUID  `gorm:"column:episode_id;type:uuid;primaryKey"`
	CaseID          uuid.UUID  `gorm:"column:case_id;index:idx_episodes_case_sequence,unique"`
	Sequence        int        `gorm:"column:sequence;index:idx_episodes_case_sequence,unique"`
	Status          string     `gorm:"column:status"`
	AssignedTo      string     `gorm:"column:assigned_to"`
	StartedAt       time.Time  `gorm:"column:started_at"`
	EndedAt         *time.Time `gorm:"column:ended_at"`
	DurationMinutes *int       `gorm:"column:duration_minutes"`
	Metadata        []byte     `gorm:"column:metadata;type:jsonb"`
	MachineID       string     `gorm:"column:machine_id"`
}

func (episodeModel) TableName() string { return "episodes" }

type messageModel struct {
	MessageID    uuid.UUID  `gorm:"column:message_id;type:uuid;primaryKey"`
	CaseID       uuid.UUID  `gorm:"column:case_id;index"`
	EpisodeID    *uuid.UUID `gorm:"column:episode_id"`
	Sender       string     `gorm:"column:sender"`
	SenderID     string     `gorm:"column:sender_id"`
	SentAt       time.Time  `gorm:"column:sent_at;index"`
	Text         string     `gorm:"column:text"`
	Kind         string     `gorm:"column:kind"`
	IssueEventID *uuid.UUID `gorm:"column:issue_event_id"`
}

func (messageModel) TableName() string { return "messages" }

type statusEventModel struct {
	StatusEventID uuid.UUID `gorm:"column:status_event_id;type:uuid;primaryKey"`
	CaseID        uuid.UUID `gorm:"column:case_id;index"`
	FromStatus    string    `gorm:"column:from_status"`
	ToStatus      string    `gorm:"column:to_status"`
	ActorID       string    `gorm:"column:actor_id"`
	OccurredAt    time.Time `gorm:"column:occurred_at;index"`
}

func (statusEventModel) TableName() string { return "status_events" }

type issueEventModel struct {
	IssueEventID  uuid.UUID  `gorm:"column:issue_event_id;type:uuid;primaryKey"`
	CaseID        *uuid.UUID `gorm:"column:case_id"`
	AgentID       string     `gorm:"column:agent_id"`
	MachineID     string     `gorm:"column:machine_id;index"`
	MachineName   string     `gorm:"column:machine_name"`
	IssueType     string     `gorm:"column:issue_type"`
	RefundMode    string     `gorm:"column:refund_mode"`
	RefundAmount  int64      `gorm:"column:refund_amount"`
	OpenedAt      time.Time  `gorm:"column:opened_at;index"`
	ClosedAt      *time.Time `gorm:"column:closed_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;index"`
	IsActive      bool       `gorm:"column:is_active"`
	AgentCalledAt *time.Time `gorm:"column:agent_called_at"`
	AgentLinkedAt *time.Time `gorm:"column:agent_linked_at"`
	AgentRating   *int       `gorm:"column:agent_rating"`
}

func (issueEventModel) TableName() string { return "issue_events" }

type agentModel struct {
	AgentID     string `gorm:"column:agent_id;primaryKey"`
	DisplayName string `gorm:"column:display_name"`
	Active      bool   `gorm:"column:active"`
}

func (agentModel) TableName() string { return "agents" }

type dailyAgentSummaryModel struct {
	SummaryID           uuid.UUID `gorm:"column:summary_id;type:uuid;primaryKey"`
	AgentID             string    `gorm:"column:agent_id;index:idx_summaries_agent_day,unique"`
	BusinessDay         string    `gorm:"column:business_day;index:idx_summaries_agent_day,unique"`
	FirstMessageID      uuid.UUID `gorm:"column:first_message_id"`
	LastMessageID       uuid.UUID `gorm:"column:last_message_id"`
	FirstMessageAt      time.Time `gorm:"column:first_message_at"`
	LastMessageAt       time.Time `gorm:"column:last_message_at"`
	MessageCount        int       `gorm:"column:message_count"`
	ActiveMinutes       int       `gorm:"column:active_minutes"`
	FirstMessagePreview string    `gorm:"column:first_message_preview"`
	LastMessagePreview  string    `gorm:"column:last_message_preview"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (dailyAgentSummaryModel) TableName() string { return "daily_agent_summaries" }
