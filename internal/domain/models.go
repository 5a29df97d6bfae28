package domain

import (
	"time"

	"github.com/google/uuid"
)

type CaseStatus string

const (
	CaseStatusInitiated  CaseStatus = "INITIATED"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusSolved     CaseStatus = "SOLVED"
	CaseStatusUnsolved   CaseStatus = "UNSOLVED"
	CaseStatusUnknown    CaseStatus = "UNKNOWN"
)

type SenderType string

const (
	SenderBot      SenderType = "BOT"
	SenderAgent    SenderType = "AGENT"
	SenderCustomer SenderType = "CUSTOMER"
)

type MessageKind string

const (
	MessageKindText        MessageKind = "text"
	MessageKindInteractive MessageKind = "interactive"
	MessageKindMedia       MessageKind = "media"
)

type RefundMode string

const (
	RefundModeManual RefundMode = "MANUAL"
	RefundModeAuto   RefundMode = "AUTO"
	RefundModeNone   RefundMode = ""
)

type IssueType string

const (
	IssueTypeRefund       IssueType = "REFUND"
	IssueTypeMachineFault IssueType = "MACHINE_FAULT"
	IssueTypePayment      IssueType = "PAYMENT"
	IssueTypeDispense     IssueType = "DISPENSE_ERROR"
	IssueTypeQuality      IssueType = "QUALITY"
	IssueTypeOther        IssueType = "OTHER"
)

// IssueTypes is the closed set used for zero-filled histograms.
func IssueTypes() []IssueType {
	return []IssueType{
		IssueTypeRefund,
		IssueTypeMachineFault,
		IssueTypePayment,
		IssueTypeDispense,
		IssueTypeQuality,
		IssueTypeOther,
	}
}

// BotHandler is the assignee value for conversations the bot is handling.
const BotHandler = "BOT"

// Case is one end-to-end customer conversation thread.
type Case struct {
	CaseID           uuid.UUID  `json:"case_id"`
	CustomerRef      string     `json:"customer_ref"`
	Status           CaseStatus `json:"status"`
	AssignedTo       string     `json:"assigned_to"`
	CurrentEpisodeID *uuid.UUID `json:"current_episode_id,omitempty"`
	FirstOpenedAt    *time.Time `json:"first_opened_at,omitempty"`
	LastClosedAt     *time.Time `json:"last_closed_at,omitempty"`
	TimerDeadline    *time.Time `json:"timer_deadline,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Episode is one bounded handling span within a Case. Sequence numbers are
// 1-based and contiguous per case; only the highest-sequence episode may be
// open (EndedAt == nil).
type Episode struct {
	EpisodeID       uuid.UUID         `json:"episode_id"`
	CaseID          uuid.UUID         `json:"case_id"`
	Sequence        int               `json:"sequence"`
	Status          CaseStatus        `json:"status"`
	AssignedTo      string            `json:"assigned_to"`
	StartedAt       time.Time         `json:"started_at"`
	EndedAt         *time.Time        `json:"ended_at,omitempty"`
	DurationMinutes *int              `json:"duration_minutes,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	MachineID       string            `json:"machine_id,omitempty"`
}

func (e Episode) Open() bool { return e.EndedAt == nil }

// Message is immutable after creation.
type Message struct {
	MessageID    uuid.UUID   `json:"message_id"`
	CaseID       uuid.UUID   `json:"case_id"`
	EpisodeID    *uuid.UUID  `json:"episode_id,omitempty"`
	Sender       SenderType  `json:"sender"`
	SenderID     string      `json:"sender_id,omitempty"`
	SentAt       time.Time   `json:"sent_at"`
	Text         string      `json:"text"`
	Kind         MessageKind `json:"kind"`
	IssueEventID *uuid.UUID  `json:"issue_event_id,omitempty"`
}

// StatusEvent is the audit record of a Case status transition. ActorID is
// empty for system-driven transitions.
type StatusEvent struct {
	StatusEventID uuid.UUID  `json:"status_event_id"`
	CaseID        uuid.UUID  `json:"case_id"`
	FromStatus    CaseStatus `json:"from_status"`
	ToStatus      CaseStatus `json:"to_status"`
	ActorID       string     `json:"actor_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// IssueEvent is a classified support issue tied to a case. AgentID is empty
// when the bot resolved the issue. RefundAmount is in minor currency units.
type IssueEvent struct {
	IssueEventID  uuid.UUID  `json:"issue_event_id"`
	CaseID        *uuid.UUID `json:"case_id,omitempty"`
	AgentID       string     `json:"agent_id,omitempty"`
	MachineID     string     `json:"machine_id"`
	MachineName   string     `json:"machine_name,omitempty"`
	Type          IssueType  `json:"type"`
	RefundMode    RefundMode `json:"refund_mode,omitempty"`
	RefundAmount  int64      `json:"refund_amount"`
	OpenedAt      time.Time  `json:"opened_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
	IsActive      bool       `json:"is_active"`
	AgentCalledAt *time.Time `json:"agent_called_at,omitempty"`
	AgentLinkedAt *time.Time `json:"agent_linked_at,omitempty"`
	AgentRating   *int       `json:"agent_rating,omitempty"`
}

type Agent struct {
	AgentID     string `json:"agent_id"`
	DisplayName string `json:"display_name"`
	Active      bool   `json:"active"`
}

// DailyAgentSummary is uniquely keyed on (AgentID, BusinessDay).
type DailyAgentSummary struct {
	SummaryID           uuid.UUID `json:"summary_id"`
	AgentID             string    `json:"agent_id"`
	BusinessDay         string    `json:"business_day"`
	FirstMessageID      uuid.UUID `json:"first_message_id"`
	LastMessageID       uuid.UUID `json:"last_message_id"`
	FirstMessageAt      time.Time `json:"first_message_at"`
	LastMessageAt       time.Time `json:"last_message_at"`
	MessageCount        int       `json:"message_count"`
	ActiveMinutes       int       `json:"active_minutes"`
	FirstMessagePreview string    `json:"first_message_preview"`
	LastMessagePreview  string    `json:"last_message_preview"`
	UpdatedAt           time.Time `json:"updated_at"`
}
