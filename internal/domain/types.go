package domain

type InteractionID string
type ExchangeID string
type MessageID string
type AgentID string
type ParticipantID string
type RecordID string

type AgentRole string

const (
	RoleParticipant AgentRole = "participant"
	RoleAssistant   AgentRole = "assistant"
)

// PromptRole tags one entry of a completion request.
type PromptRole string

const (
	PromptRoleSystem    PromptRole = "system"
	PromptRoleUser      PromptRole = "user"
	PromptRoleAssistant PromptRole = "assistant"
)

// PromptEntry is one role-tagged entry of a completion request.
type PromptEntry struct {
	Role    PromptRole `json:"role"`
	Content string     `json:"content"`
}

const (
	// MaxMessageContentLength bounds the size of a single participant message.
	MaxMessageContentLength = 5000

	// MaxFollowUpBudget bounds the follow-up budget of an exchange template.
	MaxFollowUpBudget = 400
)
