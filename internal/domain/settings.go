package domain

import "time"

// AssistantTemplate is an operator-authored assistant persona.
type AssistantTemplate struct {
	ID          AgentID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	AvatarURL   string  `json:"avatarUrl,omitempty"`
}

// ChatSettings is the interaction-level framing authored by the operator.
type ChatSettings struct {
	Name                    string `json:"name"`
	Description             string `json:"description"`
	ParticipantInstructions string `json:"participantInstructions"`
	ParticipantEndText      string `json:"participantEndText"`
	SendAllToAssistant      bool   `json:"sendAllToAssistant"`
}

// ExchangeTemplate is the authored blueprint for one exchange.
type ExchangeTemplate struct {
	ID             ExchangeID        `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Assistant      AssistantTemplate `json:"assistant"`
	Instructions   string            `json:"instructions,omitempty"`
	Cue            string            `json:"cue,omitempty"`
	FollowUpBudget int               `json:"followUpBudget"`
	ClosingText    string            `json:"closingText,omitempty"`
	HardLimit      bool              `json:"hardLimit"`
}

// AssistantsSettings and ExchangesSettings wrap their lists so the settings
// store can persist each document as one named unit.
type AssistantsSettings struct {
	AssistantList []AssistantTemplate `json:"assistantList"`
}

type ExchangesSettings struct {
	ExchangeList []ExchangeTemplate `json:"exchangeList"`
}

// Settings bundles the three authored documents. It is the explicit
// configuration handed to Materialize; nothing in the engine reads settings
// from ambient state.
type Settings struct {
	Assistants AssistantsSettings `json:"assistants"`
	Chat       ChatSettings       `json:"chat"`
	Exchanges  ExchangesSettings  `json:"exchanges"`
}

// SettingsName identifies one of the three settings documents.
type SettingsName string

const (
	SettingsAssistants SettingsName = "assistants"
	SettingsChat       SettingsName = "chat"
	SettingsExchanges  SettingsName = "exchanges"
)

// DefaultSettings is what Load falls back to before the operator has saved
// anything.
func DefaultSettings() Settings {
	return Settings{
		Assistants: AssistantsSettings{AssistantList: []AssistantTemplate{}},
		Chat:       ChatSettings{},
		Exchanges:  ExchangesSettings{ExchangeList: []ExchangeTemplate{}},
	}
}

const (
	defaultAssistantName   = "Interviewer"
	defaultParticipantName = "Participant"
)

// Materialize builds a fresh pending interaction from the authored settings,
// binding the participant and snapshotting every template field. All
// defaulting happens here, once, so no transition ever needs field-level
// fallbacks. Callers must materialize at most once per participant and
// rehydrate from the record store on later visits.
func Materialize(settings Settings, participant Agent, newID func() string, now time.Time) Interaction {
	participant.Role = RoleParticipant
	if participant.ID == "" {
		participant.ID = AgentID(newID())
	}
	if participant.Name == "" {
		participant.Name = defaultParticipantName
	}

	exchanges := make([]Exchange, 0, len(settings.Exchanges.ExchangeList))
	for _, tpl := range settings.Exchanges.ExchangeList {
		exchanges = append(exchanges, materializeExchange(tpl, newID))
	}

	return Interaction{
		ID:                      InteractionID(newID()),
		Name:                    settings.Chat.Name,
		Description:             settings.Chat.Description,
		ParticipantInstructions: settings.Chat.ParticipantInstructions,
		ParticipantEndText:      settings.Chat.ParticipantEndText,
		SendAllToAssistant:      settings.Chat.SendAllToAssistant,
		Participant:             participant,
		Exchanges:               exchanges,
		Current:                 0,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

func materializeExchange(tpl ExchangeTemplate, newID func() string) Exchange {
	assistant := Agent{
		ID:          tpl.Assistant.ID,
		Name:        tpl.Assistant.Name,
		Role:        RoleAssistant,
		Description: tpl.Assistant.Description,
		AvatarURL:   tpl.Assistant.AvatarURL,
	}
	if assistant.ID == "" {
		assistant.ID = AgentID(newID())
	}
	if assistant.Name == "" {
		assistant.Name = defaultAssistantName
	}

	budget := tpl.FollowUpBudget
	if budget < 0 {
		budget = 0
	}
	if budget > MaxFollowUpBudget {
		budget = MaxFollowUpBudget
	}

	id := tpl.ID
	if id == "" {
		id = ExchangeID(newID())
	}

	return Exchange{
		ID:             id,
		Name:           tpl.Name,
		Description:    tpl.Description,
		Assistant:      assistant,
		Instructions:   tpl.Instructions,
		Cue:            tpl.Cue,
		FollowUpBudget: budget,
		HardLimit:      tpl.HardLimit,
		ClosingText:    tpl.ClosingText,
		Messages:       []Message{},
	}
}
