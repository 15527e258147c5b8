// Package transcript turns a conversation snapshot into the ordered,
// role-tagged entry list sent to the completion service.
package transcript

import (
	"github.com/interviewlab/interview-api/internal/domain"
)

// Framing is the system-role text prepended to every completion request, in
// the order it is emitted. None of it is ever shown to the participant.
type Framing struct {
	InteractionDescription string
	ExchangeInstructions   string
	AssistantDescription   string
}

func (f Framing) texts() []string {
	return []string{
		f.InteractionDescription,
		f.ExchangeInstructions,
		f.AssistantDescription,
	}
}

// Assemble builds the completion request for one turn: system entries for
// each non-blank framing text, the history in append order tagged by sender
// role, and the new participant message last as a user entry.
//
// Assemble is pure: it never mutates its arguments and identical inputs
// yield identical output.
func Assemble(framing Framing, history []domain.Message, newMessage domain.Message) []domain.PromptEntry {
	entries := make([]domain.PromptEntry, 0, len(history)+4)

	for _, text := range framing.texts() {
		if text == "" {
			continue
		}
		entries = append(entries, domain.PromptEntry{
			Role:    domain.PromptRoleSystem,
			Content: text,
		})
	}

	for _, msg := range history {
		entries = append(entries, domain.PromptEntry{
			Role:    roleFor(msg.Sender),
			Content: msg.Content,
		})
	}

	entries = append(entries, domain.PromptEntry{
		Role:    domain.PromptRoleUser,
		Content: newMessage.Content,
	})

	return entries
}

// roleFor tags an entry by the sender's role at entry-construction time, not
// by the message's position in the thread.
func roleFor(sender domain.Agent) domain.PromptRole {
	if sender.Role == domain.RoleAssistant {
		return domain.PromptRoleAssistant
	}
	return domain.PromptRoleUser
}
