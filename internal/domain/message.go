package domain

import "time"

// Agent is an identity attached to messages and exchanges, either the
// participant being interviewed or an assistant persona. Two agents are the
// same agent iff their IDs match. Agents are copied by value wherever they
// appear, so renaming an assistant template later never rewrites history.
type Agent struct {
	ID          AgentID   `json:"id"`
	Name        string    `json:"name"`
	Role        AgentRole `json:"role"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
}

// Message is one turn in an exchange thread. Created once, never mutated;
// ordering is append order, not SentAt order.
type Message struct {
	ID      MessageID `json:"id"`
	Content string    `json:"content"`
	Sender  Agent     `json:"sender"`
	SentAt  time.Time `json:"sentAt,omitempty"`
}
