package domain

import "time"

// SessionStatus is the runtime state of a session. Active is initial,
// completed is terminal.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Sender identifies who authored a conversation message.
type Sender string

const (
	SenderAI   Sender = "ai"
	SenderUser Sender = "user"
)

// Message is a single entry in a session's conversation log.
// Entries are append-only and immutable once written.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	NodeID    string    `json:"nodeId"`
	Timestamp time.Time `json:"timestamp"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
}

// Progress tracks where a session is in its flow and how it got there.
type Progress struct {
	// CurrentNode is empty before the session starts and frozen once it
	// completes.
	CurrentNode    string   `json:"currentNode,omitempty"`
	CompletedNodes []string `json:"completedNodes"`

	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
	CorrectAnswers int `json:"correctAnswers"`
	Attempts       int `json:"attempts"`

	CompletionPercentage float64 `json:"completionPercentage"`
}

// MarkCompleted records a node as visited, once.
func (p *Progress) MarkCompleted(nodeID string) {
	for _, id := range p.CompletedNodes {
		if id == nodeID {
			return
		}
	}
	p.CompletedNodes = append(p.CompletedNodes, nodeID)
}

// Session is the ephemeral runtime state of one user's walk through a
// flow. It references the flow but never mutates it.
type Session struct {
	ID        string `json:"id"`
	TrainerID string `json:"trainerId"`
	FlowID    string `json:"flowId"`
	UserID    string `json:"userId"`

	Progress     Progress      `json:"progress"`
	Conversation []Message     `json:"conversation"`
	Status       SessionStatus `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Append adds a message to the conversation log.
func (s *Session) Append(msg Message) {
	s.Conversation = append(s.Conversation, msg)
	s.UpdatedAt = msg.Timestamp
}

// Clone returns an independent copy of the session.
func (s Session) Clone() Session {
	out := s
	out.Conversation = append([]Message(nil), s.Conversation...)
	out.Progress.CompletedNodes = append([]string(nil), s.Progress.CompletedNodes...)
	return out
}
