// Package runtime walks a flow graph at conversation time.
//
// The engine is a pure state machine over (flow, session): it mutates the
// session's progress and conversation log and never touches the flow
// document. Persistence and per-session locking live with the caller.
package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rehearse-dev/rehearse/internal/logging"
	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// CompletedMessage is the terminal line emitted when traversal reaches a
// dead end.
const CompletedMessage = "Session completed. Thank you for participating!"

// Engine advances sessions through a flow, one turn per inbound message.
type Engine struct {
	newID  domain.IDFunc
	now    domain.ClockFunc
	logger *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithIDFunc overrides the message/session id generator.
func WithIDFunc(f domain.IDFunc) Option {
	return func(e *Engine) { e.newID = f }
}

// WithClock overrides the time source.
func WithClock(c domain.ClockFunc) Option {
	return func(e *Engine) { e.now = c }
}

// WithLogger configures a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates a session runtime engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Turn is the outcome of one conversation step.
type Turn struct {
	AIMessage domain.Message
	Status    domain.SessionStatus
}

// Start creates a session positioned at the flow's start node and
// synthesizes the opening outbound message.
func (e *Engine) Start(trainerID, userID string, flow domain.Flow) (domain.Session, error) {
	start, ok := flow.StartNode()
	if !ok {
		return domain.Session{}, fmt.Errorf("flow %s has no nodes", flow.ID)
	}

	now := e.now()
	session := domain.Session{
		ID:        e.newID(),
		TrainerID: trainerID,
		FlowID:    flow.ID,
		UserID:    userID,
		Status:    domain.SessionActive,
		Progress:  domain.Progress{CurrentNode: start.ID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	session.Append(e.aiMessage(start))

	e.logger.Debug("session started", "session_id", session.ID, "flow_id", flow.ID, "node", start.ID)
	return session, nil
}

// Advance runs one turn: it records the user message, selects the next
// edge from the current node, moves the session there and synthesizes the
// next outbound message. A node without outgoing edges, or an edge whose
// target no longer exists, completes the session instead of failing; a
// live user should not see a crash mid-conversation.
func (e *Engine) Advance(session *domain.Session, flow domain.Flow, userText string) (Turn, error) {
	current, ok := e.currentNode(session, flow)
	if !ok {
		return Turn{}, fmt.Errorf("flow %s has no nodes", flow.ID)
	}

	if userText != "" {
		session.Append(domain.Message{
			ID:        e.newID(),
			Sender:    domain.SenderUser,
			Content:   userText,
			NodeID:    current.ID,
			Timestamp: e.now(),
		})
	}

	candidates := flow.EdgesFrom(current.ID)
	if len(candidates) == 0 {
		return e.complete(session, current.ID), nil
	}

	edge, matched := selectEdge(candidates, userText)

	target, ok := flow.Node(edge.To)
	if !ok {
		// Dangling reference: the edge outlived its target node. Treat as
		// a dead end rather than raising.
		e.logger.Warn("edge target missing, completing session",
			"session_id", session.ID, "edge_id", edge.ID, "target", edge.To)
		return e.complete(session, current.ID), nil
	}

	e.recordStep(session, flow, current, target, matched)

	msg := e.aiMessage(target)
	session.Append(msg)

	if target.Type == domain.NodeTypeEnd {
		session.Status = domain.SessionCompleted
	}
	return Turn{AIMessage: msg, Status: session.Status}, nil
}

// Complete transitions a session to its terminal state, independent of
// edge traversal (inactivity timeouts, manual end).
func (e *Engine) Complete(session *domain.Session) {
	if session.Status == domain.SessionCompleted {
		return
	}
	session.Status = domain.SessionCompleted
	session.UpdatedAt = e.now()
}

// currentNode resolves the node the session is standing on, falling back
// to the flow's start node for sessions that never started.
func (e *Engine) currentNode(session *domain.Session, flow domain.Flow) (domain.Node, bool) {
	if session.Progress.CurrentNode != "" {
		if n, ok := flow.Node(session.Progress.CurrentNode); ok {
			return n, true
		}
	}
	return flow.StartNode()
}

// selectEdge picks the next edge, first-match-wins in stored order:
// the first edge whose condition matches the user input, else the first
// candidate as the uniform fallback.
func selectEdge(candidates []domain.Edge, userText string) (domain.Edge, bool) {
	if userText != "" {
		for _, e := range candidates {
			if e.Condition.Matches(userText) {
				return e, true
			}
		}
	}
	return candidates[0], false
}

// recordStep updates progress counters for the transition current->target.
func (e *Engine) recordStep(session *domain.Session, flow domain.Flow, current, target domain.Node, matched bool) {
	p := &session.Progress
	p.MarkCompleted(current.ID)
	p.CurrentNode = target.ID
	p.Attempts++

	if current.Type == domain.NodeTypeQuestion || current.Type == domain.NodeTypeDecision {
		p.TotalQuestions++
		if matched {
			p.CorrectAnswers++
		}
		if p.TotalQuestions > 0 {
			p.Score = p.CorrectAnswers * 100 / p.TotalQuestions
		}
	}

	if target.Type == domain.NodeTypeEnd {
		p.MarkCompleted(target.ID)
	}
	if total := len(flow.Nodes); total > 0 {
		p.CompletionPercentage = float64(len(p.CompletedNodes)) * 100 / float64(total)
	}
	session.UpdatedAt = e.now()
}

// complete ends the session at a dead end and emits the terminal message.
// CurrentNode is left untouched so repeated calls are stable.
func (e *Engine) complete(session *domain.Session, nodeID string) Turn {
	session.Status = domain.SessionCompleted
	msg := domain.Message{
		ID:        e.newID(),
		Sender:    domain.SenderAI,
		Content:   CompletedMessage,
		NodeID:    nodeID,
		Timestamp: e.now(),
	}
	session.Append(msg)
	return Turn{AIMessage: msg, Status: session.Status}
}

// aiMessage synthesizes the outbound message for a visited node.
func (e *Engine) aiMessage(node domain.Node) domain.Message {
	return domain.Message{
		ID:        e.newID(),
		Sender:    domain.SenderAI,
		Content:   node.FirstMessage(),
		NodeID:    node.ID,
		Timestamp: e.now(),
		MediaURL:  node.MediaURL(),
	}
}
