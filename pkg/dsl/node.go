package dsl

import "github.com/rehearse-dev/rehearse/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	id       string
	nodeType string
	label    string
	messages []string
	keywords []string
	choices  []string
	mediaURL string
	errMsg   string
	passing  int
	limit    int

	builder *Builder
}

// Start marks the node as the flow's entry point.
func (n *NodeBuilder) Start() *NodeBuilder {
	n.nodeType = domain.NodeTypeStart
	return n
}

// End marks the node as a terminal node.
func (n *NodeBuilder) End() *NodeBuilder {
	n.nodeType = domain.NodeTypeEnd
	return n
}

// Feedback marks the node as evaluative content.
func (n *NodeBuilder) Feedback() *NodeBuilder {
	n.nodeType = domain.NodeTypeFeedback
	return n
}

// Question marks the node as a free-text question with the matching
// keywords (hard step).
func (n *NodeBuilder) Question(keywords ...string) *NodeBuilder {
	n.nodeType = domain.NodeTypeQuestion
	n.keywords = append(n.keywords, keywords...)
	return n
}

// Decision marks the node as a labeled-choice decision (hard step).
func (n *NodeBuilder) Decision(choices ...string) *NodeBuilder {
	n.nodeType = domain.NodeTypeDecision
	n.choices = append(n.choices, choices...)
	return n
}

// Assessment marks the node as scored, with a passing percentage and a
// time limit in minutes (zero for unlimited).
func (n *NodeBuilder) Assessment(passingScore, timeLimit int) *NodeBuilder {
	n.nodeType = domain.NodeTypeAssessment
	n.passing = passingScore
	n.limit = timeLimit
	return n
}

// Media marks the node as a media step of the given type (image, audio
// or video) pointing at url.
func (n *NodeBuilder) Media(nodeType, url string) *NodeBuilder {
	n.nodeType = nodeType
	n.mediaURL = url
	return n
}

// Say appends scripted output lines, sent in order when the node is
// visited.
func (n *NodeBuilder) Say(lines ...string) *NodeBuilder {
	n.messages = append(n.messages, lines...)
	return n
}

// Label sets the editor-facing label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.label = label
	return n
}

// Retry sets the message shown when a reply matches no edge.
func (n *NodeBuilder) Retry(message string) *NodeBuilder {
	n.errMsg = message
	return n
}

// Go adds an unconditional transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.builder.edge(n.id, target, domain.Condition{Type: domain.ConditionAuto})
	return n
}

// Match adds a transition taken when the user reply contains any of the
// keywords.
func (n *NodeBuilder) Match(target string, keywords ...string) *NodeBuilder {
	n.builder.edge(n.id, target, domain.Condition{
		Type:     domain.ConditionQuestion,
		Keywords: keywords,
	})
	return n
}

// Choice adds a transition taken when the user selects the labeled
// branch.
func (n *NodeBuilder) Choice(target, key string) *NodeBuilder {
	n.builder.edge(n.id, target, domain.Condition{
		Type:      domain.ConditionDecision,
		ChoiceKey: key,
	})
	return n
}

// build assembles the domain node with the data variant for its type.
func (n *NodeBuilder) build() domain.Node {
	node := domain.Node{
		ID:    n.id,
		Type:  n.nodeType,
		Label: n.label,
	}
	switch n.nodeType {
	case domain.NodeTypeImage, domain.NodeTypeAudio, domain.NodeTypeVideo:
		node.Data = domain.MediaData{Messages: n.messages, MediaURL: n.mediaURL}
	case domain.NodeTypeQuestion:
		node.Data = domain.QuestionData{
			Messages:     n.messages,
			Keywords:     n.keywords,
			Choices:      n.choices,
			ErrorMessage: n.errMsg,
		}
	case domain.NodeTypeDecision:
		node.Data = domain.DecisionData{Messages: n.messages, Choices: n.choices}
	case domain.NodeTypeAssessment:
		node.Data = domain.AssessmentData{
			Messages:     n.messages,
			PassingScore: n.passing,
			TimeLimit:    n.limit,
		}
	default:
		node.Data = domain.ContentData{Messages: n.messages}
	}
	return node
}
