package domain

import "encoding/json"

// NodeType constants define the conversational behavior of a node.
const (
	// NodeTypeStart marks the single entry point of a flow.
	NodeTypeStart = "start"
	// NodeTypeText displays scripted content and continues (soft step).
	NodeTypeText = "text"
	// NodeTypeImage, NodeTypeAudio and NodeTypeVideo attach media to a step.
	NodeTypeImage = "image"
	NodeTypeAudio = "audio"
	NodeTypeVideo = "video"
	// NodeTypeQuestion halts and waits for free-text input (hard step).
	NodeTypeQuestion = "question"
	// NodeTypeDecision halts and waits for a labeled choice.
	NodeTypeDecision = "decision"
	// NodeTypeFeedback displays evaluative content.
	NodeTypeFeedback = "feedback"
	// NodeTypeAssessment carries pass/fail scoring configuration.
	NodeTypeAssessment = "assessment"
	// NodeTypeEnd marks a terminal node.
	NodeTypeEnd = "end"
)

// Node represents one conversational step in the flow graph.
// Geometry (X/Y/W/H) is editor presentation only and has no runtime effect.
type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`

	// Data holds the type-dependent payload. The concrete variant is
	// determined by Type (see data.go).
	Data NodeData `json:"-"`
}

// FirstMessage resolves the outbound text for this node: the first
// scripted message line, falling back to the node label, then a literal
// placeholder. Legacy single-string drafts are already normalized into
// the message sequence at decode time.
func (n Node) FirstMessage() string {
	if n.Data != nil {
		if lines := n.Data.Lines(); len(lines) > 0 && lines[0] != "" {
			return lines[0]
		}
	}
	if n.Label != "" {
		return n.Label
	}
	return "..."
}

// MediaURL returns the attached media URL, if the node carries one.
func (n Node) MediaURL() string {
	if d, ok := n.Data.(MediaData); ok {
		return d.MediaURL
	}
	return ""
}

// Keywords returns the matching keywords of a question node.
func (n Node) Keywords() []string {
	if d, ok := n.Data.(QuestionData); ok {
		return d.Keywords
	}
	return nil
}

// Choices returns the labeled options of a decision or question node.
func (n Node) Choices() []string {
	switch d := n.Data.(type) {
	case DecisionData:
		return d.Choices
	case QuestionData:
		return d.Choices
	}
	return nil
}

// MarshalJSON flattens the typed data variant into the wire `data` object.
func (n Node) MarshalJSON() ([]byte, error) {
	type alias Node
	return json.Marshal(struct {
		alias
		Data dataPayload `json:"data"`
	}{
		alias: alias(n),
		Data:  payloadFromData(n.Data),
	})
}

// UnmarshalJSON decodes the wire `data` object into the variant matching
// the node type.
func (n *Node) UnmarshalJSON(b []byte) error {
	type alias Node
	aux := struct {
		*alias
		Data map[string]any `json:"data"`
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	data, err := DecodeNodeData(n.Type, aux.Data)
	if err != nil {
		return err
	}
	n.Data = data
	return nil
}
