package domain

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// NodeData is the closed set of type-dependent node payloads. Exactly one
// variant applies per node type, so consumers can type-switch instead of
// probing optional fields.
type NodeData interface {
	// Lines returns the ordered output text shown when the node is visited.
	Lines() []string

	nodeData()
}

// ContentData is the payload of start, text, feedback and end nodes.
type ContentData struct {
	Messages []string
}

// MediaData is the payload of image, audio and video nodes.
type MediaData struct {
	Messages []string
	MediaURL string
}

// QuestionData is the payload of question nodes. Keywords drive edge
// matching against free-text replies; ErrorMessage is shown by editors
// when a reply matches no edge.
type QuestionData struct {
	Messages     []string
	Keywords     []string
	Choices      []string
	ErrorMessage string
}

// DecisionData is the payload of decision nodes.
type DecisionData struct {
	Messages []string
	Choices  []string
}

// AssessmentData is the payload of assessment nodes. PassingScore is a
// percentage (0-100); TimeLimit is in minutes, zero meaning unlimited.
type AssessmentData struct {
	Messages     []string
	PassingScore int
	TimeLimit    int
}

func (d ContentData) Lines() []string    { return d.Messages }
func (d MediaData) Lines() []string      { return d.Messages }
func (d QuestionData) Lines() []string   { return d.Messages }
func (d DecisionData) Lines() []string   { return d.Messages }
func (d AssessmentData) Lines() []string { return d.Messages }

func (ContentData) nodeData()    {}
func (MediaData) nodeData()      {}
func (QuestionData) nodeData()   {}
func (DecisionData) nodeData()   {}
func (AssessmentData) nodeData() {}

// dataPayload is the flat wire shape of the `data` object. Editors send
// an open bag of optional fields; we decode it once and reshape it into
// the variant for the node type.
type dataPayload struct {
	Messages     []string `json:"messages,omitempty" mapstructure:"messages"`
	TextDraft    string   `json:"textDraft,omitempty" mapstructure:"textDraft"`
	Keywords     []string `json:"keywords,omitempty" mapstructure:"keywords"`
	Choices      []string `json:"choices,omitempty" mapstructure:"choices"`
	MediaURL     string   `json:"mediaUrl,omitempty" mapstructure:"mediaUrl"`
	ErrorMessage string   `json:"errorMessage,omitempty" mapstructure:"errorMessage"`
	PassingScore int      `json:"passingScore,omitempty" mapstructure:"passingScore"`
	TimeLimit    int      `json:"timeLimit,omitempty" mapstructure:"timeLimit"`
}

// DecodeNodeData reshapes a raw `data` bag into the typed variant for
// nodeType. Unknown node types fall back to ContentData so a draft with
// an experimental type still round-trips its messages.
func DecodeNodeData(nodeType string, raw map[string]any) (NodeData, error) {
	var p dataPayload
	if raw != nil {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &p,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(raw); err != nil {
			return nil, fmt.Errorf("node data: %w", err)
		}
	}

	messages := normalizeMessages(p.Messages, p.TextDraft)

	switch nodeType {
	case NodeTypeImage, NodeTypeAudio, NodeTypeVideo:
		return MediaData{Messages: messages, MediaURL: p.MediaURL}, nil
	case NodeTypeQuestion:
		return QuestionData{
			Messages:     messages,
			Keywords:     p.Keywords,
			Choices:      p.Choices,
			ErrorMessage: p.ErrorMessage,
		}, nil
	case NodeTypeDecision:
		return DecisionData{Messages: messages, Choices: p.Choices}, nil
	case NodeTypeAssessment:
		return AssessmentData{
			Messages:     messages,
			PassingScore: p.PassingScore,
			TimeLimit:    p.TimeLimit,
		}, nil
	default:
		return ContentData{Messages: messages}, nil
	}
}

func payloadFromData(data NodeData) dataPayload {
	switch d := data.(type) {
	case ContentData:
		return dataPayload{Messages: d.Messages}
	case MediaData:
		return dataPayload{Messages: d.Messages, MediaURL: d.MediaURL}
	case QuestionData:
		return dataPayload{
			Messages:     d.Messages,
			Keywords:     d.Keywords,
			Choices:      d.Choices,
			ErrorMessage: d.ErrorMessage,
		}
	case DecisionData:
		return dataPayload{Messages: d.Messages, Choices: d.Choices}
	case AssessmentData:
		return dataPayload{
			Messages:     d.Messages,
			PassingScore: d.PassingScore,
			TimeLimit:    d.TimeLimit,
		}
	}
	return dataPayload{}
}

// normalizeMessages folds a legacy single-string draft into the message
// sequence. The sequence is authoritative when present.
func normalizeMessages(messages []string, textDraft string) []string {
	if len(messages) > 0 {
		return messages
	}
	if textDraft == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(textDraft, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
