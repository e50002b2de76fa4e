// Package flowfile reads and writes flow documents from disk. JSON is
// the canonical format; YAML is accepted for hand-authored files.
package flowfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rehearse-dev/rehearse/pkg/domain"
)

// Document is the on-disk shape of an authored flow. Lifecycle fields
// (status, version, timestamps) are assigned by the server, not the file.
type Document struct {
	Name      string          `json:"name" yaml:"name"`
	TrainerID string          `json:"trainerId,omitempty" yaml:"trainerId,omitempty"`
	Settings  domain.Settings `json:"settings" yaml:"settings"`
	Nodes     []domain.Node   `json:"nodes" yaml:"nodes"`
	Edges     []domain.Edge   `json:"edges" yaml:"edges"`
}

// Load reads a flow document, picking the codec by file extension.
func Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read flow file: %w", err)
	}

	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = decodeYAML(raw)
	default:
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return Document{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// decodeYAML routes YAML input through the JSON codec so the node data
// union decodes through the same path as API payloads.
func decodeYAML(raw []byte) (Document, error) {
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return Document{}, err
	}
	jsonBytes, err := json.Marshal(normalizeKeys(tree))
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// normalizeKeys converts yaml's map[any]any trees into map[string]any so
// they can be marshaled as JSON.
func normalizeKeys(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeKeys(val)
		}
		return m
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeKeys(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeKeys(val)
		}
		return t
	default:
		return v
	}
}

// Save writes a flow document as indented JSON.
func Save(path string, doc Document) error {
	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode flow file: %w", err)
	}
	if err := os.WriteFile(path, append(jsonBytes, '\n'), 0o644); err != nil {
		return fmt.Errorf("write flow file: %w", err)
	}
	return nil
}

// FromFlow extracts the authorable parts of a stored flow.
func FromFlow(f domain.Flow) Document {
	return Document{
		Name:      f.Name,
		TrainerID: f.TrainerID,
		Settings:  f.Settings,
		Nodes:     f.Nodes,
		Edges:     f.Edges,
	}
}
