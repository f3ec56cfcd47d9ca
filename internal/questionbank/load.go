package questionbank

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stemsi/exstem-quiz/internal/model"
)

// ErrSourceMissing means no question bank was configured.
var ErrSourceMissing = errors.New("question bank not configured")

type document struct {
	Questions []model.Question `json:"questions" yaml:"questions"`
}

// Parse decodes a bank from JSON or YAML. Both a bare list of questions and
// an object with a "questions" list are accepted.
func Parse(data []byte) (*Bank, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parse question bank: %w", ErrSourceMissing)
	}

	var (
		questions []model.Question
		err       error
	)
	switch trimmed[0] {
	case '[', '{':
		questions, err = parseJSON(trimmed)
	default:
		questions, err = parseYAML(trimmed)
	}
	if err != nil {
		return nil, err
	}
	return New(questions)
}

func parseJSON(data []byte) ([]model.Question, error) {
	if data[0] == '[' {
		var qs []model.Question
		if err := json.Unmarshal(data, &qs); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return qs, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return doc.Questions, nil
}

func parseYAML(data []byte) ([]model.Question, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, fmt.Errorf("parse yaml: empty document")
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var qs []model.Question
		if err := root.Decode(&qs); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		return qs, nil
	}
	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc.Questions, nil
}

// EncodedProvider reads a base64-encoded bank, typically from an env var.
type EncodedProvider struct {
	Encoded string
}

// Load decodes and validates the bank on every call.
func (p EncodedProvider) Load(_ context.Context) (*Bank, error) {
	raw := strings.TrimSpace(p.Encoded)
	if raw == "" {
		return nil, ErrSourceMissing
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return Parse(data)
}

// FileProvider reads a JSON or YAML bank from disk.
type FileProvider struct {
	Path string
}

// Load reads and validates the file on every call.
func (p FileProvider) Load(_ context.Context) (*Bank, error) {
	if p.Path == "" {
		return nil, ErrSourceMissing
	}
	data, err := os.ReadFile(filepath.Clean(p.Path))
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// FromSources picks the encoded bank when set, else the file. Neither yields
// a provider that fails with ErrSourceMissing.
func FromSources(encoded, path string) Provider {
	if strings.TrimSpace(encoded) != "" {
		return EncodedProvider{Encoded: encoded}
	}
	return FileProvider{Path: path}
}

// Encode returns the base64 form accepted by EncodedProvider.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
