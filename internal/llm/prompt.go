package llm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-compliance-backend/internal/config"
)

// Defaults applied when neither the prompt file nor the environment set a value.
const (
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 500
)

// DefaultSystem is the persona used when no prompt file is present.
const DefaultSystem = `You are the assistant on the website of a building-safety compliance service for residential blocks in England.
Help visitors understand what the service does: keeping fire risk assessments, fire door inspections, lift and equipment checks and other statutory records up to date, reminding duty holders before anything lapses, and producing a clear audit trail for regulators and insurers.
Explain in plain language. Keep answers short and practical. You are not a lawyer or fire engineer: for advice about a specific building, suggest the visitor starts the onboarding form or uses the contact form so the team can follow up.
Never ask for passwords, payment details or personal data beyond an email address.`

// Prompt is the chat persona and model parameters loaded from YAML:
//
//	system: |
//	  You are ...
//	model: gpt-4o-mini
//	max_tokens: 500
//	temperature: 0.4
type Prompt struct {
	System      string  `yaml:"system"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// LoadPrompt reads the prompt file at path. A missing file is not an error
// and yields the built-in persona; a malformed one is.
func LoadPrompt(path string) (Prompt, error) {
	p := Prompt{}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Prompt{}, err
	default:
		if err := yaml.Unmarshal(b, &p); err != nil {
			return Prompt{}, fmt.Errorf("parse prompt %s: %w", path, err)
		}
	}
	if strings.TrimSpace(p.System) == "" {
		p.System = DefaultSystem
	}
	p.System = strings.TrimSpace(p.System)
	if p.Temperature < 0 || p.Temperature > 2 {
		return Prompt{}, fmt.Errorf("prompt %s: temperature must be in [0,2]", path)
	}
	return p, nil
}

// Resolve merges the prompt file with the chat config. Values set explicitly
// in the environment win, then the file, then the built-in defaults.
func (p Prompt) Resolve(cfg config.ChatConfig) Prompt {
	out := p
	switch {
	case cfg.ModelFromEnv:
		out.Model = cfg.Model
	case out.Model == "":
		out.Model = cfg.Model
	}
	if out.Model == "" {
		out.Model = DefaultModel
	}
	switch {
	case cfg.MaxTokensFromEnv:
		out.MaxTokens = cfg.MaxTokens
	case out.MaxTokens <= 0:
		out.MaxTokens = cfg.MaxTokens
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if out.System == "" {
		out.System = DefaultSystem
	}
	return out
}
