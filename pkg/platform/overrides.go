package platform

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SelectorOverride replaces shipped selectors for one platform.
// Empty fields keep the shipped value.
type SelectorOverride struct {
	LoginURL           string   `yaml:"login_url"`
	CommentInput       string   `yaml:"comment_input"`
	SubmitButton       string   `yaml:"submit_button"`
	ContentURLPatterns []string `yaml:"content_url_patterns"`
}

// LoadOverrides applies a YAML selectors file on top of the shipped
// adapter defaults. Unknown platform keys are rejected so a typo in
// the file fails loudly instead of silently doing nothing.
func LoadOverrides(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("platform: read selectors file: %w", err)
	}

	var overrides map[string]SelectorOverride
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("platform: parse selectors file: %w", err)
	}

	for tag, override := range overrides {
		p, err := Parse(tag)
		if err != nil {
			return fmt.Errorf("platform: selectors file: %w", err)
		}

		adapter := defaults[p]
		if override.LoginURL != "" {
			adapter.LoginURL = override.LoginURL
		}
		if override.CommentInput != "" {
			adapter.CommentInput = override.CommentInput
		}
		if override.SubmitButton != "" {
			adapter.SubmitButton = override.SubmitButton
		}
		if len(override.ContentURLPatterns) > 0 {
			adapter.ContentURLPatterns = override.ContentURLPatterns
		}
		defaults[p] = adapter
	}

	return nil
}
