package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// RendererConfig holds configuration for markdown rendering
type RendererConfig struct {
	Width    int
	Theme    string
	WordWrap bool
}

// DefaultConfig returns a default renderer configuration
func DefaultConfig() *RendererConfig {
	return &RendererConfig{
		Width:    80,
		Theme:    "dark",
		WordWrap: true,
	}
}

// TranscriptConfig returns a configuration tuned for the REPL transcript,
// where model replies are interleaved with user input.
func TranscriptConfig() *RendererConfig {
	return &RendererConfig{
		Width:    100,
		Theme:    "dark",
		WordWrap: true,
	}
}

// Renderer wraps glamour for terminal display of model replies.
type Renderer struct {
	glamourRenderer *glamour.TermRenderer
	config          *RendererConfig
}

// NewRenderer creates a new markdown renderer with the given configuration
func NewRenderer(config *RendererConfig) (*Renderer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	glamourRenderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(config.Width),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	return &Renderer{
		glamourRenderer: glamourRenderer,
		config:          config,
	}, nil
}

// NewTranscriptRenderer creates a renderer tuned for the REPL transcript.
func NewTranscriptRenderer() (*Renderer, error) {
	return NewRenderer(TranscriptConfig())
}

// Render renders markdown content to styled terminal output
func (r *Renderer) Render(markdown string) (string, error) {
	if markdown == "" {
		return "", nil
	}

	rendered, err := r.glamourRenderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return r.collapseBlankLines(rendered), nil
}

// collapseBlankLines limits consecutive blank lines so replies stay compact
// in the transcript.
func (r *Renderer) collapseBlankLines(rendered string) string {
	lines := strings.Split(rendered, "\n")
	var result []string
	blankCount := 0

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blankCount++
			if blankCount <= 1 {
				result = append(result, line)
			}
		} else {
			blankCount = 0
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}
