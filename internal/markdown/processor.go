// Package markdown renders conversation messages for the terminal and the
// web surface.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/models"
)

// MessageFormat represents different output formats for chat messages
type MessageFormat string

const (
	FormatPlain    MessageFormat = "plain"
	FormatMarkdown MessageFormat = "markdown"
	FormatHTML     MessageFormat = "html"
	FormatTerminal MessageFormat = "terminal"
)

// Processor renders conversation messages into the formats clients consume.
type Processor struct {
	terminal *Renderer
}

// NewProcessor creates a message processor backed by a transcript renderer.
func NewProcessor() (*Processor, error) {
	terminal, err := NewTranscriptRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript renderer: %w", err)
	}
	return &Processor{terminal: terminal}, nil
}

// Formats renders a message's content into every supported format. The
// plain form is always the raw content; terminal rendering falls back to
// plain text when glamour fails.
func (p *Processor) Formats(msg *conversation.Message) map[string]string {
	content := p.displayText(msg)
	formats := map[string]string{
		string(FormatPlain):    content,
		string(FormatMarkdown): content,
	}

	if ContainsMarkdown(content) {
		rendered, err := p.terminal.Render(content)
		if err != nil {
			formats[string(FormatTerminal)] = content
		} else {
			formats[string(FormatTerminal)] = rendered
		}
	} else {
		formats[string(FormatTerminal)] = content
	}

	formats[string(FormatHTML)] = p.htmlFor(msg, content)
	return formats
}

// RenderTerminal renders one message for the REPL transcript, prefixed with
// the sender's display name.
func (p *Processor) RenderTerminal(msg *conversation.Message) string {
	body := p.displayText(msg)
	if ContainsMarkdown(body) {
		if rendered, err := p.terminal.Render(body); err == nil {
			body = rendered
		}
	}
	return fmt.Sprintf("%s: %s", p.senderLabel(msg), strings.TrimRight(body, "\n"))
}

// displayText flattens interaction messages into a readable exchange; text
// messages pass through unchanged.
func (p *Processor) displayText(msg *conversation.Message) string {
	if msg.Kind == conversation.KindInteraction && msg.Interaction != nil {
		in := msg.Interaction
		return fmt.Sprintf("%s\n%s: %s",
			in.Content, models.DisplayName(in.To), in.Response)
	}
	return msg.Content
}

func (p *Processor) senderLabel(msg *conversation.Message) string {
	switch msg.Sender {
	case conversation.SenderUser:
		return "you"
	case conversation.SenderSystem:
		return "system"
	default:
		return models.DisplayName(models.ModelID(msg.Sender))
	}
}

// htmlFor prefers the message's DisplayContent, which already carries
// hashtag and mention spans and is HTML-escaped at parse time.
func (p *Processor) htmlFor(msg *conversation.Message, content string) string {
	if msg.DisplayContent != "" {
		return fmt.Sprintf(`<div class="message-content">%s</div>`, msg.DisplayContent)
	}
	return basicHTML(content)
}

// basicHTML escapes plain text and converts newlines for web display.
func basicHTML(content string) string {
	content = strings.ReplaceAll(content, "&", "&amp;")
	content = strings.ReplaceAll(content, "<", "&lt;")
	content = strings.ReplaceAll(content, ">", "&gt;")
	content = strings.ReplaceAll(content, "\"", "&quot;")
	content = strings.ReplaceAll(content, "'", "&#39;")
	content = strings.ReplaceAll(content, "\n", "<br>")
	return fmt.Sprintf(`<div class="message-content">%s</div>`, content)
}

var markdownPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^#{1,6}\s+`),      // headers
	regexp.MustCompile(`\*\*.+\*\*`),          // bold
	regexp.MustCompile("`[^`]+`"),             // inline code
	regexp.MustCompile("```"),                 // code blocks
	regexp.MustCompile(`(?m)^\s*[-*+]\s+`),    // unordered lists
	regexp.MustCompile(`(?m)^\s*\d+\.\s+`),    // ordered lists
	regexp.MustCompile(`(?m)^\s*>\s+`),        // blockquotes
	regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`), // links
}

// ContainsMarkdown checks if content contains markdown syntax
func ContainsMarkdown(content string) bool {
	for _, pattern := range markdownPatterns {
		if pattern.MatchString(content) {
			return true
		}
	}
	return false
}

// CodeBlock represents an extracted code block
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

var codeBlockRe = regexp.MustCompile("```(\\w*)\\n([\\s\\S]*?)```")

// ExtractCodeBlocks extracts fenced code blocks from markdown content.
func ExtractCodeBlocks(content string) []CodeBlock {
	var blocks []CodeBlock
	for _, match := range codeBlockRe.FindAllStringSubmatch(content, -1) {
		language := match[1]
		if language == "" {
			language = "text"
		}
		blocks = append(blocks, CodeBlock{
			Language: language,
			Code:     strings.TrimSpace(match[2]),
		})
	}
	return blocks
}
