// Package command classifies raw chat input into typed commands.
//
// Verb commands (/pin, /focus, ...) are mutually exclusive and take priority
// over inline annotation: a matching verb suppresses hashtag and mention
// extraction entirely. When no verb matches, hashtags and mentions are
// extracted independently and the display text accumulates HTML span
// replacements for both.
package command

import (
	"html"
	"regexp"
	"strings"
)

// Type enumerates the recognized command kinds.
type Type string

const (
	TypePin        Type = "pin"
	TypeHashtag    Type = "hashtag"
	TypeMention    Type = "mention"
	TypeFocus      Type = "focus"
	TypeThread     Type = "thread"
	TypeCompare    Type = "compare"
	TypeVisualize  Type = "visualize"
	TypeDebate     Type = "debate"
	TypeBrainstorm Type = "brainstorm"
	TypeNone       Type = "none"
)

// Meta carries the structured payload extracted for a command. Fields are
// populated per command type; the rest stay zero.
type Meta struct {
	// Argument is the remainder after a verb prefix, trimmed.
	Argument string `json:"argument,omitempty"`
	// Hashtags holds bare tags (without '#') for hashtag commands.
	Hashtags []string `json:"hashtags,omitempty"`
	// Mentions holds bare names (without '@') for mention commands.
	Mentions []string `json:"mentions,omitempty"`
	// CompareItems holds the " vs "-separated items of a compare command.
	CompareItems []string `json:"compare_items,omitempty"`
}

// Command is the transient result of parsing one input. It is produced fresh
// per input and never stored.
type Command struct {
	Type          Type   `json:"type"`
	OriginalText  string `json:"original_text"`
	ProcessedText string `json:"processed_text"`
	Meta          Meta   `json:"meta"`
}

// verbs are checked in this exact order; the first match wins. Reordering
// changes observable behavior.
var verbs = []struct {
	prefix string
	typ    Type
}{
	{"/pin", TypePin},
	{"/focus", TypeFocus},
	{"/thread", TypeThread},
	{"/compare", TypeCompare},
	{"/visualize", TypeVisualize},
	{"/debate", TypeDebate},
	{"/brainstorm", TypeBrainstorm},
}

var (
	hashtagRe = regexp.MustCompile(`#(\w+)`)
	mentionRe = regexp.MustCompile(`@(\w+)`)
	tokenRe   = regexp.MustCompile(`[#@]\w+`)
)

// renderSpans escapes text for HTML display, wrapping the selected token
// kinds in span markup. Tokens are located on the raw text and escaping is
// applied segment-wise around them, so entities produced by escaping (&#39;
// and friends) are never re-scanned as hashtags.
func renderSpans(text string, tags, mentions bool) string {
	var b strings.Builder
	last := 0
	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		tok := text[loc[0]:loc[1]]
		isTag := tok[0] == '#'
		if (isTag && !tags) || (!isTag && !mentions) {
			continue
		}
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		if isTag {
			b.WriteString(`<span class="hashtag">` + tok + `</span>`)
		} else {
			b.WriteString(`<span class="mention">` + tok + `</span>`)
		}
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

// Parse classifies text into one or more commands.
//
// A verb command yields exactly one result. Otherwise hashtag and mention
// scans each contribute one result when they match, and an input with no
// matches at all yields a single TypeNone command with the text unmodified.
func Parse(text string) []Command {
	for _, v := range verbs {
		rest, ok := matchVerb(text, v.prefix)
		if !ok {
			continue
		}
		cmd, ok := buildVerbCommand(v.typ, text, rest)
		if !ok {
			// Malformed verb input degrades to inline scanning below.
			break
		}
		return []Command{cmd}
	}

	var cmds []Command

	if tags := hashtagRe.FindAllStringSubmatch(text, -1); len(tags) > 0 {
		names := make([]string, 0, len(tags))
		for _, m := range tags {
			names = append(names, m[1])
		}
		cmds = append(cmds, Command{
			Type:          TypeHashtag,
			OriginalText:  text,
			ProcessedText: renderSpans(text, true, false),
			Meta:          Meta{Hashtags: names},
		})
	}

	if ments := mentionRe.FindAllStringSubmatch(text, -1); len(ments) > 0 {
		names := make([]string, 0, len(ments))
		for _, m := range ments {
			names = append(names, m[1])
		}
		// Cumulative display text: hashtag spans stay marked alongside
		// the mention spans.
		cmds = append(cmds, Command{
			Type:          TypeMention,
			OriginalText:  text,
			ProcessedText: renderSpans(text, true, true),
			Meta:          Meta{Mentions: names},
		})
	}

	if len(cmds) == 0 {
		cmds = append(cmds, Command{
			Type:          TypeNone,
			OriginalText:  text,
			ProcessedText: text,
		})
	}
	return cmds
}

// matchVerb reports whether text starts with the verb prefix, returning the
// remainder. A bare verb with no argument also matches (mode toggles like
// /debate are typed without arguments).
func matchVerb(text, prefix string) (string, bool) {
	if strings.TrimSpace(text) == prefix {
		return "", true
	}
	if strings.HasPrefix(text, prefix+" ") {
		return strings.TrimSpace(text[len(prefix)+1:]), true
	}
	return "", false
}

// buildVerbCommand assembles the command for a matched verb. It returns
// ok=false when the input is malformed for that verb, in which case parsing
// falls through to plain text handling.
func buildVerbCommand(typ Type, original, rest string) (Command, bool) {
	cmd := Command{
		Type:          typ,
		OriginalText:  original,
		ProcessedText: rest,
		Meta:          Meta{Argument: rest},
	}

	if typ == TypeCompare {
		if !strings.Contains(rest, " vs ") {
			return Command{}, false
		}
		items := strings.Split(rest, " vs ")
		for i := range items {
			items[i] = strings.TrimSpace(items[i])
		}
		cmd.Meta.CompareItems = items
	}

	return cmd, true
}

// Verb reports whether t is a slash-verb command type (as opposed to inline
// annotation or none).
func Verb(t Type) bool {
	switch t {
	case TypePin, TypeFocus, TypeThread, TypeCompare, TypeVisualize, TypeDebate, TypeBrainstorm:
		return true
	}
	return false
}
