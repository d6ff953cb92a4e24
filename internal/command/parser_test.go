package command

import (
	"strings"
	"testing"
)

func TestParseVerbPriority(t *testing.T) {
	// A verb prefix suppresses hashtag/mention extraction in the remainder.
	cmds := Parse("/pin Let's remember #foo")
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0].Type != TypePin {
		t.Errorf("expected pin, got %s", cmds[0].Type)
	}
	if cmds[0].ProcessedText != "Let's remember #foo" {
		t.Errorf("unexpected processed text: %q", cmds[0].ProcessedText)
	}
	if len(cmds[0].Meta.Hashtags) != 0 {
		t.Errorf("hashtags should not be extracted from verb commands")
	}
}

func TestParseVerbs(t *testing.T) {
	tests := []struct {
		input string
		typ   Type
		arg   string
	}{
		{"/focus quantum computing", TypeFocus, "quantum computing"},
		{"/thread Side quest", TypeThread, "Side quest"},
		{"/visualize model accuracy", TypeVisualize, "model accuracy"},
		{"/debate", TypeDebate, ""},
		{"/brainstorm", TypeBrainstorm, ""},
		{"/debate free will", TypeDebate, "free will"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmds := Parse(tt.input)
			if len(cmds) != 1 {
				t.Fatalf("expected 1 command, got %d", len(cmds))
			}
			if cmds[0].Type != tt.typ {
				t.Errorf("expected %s, got %s", tt.typ, cmds[0].Type)
			}
			if cmds[0].Meta.Argument != tt.arg {
				t.Errorf("expected argument %q, got %q", tt.arg, cmds[0].Meta.Argument)
			}
		})
	}
}

func TestParseCompare(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		cmds := Parse("/compare rust vs go vs zig")
		if len(cmds) != 1 || cmds[0].Type != TypeCompare {
			t.Fatalf("expected one compare command, got %+v", cmds)
		}
		items := cmds[0].Meta.CompareItems
		if len(items) != 3 || items[0] != "rust" || items[1] != "go" || items[2] != "zig" {
			t.Errorf("unexpected compare items: %v", items)
		}
	})

	t.Run("missing vs degrades to plain text", func(t *testing.T) {
		cmds := Parse("/compare rust and go")
		if len(cmds) != 1 {
			t.Fatalf("expected 1 command, got %d", len(cmds))
		}
		if cmds[0].Type != TypeNone {
			t.Errorf("malformed compare should degrade to none, got %s", cmds[0].Type)
		}
	})
}

func TestParseHashtagMentionIndependence(t *testing.T) {
	cmds := Parse("hello #ai and @bob")
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}

	if cmds[0].Type != TypeHashtag {
		t.Fatalf("expected hashtag first, got %s", cmds[0].Type)
	}
	if len(cmds[0].Meta.Hashtags) != 1 || cmds[0].Meta.Hashtags[0] != "ai" {
		t.Errorf("unexpected hashtags: %v", cmds[0].Meta.Hashtags)
	}

	if cmds[1].Type != TypeMention {
		t.Fatalf("expected mention second, got %s", cmds[1].Type)
	}
	if len(cmds[1].Meta.Mentions) != 1 || cmds[1].Meta.Mentions[0] != "bob" {
		t.Errorf("unexpected mentions: %v", cmds[1].Meta.Mentions)
	}

	// The mention command's display text is cumulative: it carries the
	// hashtag span replacement as well as its own.
	p := cmds[1].ProcessedText
	if !strings.Contains(p, `<span class="hashtag">#ai</span>`) {
		t.Errorf("mention processed text missing hashtag span: %q", p)
	}
	if !strings.Contains(p, `<span class="mention">@bob</span>`) {
		t.Errorf("mention processed text missing mention span: %q", p)
	}
}

func TestParseEscapesHTML(t *testing.T) {
	cmds := Parse("watch <b>this</b> #demo")
	if cmds[0].Type != TypeHashtag {
		t.Fatalf("expected hashtag, got %s", cmds[0].Type)
	}
	if strings.Contains(cmds[0].ProcessedText, "<b>") {
		t.Errorf("raw HTML should be escaped: %q", cmds[0].ProcessedText)
	}
}

func TestParseApostropheWithHashtag(t *testing.T) {
	// Escaped entities must not be re-scanned as hashtags: &#39; carries a
	// '#' that the hashtag pattern would otherwise match.
	cmds := Parse("it's #go")
	if len(cmds) != 1 || cmds[0].Type != TypeHashtag {
		t.Fatalf("expected single hashtag command, got %+v", cmds)
	}
	if got := cmds[0].Meta.Hashtags; len(got) != 1 || got[0] != "go" {
		t.Errorf("unexpected hashtags: %v", got)
	}
	want := `it&#39;s <span class="hashtag">#go</span>`
	if cmds[0].ProcessedText != want {
		t.Errorf("processed text = %q, want %q", cmds[0].ProcessedText, want)
	}
}

func TestParseQuoteWithMention(t *testing.T) {
	cmds := Parse(`say "hi" to @ann #intro`)
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	p := cmds[1].ProcessedText
	if strings.Contains(p, `<span class="hashtag">#34</span>`) {
		t.Errorf("escaped quote entity was scanned as a hashtag: %q", p)
	}
	if !strings.Contains(p, `&#34;hi&#34;`) {
		t.Errorf("quotes should be escaped intact: %q", p)
	}
	if !strings.Contains(p, `<span class="mention">@ann</span>`) || !strings.Contains(p, `<span class="hashtag">#intro</span>`) {
		t.Errorf("missing spans: %q", p)
	}
}

func TestParseNone(t *testing.T) {
	cmds := Parse("just a plain sentence")
	if len(cmds) != 1 || cmds[0].Type != TypeNone {
		t.Fatalf("expected single none command, got %+v", cmds)
	}
	if cmds[0].ProcessedText != "just a plain sentence" {
		t.Errorf("none command must leave text unmodified")
	}
}
