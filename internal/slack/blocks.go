package slack

import (
	"fmt"
	"strings"

	"changrep/internal/model"
)

// TextObject is a Block Kit text element.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Block models the subset of Block Kit this bot emits: section and context
// blocks.
type Block struct {
	Type     string       `json:"type"`
	Text     *TextObject  `json:"text,omitempty"`
	Elements []TextObject `json:"elements,omitempty"`
}

// Message is an in-band slash reply. ResponseType "ephemeral" keeps it
// visible to the invoking user only.
type Message struct {
	ResponseType string  `json:"response_type"`
	Text         string  `json:"text"`
	Blocks       []Block `json:"blocks,omitempty"`
}

func mrkdwn(text string) *TextObject {
	return &TextObject{Type: "mrkdwn", Text: text}
}

func section(text string) Block {
	return Block{Type: "section", Text: mrkdwn(text)}
}

func contextNote(text string) Block {
	return Block{Type: "context", Elements: []TextObject{{Type: "mrkdwn", Text: text}}}
}

// Ephemeral wraps plain text in an ephemeral reply.
func Ephemeral(text string) Message {
	return Message{ResponseType: "ephemeral", Text: text}
}

// RenderDisplay renders a match payload as Block Kit. Text carries the bare
// summary for clients that do not draw blocks.
func RenderDisplay(p model.DisplayPayload) Message {
	msg := Message{ResponseType: "ephemeral", Text: p.Summary}
	msg.Blocks = append(msg.Blocks, section("*"+p.Summary+"*"))
	if len(p.Public) > 0 {
		msg.Blocks = append(msg.Blocks, section("*Public*\n"+bullets(p.Public)))
	}
	if len(p.Private) > 0 {
		msg.Blocks = append(msg.Blocks, section("*Private*\n"+bullets(p.Private)))
	}
	if p.Truncated > 0 {
		msg.Blocks = append(msg.Blocks, contextNote(
			fmt.Sprintf("Showing %d of %d matches. %d more not listed.", p.Shown, p.Total, p.Truncated)))
	}
	return msg
}

// RenderGroups renders a user's saved groups.
func RenderGroups(groups []model.SavedGroup) Message {
	if len(groups) == 0 {
		return Ephemeral("No saved groups yet. Save one with: save <name> <pattern> [flags]")
	}
	var b strings.Builder
	b.WriteString("*Saved groups*")
	for _, g := range groups {
		fmt.Fprintf(&b, "\n• `%s`  `%s`", g.Name, g.Pattern)
		if g.Flags != "" {
			fmt.Fprintf(&b, " (flags: %s)", g.Flags)
		}
	}
	msg := Message{ResponseType: "ephemeral", Text: fmt.Sprintf("%d saved groups", len(groups))}
	msg.Blocks = append(msg.Blocks, section(b.String()))
	return msg
}

// RenderSuggestions renders the static pattern catalog.
func RenderSuggestions(items []model.Suggestion) Message {
	var b strings.Builder
	b.WriteString("*Pattern suggestions*")
	for _, s := range items {
		fmt.Fprintf(&b, "\n• *%s*  `%s`\n  %s", s.Name, s.Pattern, s.Description)
	}
	msg := Message{ResponseType: "ephemeral", Text: "Pattern suggestions"}
	msg.Blocks = append(msg.Blocks, section(b.String()))
	return msg
}

func bullets(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(l)
	}
	return b.String()
}
