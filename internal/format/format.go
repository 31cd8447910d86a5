package format

import (
	"fmt"

	"github.com/samber/lo"

	"changrep/internal/model"
)

// DefaultDisplayLimit caps how many channels a rendered result lists.
const DefaultDisplayLimit = 20

// maxTopicRunes keeps a single display line readable in narrow clients.
const maxTopicRunes = 60

// Display turns a MatchResult into a transport-neutral DisplayPayload. At
// most limit channels are listed; the rest are reported through Truncated.
// limit <= 0 falls back to DefaultDisplayLimit.
//
// Truncation happens before the public/private split, so the listed set is
// always the first N matches in source order.
func Display(res model.MatchResult, limit int) model.DisplayPayload {
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	total := len(res.Matches)
	shown := res.Matches
	if total > limit {
		shown = res.Matches[:limit]
	}

	public, private := lo.FilterReject(shown, func(c model.Channel, _ int) bool {
		return !c.IsPrivate
	})

	return model.DisplayPayload{
		Summary:   summarize(res, total),
		Public:    lo.Map(public, line),
		Private:   lo.Map(private, line),
		Shown:     len(shown),
		Truncated: total - len(shown),
		Total:     total,
	}
}

func summarize(res model.MatchResult, total int) string {
	if total == 0 {
		return fmt.Sprintf("No channels matched %q (checked %d)", res.Pattern, res.Scanned)
	}
	noun := "channels"
	if total == 1 {
		noun = "channel"
	}
	return fmt.Sprintf("%d %s matched %q (checked %d)", total, noun, res.Pattern, res.Scanned)
}

func line(c model.Channel, _ int) string {
	s := "#" + c.Name
	if c.IsArchived {
		s += " (archived)"
	}
	if c.Topic != "" {
		s += " - " + truncate(c.Topic, maxTopicRunes)
	}
	return s
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
