package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"changrep/internal/model"
)

// DefaultFlags is applied when the caller does not provide a flag string.
const DefaultFlags = "i"

// Matcher is a compiled channel filter. It matches a channel when the
// expression matches its name, topic or purpose.
type Matcher struct {
	re      *regexp.Regexp
	pattern string
	flags   string
}

// Compile validates expr under the given flags and returns a Matcher.
// Validation happens before any channel data is fetched, so a bad pattern
// never costs a source round trip.
//
// Flags follow the scripting convention: "i" ignores case, "m" makes ^ and $
// match at line boundaries, "s" lets . match newlines. "g" is accepted for
// familiarity and ignored, since matching here is always against the whole
// channel list. Unknown or repeated letters are rejected.
func Compile(expr, flags string) (*Matcher, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	if flags == "" {
		flags = DefaultFlags
	}
	inline, err := translateFlags(flags)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(inline + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %v", err)
	}
	return &Matcher{re: re, pattern: expr, flags: flags}, nil
}

func translateFlags(flags string) (string, error) {
	var inline []rune
	seen := map[rune]bool{}
	for _, r := range flags {
		if seen[r] {
			return "", fmt.Errorf("duplicate flag %q", string(r))
		}
		seen[r] = true
		switch r {
		case 'i', 'm', 's':
			inline = append(inline, r)
		case 'g':
			// no per-match state to reset
		default:
			return "", fmt.Errorf("unsupported flag %q", string(r))
		}
	}
	if len(inline) == 0 {
		return "", nil
	}
	return "(?" + string(inline) + ")", nil
}

// Pattern returns the expression as the caller wrote it, without the
// translated inline flags.
func (m *Matcher) Pattern() string { return m.pattern }

// Flags returns the flag string the Matcher was compiled with.
func (m *Matcher) Flags() string { return m.flags }

// Matches reports whether any of the channel's searchable fields match.
func (m *Matcher) Matches(ch model.Channel) bool {
	return m.re.MatchString(ch.Name) || m.re.MatchString(ch.Topic) || m.re.MatchString(ch.Purpose)
}

// Filter returns the matching channels in their original order. The result
// is never nil, so callers can hand it straight to a JSON encoder.
func (m *Matcher) Filter(channels []model.Channel) []model.Channel {
	return lo.Filter(channels, func(ch model.Channel, _ int) bool {
		return m.Matches(ch)
	})
}
