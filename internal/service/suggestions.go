package service

import "changrep/internal/model"

// suggestionCatalog is the static set of starter patterns. Small enough to
// read in a single ephemeral reply.
var suggestionCatalog = []model.Suggestion{
	{
		Name:        "engineering",
		Pattern:     "^(eng|dev|platform)-",
		Flags:       "i",
		Description: "Engineering channels by common prefixes.",
	},
	{
		Name:        "projects",
		Pattern:     "^proj(ect)?-",
		Flags:       "i",
		Description: "Project channels, short or long prefix.",
	},
	{
		Name:        "teams",
		Pattern:     "^team-|^(sales|marketing|support|finance)$",
		Flags:       "i",
		Description: "Team home channels.",
	},
	{
		Name:        "scratch",
		Pattern:     "(temp|test|tmp|scratch)",
		Flags:       "i",
		Description: "Throwaway and experiment channels, anywhere in the name or topic.",
	},
	{
		Name:        "time-boxed",
		Pattern:     "(20[0-9]{2}|q[1-4])",
		Flags:       "i",
		Description: "Channels tied to a year or a quarter.",
	},
}

// ListSuggestions returns the catalog as a copy, so callers can sort or
// trim without affecting anyone else.
func (a *App) ListSuggestions() []model.Suggestion {
	out := make([]model.Suggestion, len(suggestionCatalog))
	copy(out, suggestionCatalog)
	return out
}
