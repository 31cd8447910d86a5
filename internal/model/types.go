package model

import "time"

// Channel is a normalized conversation record from the workspace source.
// Topic and Purpose are always plain strings; records that arrive without
// them are normalized to "".
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Topic      string `json:"topic"`
	Purpose    string `json:"purpose"`
	IsPrivate  bool   `json:"is_private"`
	IsArchived bool   `json:"is_archived"`
	NumMembers int    `json:"num_members"`
}

// SavedGroup is a named regex pattern owned by a single user.
type SavedGroup struct {
	Name      string    `json:"name"`
	Pattern   string    `json:"pattern"`
	Flags     string    `json:"flags"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchResult is the outcome of running a pattern over every visible channel.
type MatchResult struct {
	Pattern string    `json:"pattern"`
	Flags   string    `json:"flags"`
	Scanned int       `json:"scanned"`
	Matches []Channel `json:"matches"`
}

// Suggestion is a ready-made pattern users can copy or run as-is.
type Suggestion struct {
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	Flags       string `json:"flags"`
	Description string `json:"description"`
}

// DisplayPayload is a transport-neutral rendering of a MatchResult. Front
// ends (slash command, REST, MCP) format it for their own medium without
// re-deriving counts or ordering.
type DisplayPayload struct {
	Summary   string   `json:"summary"`
	Public    []string `json:"public"`
	Private   []string `json:"private"`
	Shown     int      `json:"shown"`
	Truncated int      `json:"truncated"`
	Total     int      `json:"total"`
}
