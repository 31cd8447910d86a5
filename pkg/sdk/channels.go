package sdk

import (
	"context"
	"net/http"
)

// Channel is a normalized conversation record. Topic and Purpose are always
// plain strings, "" when the workspace has none set.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Topic      string `json:"topic"`
	Purpose    string `json:"purpose"`
	IsPrivate  bool   `json:"is_private"`
	IsArchived bool   `json:"is_archived"`
	NumMembers int    `json:"num_members"`
}

type MatchResult struct {
	Pattern string    `json:"pattern"`
	Flags   string    `json:"flags"`
	Scanned int       `json:"scanned"`
	Matches []Channel `json:"matches"`
}

// DisplayPayload is the server-side rendering of a MatchResult: a summary
// line plus match lines partitioned by visibility, capped at the display
// limit.
type DisplayPayload struct {
	Summary   string   `json:"summary"`
	Public    []string `json:"public"`
	Private   []string `json:"private"`
	Shown     int      `json:"shown"`
	Truncated int      `json:"truncated"`
	Total     int      `json:"total"`
}

type GrepResult struct {
	Result  MatchResult    `json:"result"`
	Display DisplayPayload `json:"display"`
}

type ChannelsService struct {
	client *Client
}

// List returns every channel visible to the server's bot credential.
func (s *ChannelsService) List(ctx context.Context) ([]Channel, error) {
	var out struct {
		Channels []Channel `json:"channels"`
		Total    int       `json:"total"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/channels", nil, &out); err != nil {
		return nil, err
	}
	return out.Channels, nil
}

// Grep filters channels by a regular expression matched against name, topic
// and purpose. Flags draw from i, m, s and g; empty means the server default.
func (s *ChannelsService) Grep(ctx context.Context, pattern, flags string) (GrepResult, error) {
	body := map[string]any{"pattern": pattern}
	if flags != "" {
		body["flags"] = flags
	}
	var out GrepResult
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/channels/grep", body, &out); err != nil {
		return GrepResult{}, err
	}
	return out, nil
}
