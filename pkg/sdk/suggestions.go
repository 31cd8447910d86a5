package sdk

import (
	"context"
	"net/http"
)

// Suggestion is a ready-made pattern users can copy or run as-is.
type Suggestion struct {
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	Flags       string `json:"flags"`
	Description string `json:"description"`
}

type SuggestionsService struct {
	client *Client
}

func (s *SuggestionsService) List(ctx context.Context) ([]Suggestion, error) {
	var out struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/suggestions", nil, &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}
