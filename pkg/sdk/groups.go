package sdk

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Group is a named pattern saved by the calling user.
type Group struct {
	Name      string    `json:"name"`
	Pattern   string    `json:"pattern"`
	Flags     string    `json:"flags"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupsService struct {
	client *Client
}

func (s *GroupsService) List(ctx context.Context) ([]Group, error) {
	var out struct {
		Groups []Group `json:"groups"`
	}
	if err := s.client.do(ctx, http.MethodGet, "/api/v1/groups", nil, &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

// Save stores pattern under name, replacing any previous pattern saved
// under it.
func (s *GroupsService) Save(ctx context.Context, name, pattern, flags string) (Group, error) {
	body := map[string]any{"pattern": pattern}
	if flags != "" {
		body["flags"] = flags
	}
	var out struct {
		Group Group `json:"group"`
	}
	if err := s.client.do(ctx, http.MethodPut, "/api/v1/groups/"+url.PathEscape(name), body, &out); err != nil {
		return Group{}, err
	}
	return out.Group, nil
}

func (s *GroupsService) Delete(ctx context.Context, name string) error {
	return s.client.do(ctx, http.MethodDelete, "/api/v1/groups/"+url.PathEscape(name), nil, nil)
}

// Apply runs a saved group's pattern against the current channel list.
func (s *GroupsService) Apply(ctx context.Context, name string) (GrepResult, error) {
	var out GrepResult
	if err := s.client.do(ctx, http.MethodPost, "/api/v1/groups/"+url.PathEscape(name)+"/apply", nil, &out); err != nil {
		return GrepResult{}, err
	}
	return out, nil
}
