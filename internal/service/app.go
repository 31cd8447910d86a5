package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"changrep/internal/auth"
	"changrep/internal/config"
	"changrep/internal/groups"
	"changrep/internal/model"
	"changrep/internal/pattern"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPattern    = errors.New("invalid_pattern")
	ErrInvalidGroupName  = errors.New("invalid_group_name")
	ErrGroupNotFound     = errors.New("group_not_found")
	ErrGroupsDisabled    = errors.New("groups_disabled")
	ErrSourceUnavailable = errors.New("source_unavailable")
)

// ChannelSource lists every channel a credential can see. The slack package
// provides the production implementation; tests substitute stubs.
type ChannelSource interface {
	ListChannels(ctx context.Context) ([]model.Channel, error)
}

// Group names stay short and url-safe so they ride in slash text and REST
// paths untouched.
var groupNameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,31}$`)

// App holds the core operations. Every front end (slash command, REST, MCP,
// CLI) delegates here, so behavior cannot drift between transports.
type App struct {
	Config config.Config
	Source ChannelSource
	Groups *groups.Store
	Log    *slog.Logger

	keys map[string]string // key hash -> key id
}

func New(cfg config.Config, source ChannelSource, store *groups.Store, log *slog.Logger) *App {
	if store == nil {
		store = groups.NewStore()
	}
	if log == nil {
		log = slog.Default()
	}
	keys := make(map[string]string, len(cfg.Auth.Keys))
	for _, k := range cfg.Auth.Keys {
		keys[k.Key] = k.ID
	}
	return &App{
		Config: cfg,
		Source: source,
		Groups: store,
		Log:    log,
		keys:   keys,
	}
}

// Authenticate resolves a raw API key to its configured key id. With auth
// disabled every caller becomes the local principal.
func (a *App) Authenticate(ctx context.Context, rawKey string) (string, error) {
	if !a.Config.Auth.Enabled {
		return "local", nil
	}
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return "", ErrUnauthorized
	}
	for hash, id := range a.keys {
		if auth.VerifyKey(rawKey, hash) {
			return id, nil
		}
	}
	return "", ErrUnauthorized
}

// ListChannels returns every channel visible to the bot credential, in
// source order.
func (a *App) ListChannels(ctx context.Context) ([]model.Channel, error) {
	chs, err := a.Source.ListChannels(ctx)
	if err != nil {
		a.Log.Error("channel fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return chs, nil
}

// GroupByRegex compiles expr under flags and returns the channels whose
// name, topic or purpose match. The pattern is validated before the source
// is contacted, so a bad pattern never costs a fetch.
func (a *App) GroupByRegex(ctx context.Context, expr, flags string) (model.MatchResult, error) {
	m, err := pattern.Compile(expr, flags)
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	chs, err := a.ListChannels(ctx)
	if err != nil {
		return model.MatchResult{}, err
	}
	res := model.MatchResult{
		Pattern: m.Pattern(),
		Flags:   m.Flags(),
		Scanned: len(chs),
		Matches: m.Filter(chs),
	}
	a.Log.Info("pattern run",
		"pattern", res.Pattern, "flags", res.Flags,
		"scanned", res.Scanned, "matched", len(res.Matches))
	return res, nil
}

// SaveGroup validates and stores a named pattern for the user. Saving over
// an existing name replaces its pattern in place.
func (a *App) SaveGroup(ctx context.Context, userID, name, expr, flags string) (model.SavedGroup, error) {
	if err := a.groupsEnabled(); err != nil {
		return model.SavedGroup{}, err
	}
	if !groupNameRE.MatchString(name) {
		return model.SavedGroup{}, fmt.Errorf("%w: %q", ErrInvalidGroupName, name)
	}
	m, err := pattern.Compile(expr, flags)
	if err != nil {
		return model.SavedGroup{}, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	g := a.Groups.Save(userID, name, m.Pattern(), m.Flags())
	a.Log.Info("group saved", "user", userID, "group", name)
	return g, nil
}

// ListGroups returns the user's saved groups in first-save order.
func (a *App) ListGroups(ctx context.Context, userID string) ([]model.SavedGroup, error) {
	if err := a.groupsEnabled(); err != nil {
		return nil, err
	}
	return a.Groups.List(userID), nil
}

// DeleteGroup removes one saved group.
func (a *App) DeleteGroup(ctx context.Context, userID, name string) error {
	if err := a.groupsEnabled(); err != nil {
		return err
	}
	if !a.Groups.Delete(userID, name) {
		return fmt.Errorf("%w: %q", ErrGroupNotFound, name)
	}
	a.Log.Info("group deleted", "user", userID, "group", name)
	return nil
}

// ApplyGroup runs a saved group's pattern as if the user had typed it.
func (a *App) ApplyGroup(ctx context.Context, userID, name string) (model.MatchResult, error) {
	if err := a.groupsEnabled(); err != nil {
		return model.MatchResult{}, err
	}
	g, ok := a.Groups.Get(userID, name)
	if !ok {
		return model.MatchResult{}, fmt.Errorf("%w: %q", ErrGroupNotFound, name)
	}
	return a.GroupByRegex(ctx, g.Pattern, g.Flags)
}

// GroupCounts exposes store totals for gauges and the maintenance sweep.
func (a *App) GroupCounts() (users, total int) {
	return a.Groups.Counts()
}

func (a *App) groupsEnabled() error {
	if !a.Config.Groups.Enabled {
		return ErrGroupsDisabled
	}
	return nil
}
