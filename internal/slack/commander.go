package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"changrep/internal/config"
	"changrep/internal/format"
	"changrep/internal/service"
)

// Commander executes slash invocations against the core service and renders
// replies. The signed HTTP endpoint, socket mode and the local CLI all go
// through it, so the three transports cannot drift apart.
type Commander struct {
	app *service.App
	cfg config.Config
	log *slog.Logger
}

func NewCommander(app *service.App, cfg config.Config, log *slog.Logger) *Commander {
	if log == nil {
		log = slog.Default()
	}
	return &Commander{app: app, cfg: cfg, log: log}
}

// Execute runs one invocation for the given platform user. Replies are
// always ephemeral; failures become readable text, never transport errors.
func (c *Commander) Execute(ctx context.Context, userID, text string) Message {
	cmd, err := ParseCommand(text)
	if err != nil {
		return Ephemeral(fmt.Sprintf("%v\n\n%s", err, c.helpText()))
	}

	switch cmd.Action {
	case ActionSearch:
		res, err := c.app.GroupByRegex(ctx, cmd.Pattern, cmd.Flags)
		if err != nil {
			return c.errorReply(err)
		}
		return RenderDisplay(format.Display(res, c.cfg.Display.Limit))

	case ActionSave:
		g, err := c.app.SaveGroup(ctx, userID, cmd.Name, cmd.Pattern, cmd.Flags)
		if err != nil {
			return c.errorReply(err)
		}
		return Ephemeral(fmt.Sprintf("Saved group `%s` as `%s`.", g.Name, g.Pattern))

	case ActionList:
		groups, err := c.app.ListGroups(ctx, userID)
		if err != nil {
			return c.errorReply(err)
		}
		return RenderGroups(groups)

	case ActionDelete:
		if err := c.app.DeleteGroup(ctx, userID, cmd.Name); err != nil {
			return c.errorReply(err)
		}
		return Ephemeral(fmt.Sprintf("Deleted group `%s`.", cmd.Name))

	case ActionApply:
		res, err := c.app.ApplyGroup(ctx, userID, cmd.Name)
		if err != nil {
			return c.errorReply(err)
		}
		return RenderDisplay(format.Display(res, c.cfg.Display.Limit))

	case ActionSuggest:
		return RenderSuggestions(c.app.ListSuggestions())

	default:
		return Ephemeral(c.helpText())
	}
}

func (c *Commander) errorReply(err error) Message {
	switch {
	case errors.Is(err, service.ErrInvalidPattern):
		return Ephemeral(fmt.Sprintf("That pattern did not compile: %s\nFlags are i, m, s and g.",
			detail(err, service.ErrInvalidPattern)))
	case errors.Is(err, service.ErrInvalidGroupName):
		return Ephemeral("Group names are 1-32 letters, digits, dashes or underscores.")
	case errors.Is(err, service.ErrGroupNotFound):
		return Ephemeral("No saved group by that name. See your groups with `list`.")
	case errors.Is(err, service.ErrGroupsDisabled):
		return Ephemeral("Saved groups are turned off on this server.")
	case errors.Is(err, service.ErrSourceUnavailable):
		return Ephemeral("The channel directory is unreachable right now. Please try again shortly.")
	default:
		c.log.Error("slash command failed", "error", err)
		return Ephemeral("Something went wrong. Please try again.")
	}
}

// detail strips the sentinel prefix so replies do not repeat themselves.
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

func (c *Commander) helpText() string {
	cmd := c.cfg.Slack.SlashCommand
	return strings.Join([]string{
		fmt.Sprintf("*%s* finds channels by regular expression, matching name, topic or purpose.", cmd),
		"",
		fmt.Sprintf("`%s search <pattern> [flags]`  run a pattern now", cmd),
		fmt.Sprintf("`%s save <name> <pattern> [flags]`  keep a pattern under a name", cmd),
		fmt.Sprintf("`%s list`  show your saved groups", cmd),
		fmt.Sprintf("`%s apply <name>`  run a saved group", cmd),
		fmt.Sprintf("`%s delete <name>`  remove a saved group", cmd),
		fmt.Sprintf("`%s suggest`  pattern ideas to start from", cmd),
		"",
		"Flags: `i` ignore case (default), `m` multiline anchors, `s` dot matches newline, `g` accepted and ignored.",
	}, "\n")
}
