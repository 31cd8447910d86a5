package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"changrep/internal/api"
	"changrep/internal/api/handlers"
	apimw "changrep/internal/api/middleware"
	"changrep/internal/auth"
	"changrep/internal/config"
	"changrep/internal/groups"
	"changrep/internal/maintenance"
	mcpbridge "changrep/internal/mcp"
	"changrep/internal/metrics"
	"changrep/internal/service"
	"changrep/internal/slack"
	"changrep/pkg/sdk"
)

func main() {
	var (
		cfgPath string
		baseURL string
		apiKey  string
		asJSON  bool
	)

	root := &cobra.Command{
		Use:   "changrep",
		Short: "Regex channel discovery for workspace messaging platforms",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "Path to config file")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base API URL for client commands (default CHANGREP_URL or http://localhost:8080)")
	root.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for client commands")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON output")

	root.AddCommand(newServerCommand(&cfgPath))
	root.AddCommand(newMCPCommand(&cfgPath, &apiKey))
	root.AddCommand(newGrepCommand(&baseURL, &apiKey, &asJSON))
	root.AddCommand(newChannelsCommand(&baseURL, &apiKey, &asJSON))
	root.AddCommand(newGroupsCommand(&baseURL, &apiKey, &asJSON))
	root.AddCommand(newSuggestCommand(&baseURL, &apiKey, &asJSON))
	root.AddCommand(newKeygenCommand())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// core is the object graph shared by every front end: one service.App fed by
// the workspace client, with the slash commander on top.
type core struct {
	store     *groups.Store
	source    *slack.Client
	app       *service.App
	commander *slack.Commander
	handler   *handlers.Server
	limiter   *apimw.RateLimiter
}

func wireCore(cfg config.Config, logger *slog.Logger, rec metrics.Recorder) core {
	return wireCoreWithStore(cfg, logger, rec, groups.NewStore())
}

// wireCoreWithStore takes a caller-owned store, so the server can hand the
// same store to the metrics gauges before the rest of the graph exists.
func wireCoreWithStore(cfg config.Config, logger *slog.Logger, rec metrics.Recorder, store *groups.Store) core {
	source := slack.NewClient(slack.Options{
		BaseURL:         cfg.Slack.BaseURL,
		BotToken:        cfg.Slack.BotToken,
		AppToken:        cfg.Slack.AppToken,
		PageLimit:       cfg.Slack.PageLimit,
		ExcludeArchived: cfg.Slack.ExcludeArchived,
		HTTPTimeout:     config.SlackHTTPTimeout(cfg),
		Metrics:         rec,
		Logger:          logger,
	})
	app := service.New(cfg, source, store, logger)
	commander := slack.NewCommander(app, cfg, logger)
	return core{
		store:     store,
		source:    source,
		app:       app,
		commander: commander,
		handler:   handlers.New(app, cfg, commander),
		limiter:   apimw.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
	}
}

func newServerCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the changrep server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigMaybe(*cfgPath)
			if err != nil {
				return err
			}
			logger, closeLog, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			slog.SetDefault(logger)

			if cfg.Slack.BotToken == "" {
				logger.Warn("slack.bot_token is not set, channel fetches will fail")
			}

			var rec metrics.Recorder
			var metricsHandler http.Handler
			store := groups.NewStore()
			if cfg.Metrics.Enabled {
				prom := metrics.NewProm(store.Counts)
				rec = prom
				metricsHandler = prom.Handler()
			}

			c := wireCoreWithStore(cfg, logger, rec, store)

			apiRouter := api.NewRouter(c.handler, c.app, api.Options{
				Logger:         logger,
				Limiter:        c.limiter,
				Metrics:        rec,
				MetricsHandler: metricsHandler,
			})

			handler := http.Handler(apiRouter)
			if cfg.MCP.Enabled && cfg.MCP.HTTP.Enabled {
				bridge := mcpbridge.New(mcpbridge.Options{App: c.app, Config: cfg, Router: apiRouter})
				mcpHandler := bridge.HTTPHandler()
				mcpPath := cfg.MCP.HTTP.Path
				handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if r.URL.Path == mcpPath || strings.HasPrefix(r.URL.Path, mcpPath+"/") {
						mcpHandler.ServeHTTP(w, r)
						return
					}
					apiRouter.ServeHTTP(w, r)
				})
			}

			scheduler := maintenance.NewScheduler(logger)
			err = scheduler.Register("ratelimit_sweep", cfg.Maintenance.Schedule, func(context.Context) {
				if n := c.limiter.EvictIdle(config.IdleEviction(cfg)); n > 0 {
					logger.Debug("evicted idle rate limiter entries", "count", n)
				}
			})
			if err != nil {
				return err
			}
			err = scheduler.Register("group_counts", cfg.Maintenance.Schedule, func(context.Context) {
				users, saved := store.Counts()
				logger.Debug("group store size", "users", users, "groups", saved)
			})
			if err != nil {
				return err
			}
			scheduler.Start()
			defer scheduler.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			httpServer := &http.Server{
				Addr:         config.Addr(cfg),
				Handler:      handler,
				ReadTimeout:  config.ReadTimeout(cfg),
				WriteTimeout: config.WriteTimeout(cfg),
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("changrep server listening", "addr", config.Addr(cfg))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})
			if cfg.Slack.SocketMode.Enabled {
				if cfg.Slack.AppToken == "" {
					return errors.New("slack.socket_mode requires slack.app_token")
				}
				runner := slack.NewSocketRunner(c.source, c.commander, logger)
				g.Go(func() error {
					if err := runner.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}
			return g.Wait()
		},
	}
}

func newMCPCommand(cfgPath, apiKey *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve MCP tools on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigMaybe(*cfgPath)
			if err != nil {
				return err
			}
			if !cfg.MCP.Enabled {
				return errors.New("mcp is disabled in config")
			}
			logger, closeLog, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()
			slog.SetDefault(logger)

			c := wireCore(cfg, logger, nil)
			router := api.NewRouter(c.handler, c.app, api.Options{
				Logger:  logger,
				Limiter: c.limiter,
			})
			bridge := mcpbridge.New(mcpbridge.Options{
				App:           c.app,
				Config:        cfg,
				Router:        router,
				DefaultAPIKey: *apiKey,
			})
			return bridge.ServeStdio()
		},
	}
}

func newGrepCommand(baseURL, apiKey *string, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "grep <pattern> [regex-flags]",
		Short: "Filter channels by a regular expression",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := sdk.Connect(cmd.Context(), sdk.ConnectOptions{URL: *baseURL, APIKey: *apiKey})
			if err != nil {
				return err
			}
			flags := ""
			if len(args) == 2 {
				flags = args[1]
			}
			res, err := client.Channels.Grep(cmd.Context(), args[0], flags)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(res)
			}
			printDisplay(res.Display)
			return nil
		},
	}
}

func newChannelsCommand(baseURL, apiKey *string, asJSON *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "channels", Short: "Channel commands"}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every channel visible to the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := sdk.Connect(cmd.Context(), sdk.ConnectOptions{URL: *baseURL, APIKey: *apiKey})
			if err != nil {
				return err
			}
			channels, err := client.Channels.List(cmd.Context())
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(map[string]any{"channels": channels, "total": len(channels)})
			}
			return printChannelsTable(channels)
		},
	})
	return cmd
}

func newGroupsCommand(baseURL, apiKey *string, asJSON *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "groups", Short: "Saved group commands"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your saved groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := sdk.Connect(cmd.Context(), sdk.ConnectOptions{URL: *baseURL, APIKey: *apiKey})
			if err != nil {
				return err
			}
			items, err := client.Groups.List(cmd.Context())
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(map[string]any{"groups": items})
			}
			return printGroupsTable(items)
		},
	})

	var saveFlags string
	save := &cobra.Command{
		Use:   "save <name> <pattern>",
		Short: "Save a pattern under a group name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := sdk.Connect(cmd.Context(), sdk.ConnectOptions{URL: *baseURL, APIKey: *apiKey})
			if err != nil {
				return err
			}
			group, err := client.Groups.Save(cmd.Context(), args[0], args[1], saveFlags)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(map[string]any{"group": group})
			}
			fmt.Printf("Saved group %q: %s (flags %s)\n", group.Name, group.Pattern, group.Flags)
			return nil
		},
	}
	save.Flags().StringVar(&saveFlags, "flags", "", "Regex flags drawn from i, m, s, g")
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := sdk.Connect(cmd.Context(), sdk.ConnectOptions{URL: *baseURL, APIKey: *apiKey})
			if err != nil {
				return err
			}
			if err := client.Groups.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if *asJSON {
				return printJSON(map[string]any{"deleted": true})
			}
			fmt.Printf("Deleted group %q\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply <name>",
		Short: "Run a saved group against the current channel list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := sdk.Connect(cmd.Context(), sdk.ConnectOptions{URL: *baseURL, APIKey: *apiKey})
			if err != nil {
				return err
			}
			res, err := client.Groups.Apply(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(res)
			}
			printDisplay(res.Display)
			return nil
		},
	})

	return cmd
}

func newSuggestCommand(baseURL, apiKey *string, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "List ready-made example patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := sdk.Connect(cmd.Context(), sdk.ConnectOptions{URL: *baseURL, APIKey: *apiKey})
			if err != nil {
				return err
			}
			items, err := client.Suggestions.List(cmd.Context())
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(map[string]any{"suggestions": items})
			}
			return printSuggestionsTable(items)
		},
	}
}

func newKeygenCommand() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an API key and its config entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, hash, err := auth.GenerateAPIKey()
			if err != nil {
				return err
			}
			fmt.Printf("API key (shown once): %s\n", raw)
			fmt.Println()
			fmt.Println("Add to config.yaml:")
			fmt.Println("auth:")
			fmt.Println("  enabled: true")
			fmt.Println("  keys:")
			fmt.Printf("    - id: %s\n", id)
			fmt.Printf("      key: %s\n", hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "default", "Key id recorded in config")
	return cmd
}

func buildLogger(cfg config.Config) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}

	var console slog.Handler
	if cfg.Logging.Format == "json" {
		console = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		console = slog.NewTextHandler(os.Stderr, opts)
	}

	closeFn := func() {}
	handler := console
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closeFn = func() { _ = f.Close() }
		handler = slogmulti.Fanout(console, slog.NewJSONHandler(f, opts))
	}
	return slog.New(handler), closeFn, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadConfigMaybe(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); err == nil {
		return config.Load(path)
	} else if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	} else {
		return config.Config{}, err
	}
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printDisplay(d sdk.DisplayPayload) {
	fmt.Println(d.Summary)
	if len(d.Public) > 0 {
		fmt.Println()
		fmt.Println("Public:")
		for _, line := range d.Public {
			fmt.Println("  " + line)
		}
	}
	if len(d.Private) > 0 {
		fmt.Println()
		fmt.Println("Private:")
		for _, line := range d.Private {
			fmt.Println("  " + line)
		}
	}
	if d.Truncated > 0 {
		fmt.Println()
		fmt.Printf("Showing %d of %d matches. %d more not listed.\n", d.Shown, d.Total, d.Truncated)
	}
}

func printChannelsTable(items []sdk.Channel) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVISIBILITY\tARCHIVED\tMEMBERS\tTOPIC")
	for _, c := range items {
		vis := "public"
		if c.IsPrivate {
			vis = "private"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%s\n", c.ID, c.Name, vis, c.IsArchived, c.NumMembers, c.Topic)
	}
	return w.Flush()
}

func printGroupsTable(items []sdk.Group) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATTERN\tFLAGS\tCREATED_AT")
	for _, g := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Name, g.Pattern, g.Flags, g.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func printSuggestionsTable(items []sdk.Suggestion) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATTERN\tFLAGS\tDESCRIPTION")
	for _, s := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Pattern, s.Flags, s.Description)
	}
	return w.Flush()
}
