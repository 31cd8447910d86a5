package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	sloghttp "github.com/samber/slog-http"

	"changrep/internal/api/handlers"
	apimw "changrep/internal/api/middleware"
	"changrep/internal/metrics"
	"changrep/internal/service"
)

// Options carries the router's optional collaborators. A nil field disables
// the matching surface.
type Options struct {
	Logger         *slog.Logger
	Limiter        *apimw.RateLimiter
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
}

func NewRouter(server *handlers.Server, app *service.App, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Limiter == nil {
		opts.Limiter = apimw.NewRateLimiter(server.Config.RateLimit.PerMinute, server.Config.RateLimit.Burst)
	}

	r := chi.NewRouter()
	r.Use(sloghttp.Recovery)
	r.Use(sloghttp.New(opts.Logger))
	r.Use(apimw.RequestID)
	if opts.Metrics != nil {
		r.Use(apimw.Metrics(opts.Metrics))
	}

	r.Get("/healthz", server.Health)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		// Authenticated by its signature, so outside RequireAuth.
		api.Post("/slack/commands", server.SlashCommand)

		api.Group(func(protected chi.Router) {
			protected.Use(apimw.RequireAuth(app))
			protected.Use(opts.Limiter.Middleware)

			protected.Get("/channels", server.ListChannels)
			protected.Post("/channels/grep", server.GrepChannels)
			protected.Get("/suggestions", server.ListSuggestions)

			// With groups disabled the routes are simply absent.
			if server.Config.Groups.Enabled {
				protected.Get("/groups", server.ListGroups)
				protected.Put("/groups/{name}", server.SaveGroup)
				protected.Delete("/groups/{name}", server.DeleteGroup)
				protected.Post("/groups/{name}/apply", server.ApplyGroup)
			}
		})
	})

	return r
}
