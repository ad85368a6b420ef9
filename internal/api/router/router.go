package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aira-ai/control-tower/internal/http/handlers"
	httpmiddleware "github.com/aira-ai/control-tower/internal/http/middleware"
	"github.com/aira-ai/control-tower/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	SystemHandler      *handlers.SystemHandler
	WebcallHandler     *handlers.WebcallHandler
	CallsHandler       *handlers.CallsHandler
	FSMHandler         *handlers.FSMHandler
	PromptsHandler     *handlers.PromptsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/", cfg.SystemHandler.Root)
		api.Get("/health", cfg.SystemHandler.Health)

		api.Route("/webcall", func(r chi.Router) {
			r.Post("/start", cfg.WebcallHandler.Start)
			r.Post("/input", cfg.WebcallHandler.Input)
			r.Post("/end", cfg.WebcallHandler.End)
		})

		api.Get("/calls/live", cfg.CallsHandler.Live)
		api.Get("/calls", cfg.CallsHandler.History)
		api.Get("/calls/{callID}", cfg.CallsHandler.Detail)
		api.Get("/calls/{callID}/qualification", cfg.CallsHandler.Qualification)

		api.Get("/fsm/states", cfg.FSMHandler.ListStates)
		api.Get("/fsm/states/{state}", cfg.FSMHandler.GetState)

		api.Route("/prompts", func(r chi.Router) {
			r.Get("/", cfg.PromptsHandler.List)
			r.Post("/", cfg.PromptsHandler.Create)
			r.Get("/{promptID}", cfg.PromptsHandler.Get)
			r.Put("/{promptID}", cfg.PromptsHandler.Update)
			r.Post("/{promptID}/mark-weak", cfg.PromptsHandler.MarkWeak)
			r.Post("/{promptID}/publish", cfg.PromptsHandler.Publish)
		})

		api.Get("/audio/{callID}/{turnIndex}", cfg.SystemHandler.Audio)
		api.Get("/stats", cfg.CallsHandler.Stats)
	})

	return r
}
