package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(apiHandler *APIHandler, logger *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)    // Tag requests for the log lines
	r.Use(RequestLogger(logger))   // One structured line per request
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", apiHandler.HealthHandler)
		r.Post("/sessions", apiHandler.CreateSessionHandler)

		// Catalog browsing, no session needed
		r.Get("/browse", apiHandler.BrowseHandler)
		r.Get("/movies", apiHandler.SearchMoviesHandler)
		r.Get("/movies/{movieID}", apiHandler.GetMovieHandler)

		// Session-scoped routes, token from the Authorization header or ?token=
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.SessionAuthMiddleware)

			r.Get("/session", apiHandler.GetSessionHandler)
			r.Delete("/session", apiHandler.CloseSessionHandler)
			r.Put("/session/locale", apiHandler.SetLocaleHandler)
			r.Get("/session/browse", apiHandler.SessionBrowseHandler)

			// Assistant: synchronous post or push stream
			r.Post("/session/messages", apiHandler.PostMessageHandler)
			r.Get("/session/stream", apiHandler.StreamHandler)

			// My List
			r.Get("/session/watchlist", apiHandler.GetWatchListHandler)
			r.Post("/session/watchlist/{movieID}", apiHandler.ToggleWatchListHandler)
		})
	})

	return r
}
