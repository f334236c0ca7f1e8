package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/roomkit/internal/setup"
	mw "github.com/itchan-dev/roomkit/shared/middleware"
	"github.com/itchan-dev/roomkit/shared/middleware/metrics"
)

// New creates the router of the preview shell.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(mw.APIHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.Public.HTTP.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	h := deps.Handler

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.With(mw.RateLimit(mw.NewKeyedRateLimiter(20, 40, 10*time.Minute), mw.GetIP)).
			Post("/render", h.Render)

		r.Get("/rooms", h.ListRooms)
		r.Route("/rooms/{rid}", func(r chi.Router) {
			r.Get("/threads", h.ListThreads)
			r.Post("/threads/sync", h.SyncThreads)
			r.Post("/threads/more", h.LoadMoreThreads)
			r.Get("/threads/{tmid}/name", h.ThreadName)

			r.Post("/session", h.OpenRoom)
			r.Get("/session", h.RoomSession)
			r.Put("/session/draft", h.SetDraft)
			r.Delete("/session", h.CloseRoom)
		})
	})

	return r
}
