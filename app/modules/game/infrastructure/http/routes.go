package gamehttp

import (
	"net/http"

	"github.com/Black-And-White-Club/party-bot/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Mount registers the game routes on r.
func (h *Handlers) Mount(r chi.Router, tokens jwt.Service, limiter *IPRateLimiter) {
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.RequestID)
		r.Use(CorrelationMiddleware)
		r.Use(RateLimitMiddleware(limiter))

		r.Get("/rooms/{code}", h.HandleGetRoom)
		r.Get("/games/{id}/credits", h.HandleGetCredits)
		r.Get("/games/{id}/credits.xlsx", h.HandleExportCredits)
		r.Get("/games/{id}/credits.png", h.HandleCreditsChart)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokens))

			r.Post("/rooms/{code}/initialize", h.action("InitializeRoom", h.transition(h.service.InitializeRoom)))
			r.Post("/rooms/{code}/start", h.action("StartGame", h.startGame))
			r.Post("/rooms/{code}/answers", h.action("SubmitAnswer", h.submitAnswer))
			r.Post("/rooms/{code}/votes", h.action("SubmitVote", h.submitVote))
			r.Post("/rooms/{code}/stars", h.action("SubmitAudienceStars", h.submitStars))
			r.Post("/rooms/{code}/next", h.action("NextRound", h.transition(h.service.NextRound)))
			r.Post("/rooms/{code}/credits", h.action("ShowCredits", h.transition(h.service.ShowCredits)))
			r.Post("/rooms/{code}/end", h.action("EndGame", h.transition(h.service.EndGame)))
		})
	})
}

// NewRouter returns a chi router serving only the game routes.
func NewRouter(h *Handlers, tokens jwt.Service, limiter *IPRateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	h.Mount(r, tokens, limiter)
	return r
}
