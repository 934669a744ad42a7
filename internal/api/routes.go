package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions tunes NewRouter.
type RouterOptions struct {
	// PINAttemptsPerMinute bounds PIN checks per client.
	PINAttemptsPerMinute int
	// APIKey, when set, is required as a bearer token on every route but
	// /health.
	APIKey string
	// TrustProxy lets X-Forwarded-For/X-Real-IP replace the peer address.
	// Without it a client could rotate those headers to dodge the PIN limiter.
	TrustProxy bool
}

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	pinLimiter := NewPINRateLimiter(opts.PINAttemptsPerMinute)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(opts.APIKey))

			r.Get("/dashboard", h.Dashboard)
			r.Get("/ws", h.Stream)

			r.Route("/quests", func(r chi.Router) {
				r.Get("/", h.ListQuests)
				r.Post("/", h.CreateQuest)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(QuestIDMiddleware)
					r.Get("/", h.GetQuest)
					r.Patch("/", h.EditQuest)
					r.Post("/toggle", h.ToggleQuest)
				})
			})

			r.Get("/achievements", h.Achievements)
			r.Post("/achievements/bonus", h.GrantBonus)
			r.With(QuestIDMiddleware).Get("/achievements/{id}", h.GetAchievement)

			r.Get("/export", h.Export)
			r.Post("/import", h.Import)
			r.Post("/reset", h.Reset)
			r.Get("/backup", h.BackupURL)
			r.Post("/backup", h.RunBackup)

			// Every route that checks a PIN is rate limited per client
			r.With(pinLimiter.Middleware).Post("/private/enter", h.EnterPrivate)
			r.Post("/private/exit", h.ExitPrivate)
			r.With(pinLimiter.Middleware).Put("/pin", h.ChangePIN)
			r.With(pinLimiter.Middleware).Delete("/pin", h.DisablePIN)
		})
	})

	return r
}
