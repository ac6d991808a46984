package router

import (
	"github.com/go-chi/chi/v5"

	socialctl "github.com/dropDatabas3/sesamo/internal/http/controllers/social"
	"github.com/dropDatabas3/sesamo/internal/http/middlewares"
)

// mountSocialRoutes attaches the social login endpoints under /v1/auth.
// Token-bearing responses carry Cache-Control: no-store.
func mountSocialRoutes(r chi.Router, c *socialctl.Controllers) {
	r.Route("/v1/auth", func(r chi.Router) {
		r.Get("/providers", c.Providers.List)

		r.Route("/social", func(r chi.Router) {
			r.Get("/{provider}/start", c.Start.Start)

			r.Group(func(r chi.Router) {
				r.Use(middlewares.WithNoStore())
				r.Get("/{provider}/callback", c.Callback.Callback)
				r.Post("/exchange", c.Exchange.Exchange)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middlewares.WithNoStore())
			r.Post("/social-login", c.Login.Login)
			r.Post("/refresh", c.Session.Refresh)
			r.Post("/logout", c.Session.Logout)
		})
	})
}
