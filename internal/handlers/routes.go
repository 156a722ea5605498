package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/outbreak-atlas/atlas-server/internal/middleware"
)

// API groups the handlers mounted by Routes.
type API struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Reports *ReportHandler
	Flu     *FluHandler
	Covid   *CovidHandler
	Health  *HealthHandler
	Tokens  middleware.TokenParser
}

// Routes mounts the API on r.
func (a *API) Routes(r chi.Router) {
	r.Use(middleware.Authenticate(a.Tokens))

	r.Get("/health", a.Health.Check)
	r.Get("/health/ready", a.Health.Ready)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.Auth.Register)
		r.Post("/login", a.Auth.Login)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.With(middleware.RequireAdmin).Get("/all", a.Users.List)
		r.Get("/me", a.Users.Me)

		r.Route("/username/{username}", func(r chi.Router) {
			r.Use(middleware.RequireSelfOrAdminByUsername("username"))
			r.Get("/", a.Users.GetByUsername)
			r.Patch("/", a.Users.UpdateByUsername)
			r.Delete("/", a.Users.DeleteByUsername)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Use(middleware.RequireSelfOrAdmin("id"))
			r.Get("/", a.Users.Get)
			r.Patch("/", a.Users.Update)
			r.Delete("/", a.Users.Delete)
		})
	})

	r.Route("/reports", func(r chi.Router) {
		// Public
		r.Get("/trending", a.Reports.Trending)
		r.Get("/filter", a.Reports.Filter)
		r.Get("/{id}", a.Reports.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/", a.Reports.Create)
			r.Patch("/{id}", a.Reports.Update)
			r.Delete("/{id}", a.Reports.Delete)
			r.With(middleware.RequireAdmin).Get("/all", a.Reports.All)

			r.Route("/user/{userId}", func(r chi.Router) {
				r.Use(middleware.RequireSelfOrAdmin("userId"))
				r.Get("/", a.Reports.ByUser)
				r.Get("/aggregated", a.Reports.UserAggregated)
			})
		})
	})

	r.Route("/flu", func(r chi.Router) {
		r.Get("/data/{state}/{range}", a.Flu.Data)
		r.Get("/trends/{state}", a.Flu.Trends)
	})

	r.Get("/covid/{state}/{range}", a.Covid.Data)
}
