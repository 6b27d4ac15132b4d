package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/justinas/alice"
)

// routes() is a method that returns a http.Handler that contains all the routes for the application
func (app *application) routes() http.Handler {
	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.cors.trustedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	// Use alice to make a global middleware chain.
	globalMiddleware := alice.New(app.metrics, app.recoverPanic, app.rateLimit).Then

	// Apply the global middleware to the router
	router.Use(globalMiddleware)

	// Make our categorized routes
	v1Router := chi.NewRouter()

	v1Router.Get("/healthcheck", app.healthcheckHandler)
	v1Router.Mount("/goals", app.goalRoutes())

	// Mount the v1Router to the main base router
	router.Mount("/v1", v1Router)
	return router
}

// goalRoutes() is a method that returns a chi.Router that contains all the routes for the goals
func (app *application) goalRoutes() chi.Router {
	goalRoutes := chi.NewRouter()
	goalRoutes.Post("/{userID}", app.createNewGoalHandler)
	goalRoutes.Get("/{userID}", app.getAllGoalsForUserHandler)
	goalRoutes.Get("/{userID}/progression", app.getGoalProgressionForUserHandler)
	goalRoutes.Get("/{userID}/{goalID}", app.getGoalByIDHandler)
	goalRoutes.Patch("/{userID}/{goalID}", app.updateGoalHandler)
	goalRoutes.Delete("/{userID}/{goalID}", app.deleteGoalByIDHandler)
	// /milestones : wholesale replacement of a goal's milestone list
	goalRoutes.Put("/{userID}/{goalID}/milestones", app.replaceGoalMilestonesHandler)
	return goalRoutes
}
