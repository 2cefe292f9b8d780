package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"spark-service/internal/gate"
	"spark-service/internal/handler"
	"spark-service/pkg/middleware"
)

// SetupRoutes mounts every surface behind the interceptor. Route
// strings come from the gate package so the matcher and the mux can
// never drift apart.
func SetupRoutes(
	r chi.Router,
	auth *handler.AuthHandler,
	onboarding *handler.OnboardingHandler,
	pages *handler.PagesHandler,
	interceptor *middleware.Interceptor,
	rdb redis.UniversalClient,
) chi.Router {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(rdb, 100, time.Minute, time.Minute, "global"))
	r.Use(interceptor.Handler)

	r.Get("/healthz", auth.Health)

	r.Route("/auth", func(g chi.Router) {
		g.Use(middleware.RateLimiter(rdb, 10, 30*time.Second, 30*time.Second, "auth"))

		g.Get("/login", auth.LoginURL)
		g.Post("/login", auth.PasswordLogin)
		g.Post("/register", auth.Register)
		g.Post("/google", auth.GoogleLogin)
		g.Get("/callback", auth.Callback)
		g.Delete("/logout", auth.Logout)
	})

	r.Route("/onboarding", func(g chi.Router) {
		g.Get("/", onboarding.Entry)
		g.Get("/avatar", onboarding.AvatarScreen)
		g.Post("/avatar", onboarding.SelectAvatar)
		g.Get("/name", onboarding.NameScreen)
		g.Post("/name", onboarding.SetDisplayName)
		g.Get("/complete", onboarding.CompleteScreen)
		g.Post("/complete", onboarding.Complete)
	})

	r.Get(gate.RouteHome, pages.Home)
	r.Get(gate.RouteProfile, pages.Profile)
	r.Get(gate.RouteSpark, pages.Page("spark"))
	r.Get(gate.RouteTalk, pages.Page("talk"))
	r.Get(gate.RouteGoal, pages.Page("goal"))
	r.Get(gate.RouteCountdown, pages.Page("countdown"))

	// "/" is inside the guard; a request that gets this far is an
	// anonymous visitor, everyone else was redirected already.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, gate.RouteLogin, http.StatusFound)
	})

	return r
}
