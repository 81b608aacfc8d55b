package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/httpx"
	"github.com/dmitrijs2005/notesnap/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	apiBasePath     = "/api"
	authBasePath    = "/auth"
	profileBasePath = "/profile"
	healthPath      = "/health"

	paramProvider = "provider"

	requestTimeout = 60 * time.Second
)

// corsOrigins trims entries and drops trailing slashes and blanks.
func corsOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// NewRouter builds the API route tree with its middleware stack.
func NewRouter(h *Handler, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(h.cfg.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Set-Cookie"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.AllowContentType("application/json"))

	handle := func(fn httpx.AppHandler) http.HandlerFunc {
		return httpx.MakeHandler(h.logger, fn)
	}
	session := RequireSession([]byte(h.cfg.SecretKey))

	r.Route(apiBasePath, func(r chi.Router) {
		r.Route(authBasePath, func(r chi.Router) {
			r.Post("/register", handle(h.Register))
			r.Post("/login", handle(h.Login))
			r.Post("/refresh", handle(h.Refresh))
			r.Post("/logout", handle(h.Logout))
			r.With(session).Get("/session", handle(h.Session))

			r.Get("/providers", handle(h.Providers))
			r.Get("/oauth/{"+paramProvider+"}", handle(h.OAuthStart))
			r.Get("/oauth/{"+paramProvider+"}/callback", handle(h.OAuthCallback))

			r.Post("/forgot-password", handle(h.ForgotPassword))
			r.Post("/reset-password", handle(h.ResetPassword))
			r.Post("/reset-password/verify", handle(h.VerifyResetToken))
			r.Post("/verify-email", handle(h.VerifyEmail))
			r.Post("/resend-verification", handle(h.ResendVerification))
		})

		r.Route(profileBasePath, func(r chi.Router) {
			r.Use(session)
			r.Get("/", handle(h.GetProfile))
			r.Put("/", handle(h.UpdateProfile))
			r.Delete("/", handle(h.DeleteProfile))
			r.Post("/avatar", handle(h.AvatarUpload))
			r.Put("/avatar", handle(h.ConfirmAvatar))
		})

		r.Get(healthPath, handle(h.Health))
	})

	return r
}
