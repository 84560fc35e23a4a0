package cmd

import (
	"net/http"

	"imagefeed/internal/handlers"
	"imagefeed/internal/middleware"
	"imagefeed/internal/repository"
	"imagefeed/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type routes struct {
	tokens  repository.TokenStore
	oauth   *handlers.OAuthHandler
	session *handlers.SessionHandler
	photo   *handlers.PhotoHandler
	profile *handlers.ProfileHandler
	ws      *handlers.WebSocketHandler
}

func newRouter(h routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get(services.NativeRedirectPath, h.oauth.Callback)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/login", h.oauth.Login)
		r.Get("/session", h.session.GetSession)
		r.Post("/session/retry", h.session.Retry)
		r.Post("/session/dismiss", h.session.Dismiss)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireToken(h.tokens))
			r.Get("/profile", h.profile.GetProfile)
			r.Post("/logout", h.profile.Logout)
			r.Get("/photos", h.photo.GetPhotos)
			r.Post("/photos/next", h.photo.NextPage)
			r.Post("/photos/displayed", h.photo.Displayed)
			r.Get("/photos/{photo_id}", h.photo.GetPhoto)
			r.Post("/photos/{photo_id}/like", h.photo.Like)
			r.Delete("/photos/{photo_id}/like", h.photo.Unlike)
		})
	})

	r.Get("/ws", h.ws.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS for UIs served from loopback
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && handlers.LocalOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
