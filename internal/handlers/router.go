package handlers

import (
	"net/http"

	"image-feed/internal/middleware"
	"image-feed/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the companion server handlers
type Handlers struct {
	Viewer    *ViewerHandler
	Photo     *PhotoHandler
	Profile   *ProfileHandler
	WebSocket *WebSocketHandler
	Redirect  *RedirectHandler
}

// NewRouter builds the companion server router
func NewRouter(h Handlers, tokens *services.ViewerTokenService) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	if h.Redirect != nil {
		r.Get(services.NativeCallbackPath, h.Redirect.HandleNativeCallback)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/viewers", h.Viewer.CreateViewer)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(tokens))
			r.Get("/photos", h.Photo.GetPhotos)
			r.Post("/photos/next", h.Photo.FetchNextPage)
			r.Post("/photos/{photo_id}/like", h.Photo.LikePhoto)
			r.Delete("/photos/{photo_id}/like", h.Photo.UnlikePhoto)
			r.Get("/profile", h.Profile.GetProfile)
			r.Post("/logout", h.Profile.Logout)
		})
	})

	r.Get("/ws", h.WebSocket.HandleWebSocket)

	return r
}

// NewRedirectRouter builds the minimal router used by the loopback login flow
func NewRedirectRouter(h *RedirectHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Get(services.NativeCallbackPath, h.HandleNativeCallback)
	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
