package api

import (
	"net/http"
	"time"

	"github.com/erazemk/omara/internal/assets"
	"github.com/erazemk/omara/internal/classify"
	"github.com/erazemk/omara/internal/model"
	"github.com/erazemk/omara/internal/session"
)

// Deps are the services the API is built on.
type Deps struct {
	Sessions   *session.Manager
	Assets     *assets.Manager
	Classifier *classify.Client
	JWTSecret  string
	TokenTTL   time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Sessions: d.Sessions, JWTSecret: d.JWTSecret, TokenTTL: d.TokenTTL}
	itemsHandler := &ItemsHandler{Assets: d.Assets}
	outfitHandler := &OutfitHandler{}
	classifyHandler := &ClassifyHandler{Classifier: d.Classifier}

	authMW := AuthMiddleware(d.JWTSecret, d.Sessions)

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"sessions":   d.Sessions.Len(),
			"classify":   d.Classifier.Enabled(),
			"categories": model.Categories,
			"materials":  model.Materials,
		})
	})

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	mux.Handle("GET /api/outfit", authMW(http.HandlerFunc(outfitHandler.Outfit)))
	mux.Handle("GET /api/weather", authMW(http.HandlerFunc(outfitHandler.Weather)))
	mux.Handle("GET /api/similar", authMW(http.HandlerFunc(outfitHandler.Similar)))

	mux.Handle("POST /api/classify", authMW(http.HandlerFunc(classifyHandler.Classify)))

	return Recovery(RequestID(LoggingMiddleware(mux)))
}
