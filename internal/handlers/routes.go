package handlers

import (
	"net/http"

	"github.com/ukydev/placenotes/internal/middleware"
	"github.com/ukydev/placenotes/internal/models"
)

// API bundles every handler the server exposes.
type API struct {
	Auth     *AuthHandler
	Places   *PlaceHandler
	Location *LocationHandler
	Photos   *PhotoHandler
	// PhotoFiles serves stored photos under /photos/. Optional.
	PhotoFiles http.Handler
}

// Routes builds the server handler. Requests pass through panic recovery,
// logging, rate limiting and authentication before reaching a route.
func (a *API) Routes(authMW *middleware.AuthMiddleware, limiter *middleware.RateLimitMiddleware) http.Handler {
	mux := http.NewServeMux()
	can := func(action string, h http.HandlerFunc) http.Handler {
		return authMW.RequirePermission(action)(h)
	}

	mux.HandleFunc("GET /health", Health)

	mux.HandleFunc("POST /api/auth/register", a.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", a.Auth.Login)
	mux.HandleFunc("GET /api/auth/profile", a.Auth.GetProfile)

	mux.Handle("GET /api/places", can(models.ActionViewPlaces, a.Places.List))
	mux.Handle("POST /api/places", can(models.ActionEditPlaces, a.Places.Create))
	mux.Handle("GET /api/places/nearby", can(models.ActionViewPlaces, a.Places.Nearby))
	mux.Handle("GET /api/places/markers", can(models.ActionViewPlaces, a.Places.Markers))
	mux.Handle("GET /api/places/{id}", can(models.ActionViewPlaces, a.Places.Get))
	mux.Handle("PUT /api/places/{id}", can(models.ActionEditPlaces, a.Places.Update))
	mux.Handle("DELETE /api/places/{id}", can(models.ActionDeletePlaces, a.Places.Delete))
	mux.Handle("GET /api/places/{id}/share", can(models.ActionViewPlaces, a.Places.Share))

	mux.Handle("GET /api/location", can(models.ActionViewPlaces, a.Location.Current))
	mux.Handle("POST /api/location", can(models.ActionReportLocation, a.Location.Report))

	if a.Photos != nil {
		mux.Handle("POST /api/photos", can(models.ActionEditPlaces, a.Photos.Upload))
	}
	if a.PhotoFiles != nil {
		mux.Handle("GET /photos/", http.StripPrefix("/photos/", a.PhotoFiles))
	}

	return middleware.Chain(mux,
		middleware.Recover,
		middleware.RequestLogger,
		limiter.RateLimit,
		authMW.Authenticate,
	)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
