package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers wired into the router
type Handlers struct {
	Carousel  *CarouselHandler
	Slides    *SlideHandler
	Showcases *ShowcaseHandler
	WebSocket *WebSocketHandler
	Static    *StaticHandler
}

// SetupRoutes builds the router with CORS and request logging
func SetupRoutes(h Handlers, allowedOrigins []string, logger *zap.Logger) http.Handler {
	router := mux.NewRouter()
	router.Use(requestLogger(logger))

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Carousel routes
	api.HandleFunc("/carousel", h.Carousel.ListStates).Methods(http.MethodGet)
	api.HandleFunc("/carousel/{showcase}", h.Carousel.GetState).Methods(http.MethodGet)
	api.HandleFunc("/carousel/{showcase}/next", h.Carousel.Next).Methods(http.MethodPost)
	api.HandleFunc("/carousel/{showcase}/previous", h.Carousel.Previous).Methods(http.MethodPost)
	api.HandleFunc("/carousel/{showcase}/goto", h.Carousel.GoTo).Methods(http.MethodPost)
	api.HandleFunc("/carousel/{showcase}/pause", h.Carousel.Pause).Methods(http.MethodPost)
	api.HandleFunc("/carousel/{showcase}/resume", h.Carousel.Resume).Methods(http.MethodPost)
	api.HandleFunc("/carousel/{showcase}/autoplay", h.Carousel.SetAutoplay).Methods(http.MethodPost)

	// Slide catalog routes
	api.HandleFunc("/slides", h.Slides.CreateSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides", h.Slides.ListSlides).Methods(http.MethodGet)
	api.HandleFunc("/slides/showcase/{showcase}", h.Slides.ListShowcaseSlides).Methods(http.MethodGet)
	api.HandleFunc("/slides/{id}", h.Slides.GetSlide).Methods(http.MethodGet)
	api.HandleFunc("/slides/{id}", h.Slides.UpdateSlide).Methods(http.MethodPut)
	api.HandleFunc("/slides/{id}", h.Slides.DeleteSlide).Methods(http.MethodDelete)

	// Showcase routes
	api.HandleFunc("/showcase/{showcase}/settings", h.Showcases.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/showcase/{showcase}/settings", h.Showcases.UpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/showcase/{showcase}/slide-image", h.Showcases.SaveSlideImage).Methods(http.MethodPost)

	// WebSocket route
	router.HandleFunc("/ws", h.WebSocket.HandleWebSocket)

	// Static routes
	router.PathPrefix(mediaPrefix).HandlerFunc(h.Static.ServeMedia)
	router.PathPrefix("/").HandlerFunc(h.Static.ServeSite)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})(router)
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// hijacked websocket connections keep the raw writer
			if r.URL.Path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
