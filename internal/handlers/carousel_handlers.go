package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"emirates-studios/internal/carousel"
	"emirates-studios/internal/models"
	"emirates-studios/internal/services"
)

// CarouselHandler handles HTTP requests for showcase carousels
type CarouselHandler struct {
	carousels *services.CarouselService
	logger    *zap.Logger
}

// NewCarouselHandler creates a new carousel handler
func NewCarouselHandler(carousels *services.CarouselService, logger *zap.Logger) *CarouselHandler {
	return &CarouselHandler{
		carousels: carousels,
		logger:    logger,
	}
}

// GoToRequest represents a request to jump to a slide
type GoToRequest struct {
	Index *int `json:"index"`
}

// AutoplayRequest represents a request to toggle auto-advance
type AutoplayRequest struct {
	Enabled *bool `json:"enabled"`
}

// ListStates returns the state of every showcase
// GET /api/carousel
func (h *CarouselHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.carousels.States())
}

// GetState returns the state of one showcase
// GET /api/carousel/{showcase}
func (h *CarouselHandler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.carousels.State(mux.Vars(r)["showcase"])
	h.respond(w, state, err)
}

// Next advances a showcase
// POST /api/carousel/{showcase}/next
func (h *CarouselHandler) Next(w http.ResponseWriter, r *http.Request) {
	state, err := h.carousels.Next(mux.Vars(r)["showcase"])
	h.respond(w, state, err)
}

// Previous moves a showcase back
// POST /api/carousel/{showcase}/previous
func (h *CarouselHandler) Previous(w http.ResponseWriter, r *http.Request) {
	state, err := h.carousels.Previous(mux.Vars(r)["showcase"])
	h.respond(w, state, err)
}

// GoTo jumps a showcase to a slide index
// POST /api/carousel/{showcase}/goto
func (h *CarouselHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req GoToRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Index == nil {
		http.Error(w, "index is required", http.StatusBadRequest)
		return
	}

	state, err := h.carousels.GoTo(mux.Vars(r)["showcase"], *req.Index)
	h.respond(w, state, err)
}

// Pause suspends auto-advance
// POST /api/carousel/{showcase}/pause
func (h *CarouselHandler) Pause(w http.ResponseWriter, r *http.Request) {
	state, err := h.carousels.Pause(mux.Vars(r)["showcase"])
	h.respond(w, state, err)
}

// Resume lifts a pause
// POST /api/carousel/{showcase}/resume
func (h *CarouselHandler) Resume(w http.ResponseWriter, r *http.Request) {
	state, err := h.carousels.Resume(mux.Vars(r)["showcase"])
	h.respond(w, state, err)
}

// SetAutoplay toggles auto-advance
// POST /api/carousel/{showcase}/autoplay
func (h *CarouselHandler) SetAutoplay(w http.ResponseWriter, r *http.Request) {
	var req AutoplayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Enabled == nil {
		http.Error(w, "enabled is required", http.StatusBadRequest)
		return
	}

	state, err := h.carousels.SetAutoAdvance(mux.Vars(r)["showcase"], *req.Enabled)
	h.respond(w, state, err)
}

func (h *CarouselHandler) respond(w http.ResponseWriter, state *models.CarouselState, err error) {
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP status codes
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrShowcaseNotFound), errors.Is(err, services.ErrSlideNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, carousel.ErrIndexOutOfRange),
		errors.Is(err, carousel.ErrInvalidConfiguration),
		errors.Is(err, services.ErrInvalidSlide),
		errors.Is(err, services.ErrInvalidSettings),
		errors.Is(err, services.ErrUnknownAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Error("request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
