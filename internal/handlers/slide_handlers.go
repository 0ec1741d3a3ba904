package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"emirates-studios/internal/models"
	"emirates-studios/internal/services"
)

// SlideHandler handles HTTP requests for the slide catalog
type SlideHandler struct {
	slides    *services.SlideService
	carousels *services.CarouselService
	logger    *zap.Logger
}

// NewSlideHandler creates a new slide handler
func NewSlideHandler(slides *services.SlideService, carousels *services.CarouselService, logger *zap.Logger) *SlideHandler {
	return &SlideHandler{
		slides:    slides,
		carousels: carousels,
		logger:    logger,
	}
}

// SlideRequest represents a request to create or update a slide
type SlideRequest struct {
	Showcase  string `json:"showcase"`
	Title     string `json:"title"`
	Category  string `json:"category,omitempty"`
	Quote     string `json:"quote,omitempty"`
	Author    string `json:"author,omitempty"`
	Role      string `json:"role,omitempty"`
	ImagePath string `json:"imagePath,omitempty"`
	IsActive  *bool  `json:"isActive,omitempty"`
}

func (req *SlideRequest) toModel() *models.Slide {
	return &models.Slide{
		Showcase:  req.Showcase,
		Title:     req.Title,
		Category:  req.Category,
		Quote:     req.Quote,
		Author:    req.Author,
		Role:      req.Role,
		ImagePath: req.ImagePath,
	}
}

// reload rebuilds the carousel of a showcase after its slide set changed
func (h *SlideHandler) reload(showcase string) {
	if err := h.carousels.Reload(showcase); err != nil {
		h.logger.Error("failed to reload carousel", zap.String("showcase", showcase), zap.Error(err))
	}
}

// CreateSlide adds a slide to a showcase
// POST /api/slides
func (h *SlideHandler) CreateSlide(w http.ResponseWriter, r *http.Request) {
	var req SlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	slide, err := h.slides.CreateSlide(req.toModel())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.reload(slide.Showcase)

	writeJSON(w, http.StatusCreated, slide)
}

// ListSlides returns every slide
// GET /api/slides
func (h *SlideHandler) ListSlides(w http.ResponseWriter, r *http.Request) {
	slides, err := h.slides.ListAll()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	// Always return an array, even if empty
	if slides == nil {
		slides = []*models.Slide{}
	}
	writeJSON(w, http.StatusOK, slides)
}

// ListShowcaseSlides returns the slides of a showcase in order
// GET /api/slides/showcase/{showcase}
func (h *SlideHandler) ListShowcaseSlides(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	slides, err := h.slides.ListByShowcase(mux.Vars(r)["showcase"], activeOnly)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if slides == nil {
		slides = []*models.Slide{}
	}
	writeJSON(w, http.StatusOK, slides)
}

// GetSlide returns a slide by id
// GET /api/slides/{id}
func (h *SlideHandler) GetSlide(w http.ResponseWriter, r *http.Request) {
	slide, err := h.slides.GetSlide(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

// UpdateSlide updates slide content and visibility
// PUT /api/slides/{id}
func (h *SlideHandler) UpdateSlide(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req SlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	slide, err := h.slides.UpdateSlide(id, req.toModel())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if req.IsActive != nil && *req.IsActive != slide.IsActive {
		if err := h.slides.SetActive(id, *req.IsActive); err != nil {
			writeError(w, h.logger, err)
			return
		}
		slide.IsActive = *req.IsActive
		h.reload(slide.Showcase)
	}

	writeJSON(w, http.StatusOK, slide)
}

// DeleteSlide removes a slide
// DELETE /api/slides/{id}
func (h *SlideHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	slide, err := h.slides.DeleteSlide(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.reload(slide.Showcase)

	w.WriteHeader(http.StatusNoContent)
}
