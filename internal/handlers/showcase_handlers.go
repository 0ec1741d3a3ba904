package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"emirates-studios/internal/models"
	"emirates-studios/internal/services"
)

// ShowcaseHandler handles HTTP requests for showcase settings and images
type ShowcaseHandler struct {
	store     *services.ShowcaseStore
	slides    *services.SlideService
	carousels *services.CarouselService
	logger    *zap.Logger
}

// NewShowcaseHandler creates a new showcase handler
func NewShowcaseHandler(store *services.ShowcaseStore, slides *services.SlideService, carousels *services.CarouselService, logger *zap.Logger) *ShowcaseHandler {
	return &ShowcaseHandler{
		store:     store,
		slides:    slides,
		carousels: carousels,
		logger:    logger,
	}
}

// SlideImageRequest represents a request to store a slide image
type SlideImageRequest struct {
	SlideID     string `json:"slideId"`
	ImageBase64 string `json:"imageBase64"`
}

// SlideImageResponse represents the response
type SlideImageResponse struct {
	Success   bool   `json:"success"`
	ImagePath string `json:"imagePath,omitempty"`
}

// GetSettings returns the playback settings of a showcase
// GET /api/showcase/{showcase}/settings
func (h *ShowcaseHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Settings(mux.Vars(r)["showcase"]))
}

// UpdateSettings stores playback settings and restarts the showcase carousel
// PUT /api/showcase/{showcase}/settings
func (h *ShowcaseHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	showcase := mux.Vars(r)["showcase"]

	var settings models.ShowcaseSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateSettings(showcase, settings); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.carousels.ApplySettings(showcase); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, h.store.Settings(showcase))
}

// SaveSlideImage stores a base64 PNG for a slide and links it
// POST /api/showcase/{showcase}/slide-image
func (h *ShowcaseHandler) SaveSlideImage(w http.ResponseWriter, r *http.Request) {
	showcase := services.NormalizeShowcase(mux.Vars(r)["showcase"])

	var req SlideImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.SlideID == "" {
		http.Error(w, "slideId is required", http.StatusBadRequest)
		return
	}
	if req.ImageBase64 == "" {
		http.Error(w, "imageBase64 is required", http.StatusBadRequest)
		return
	}

	slide, err := h.slides.GetSlide(req.SlideID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if slide.Showcase != showcase {
		http.Error(w, "slide does not belong to showcase", http.StatusBadRequest)
		return
	}

	imagePath, err := h.store.SaveSlideImage(showcase, req.SlideID, req.ImageBase64)
	if err != nil {
		h.logger.Warn("failed to save slide image", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.slides.SetImagePath(req.SlideID, "/media/"+imagePath); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SlideImageResponse{
		Success:   true,
		ImagePath: "/media/" + imagePath,
	})
}
