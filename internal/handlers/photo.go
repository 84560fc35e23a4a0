package handlers

import (
	"net/http"
	"strconv"

	"imagefeed/internal/models"
	"imagefeed/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PhotoHandler handles feed-related HTTP requests
type PhotoHandler struct {
	feed *services.FeedService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(feed *services.FeedService) *PhotoHandler {
	return &PhotoHandler{feed: feed}
}

// FeedResponse is a snapshot of the photo feed
type FeedResponse struct {
	Photos         []models.Photo `json:"photos"`
	LastLoadedPage int            `json:"last_loaded_page"`
	Loading        bool           `json:"loading"`
}

func (h *PhotoHandler) snapshot() FeedResponse {
	photos := h.feed.Photos()
	if photos == nil {
		photos = []models.Photo{}
	}
	return FeedResponse{
		Photos:         photos,
		LastLoadedPage: h.feed.LastLoadedPage(),
		Loading:        h.feed.InFlight(),
	}
}

// GetPhotos handles GET /api/v1/photos
func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.snapshot())
}

// GetPhoto handles GET /api/v1/photos/{photo_id}
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.feed.Photo(chi.URLParam(r, "photo_id"))
	if !ok {
		respondError(w, "photo not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

// NextPage handles POST /api/v1/photos/next
func (h *PhotoHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.FetchNextPage(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to fetch next page")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.snapshot())
}

// Displayed handles POST /api/v1/photos/displayed?index=N
func (h *PhotoHandler) Displayed(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil || index < 0 {
		respondError(w, "index must be a non-negative integer", http.StatusBadRequest)
		return
	}

	if err := h.feed.WillDisplay(r.Context(), index); err != nil {
		log.Error().Err(err).Int("index", index).Msg("Failed to fetch next page")
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like handles POST /api/v1/photos/{photo_id}/like
func (h *PhotoHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.changeLike(w, r, true)
}

// Unlike handles DELETE /api/v1/photos/{photo_id}/like
func (h *PhotoHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.changeLike(w, r, false)
}

func (h *PhotoHandler) changeLike(w http.ResponseWriter, r *http.Request, like bool) {
	photoID := chi.URLParam(r, "photo_id")
	if photoID == "" {
		respondError(w, "photo_id is required", http.StatusBadRequest)
		return
	}

	photo, err := h.feed.ChangeLike(r.Context(), photoID, like)
	if err != nil {
		log.Error().
			Err(err).
			Str("photo_id", photoID).
			Bool("like", like).
			Msg("Failed to change like")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, photo)
}
