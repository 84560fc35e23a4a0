package handlers

import (
	"net/http"

	"imagefeed/internal/models"
	"imagefeed/internal/services"
)

// ProfileHandler handles profile and logout requests
type ProfileHandler struct {
	profile *services.ProfileService
	logout  *services.LogoutService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profile *services.ProfileService, logout *services.LogoutService) *ProfileHandler {
	return &ProfileHandler{
		profile: profile,
		logout:  logout,
	}
}

// ProfileResponse is the body of GET /api/v1/profile
type ProfileResponse struct {
	Profile   *models.Profile `json:"profile"`
	AvatarURL string          `json:"avatar_url,omitempty"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile := h.profile.Profile()
	if profile == nil {
		respondError(w, "profile not loaded", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, ProfileResponse{
		Profile:   profile,
		AvatarURL: h.profile.AvatarURL(),
	})
}

// Logout handles POST /api/v1/logout
func (h *ProfileHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.logout.Logout(r.Context()); err != nil {
		respondError(w, "failed to log out", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
