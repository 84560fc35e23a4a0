package models

// EventType identifies what part of the session state changed
type EventType string

const (
	EventProfileChanged EventType = "profile_changed"
	EventAvatarChanged  EventType = "avatar_changed"
	EventPhotosChanged  EventType = "photos_changed"
	EventSessionChanged EventType = "session_changed"
)

// Event is published after a session component has mutated its state.
// Subscribers must re-read the owning component to get the new state.
type Event struct {
	Type      EventType `json:"type"`
	OldCount  int       `json:"old_count"`
	NewCount  int       `json:"new_count"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	State     string    `json:"state,omitempty"`
}
