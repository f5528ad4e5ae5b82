package models

import "time"

// Profile represents a user's public profile
type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	Reputation int       `json:"reputation"`
	PushToken  *string   `json:"push_token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuthUser is the identity attached to an authenticated request
type AuthUser struct {
	ID              string `json:"id"`
	Email           string `json:"email,omitempty"`
	DisplayNameHint string `json:"display_name,omitempty"`
	AvatarHint      string `json:"avatar_url,omitempty"`
}

// BeaconAssets describes what the beacon owner is offering
type BeaconAssets struct {
	Type  string `json:"type"`
	Brand string `json:"brand,omitempty"`
}

// Beacon represents a time-bounded geotagged broadcast
type Beacon struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Lat          float64      `json:"lat"`
	Lng          float64      `json:"lng"`
	Mood         string       `json:"mood"`
	Assets       BeaconAssets `json:"assets"`
	ExpiresAt    time.Time    `json:"expires_at"`
	LocationName *string      `json:"location_name,omitempty"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NearbyBeacon is a beacon joined with its owner's public profile fields,
// as returned by the proximity query
type NearbyBeacon struct {
	Beacon
	Username   string  `json:"username"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
	Reputation int     `json:"reputation"`
	DistanceM  float64 `json:"distance_m"`
}

// PartyMember binds a user to a beacon's conversation.
// (beacon_id, user_id) is unique; beacon_id doubles as the conversation id.
type PartyMember struct {
	ID        string    `json:"id"`
	BeaconID  string    `json:"beacon_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message represents a chat entry in a beacon's conversation
type Message struct {
	ID        string    `json:"id"`
	BeaconID  string    `json:"beacon_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversation is a summary row for the chat list
type Conversation struct {
	BeaconID     string     `json:"beacon_id"`
	Mood         string     `json:"mood"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Participants []*Profile `json:"participants"`
}

// Place is a geocoder search result
type Place struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// Suggestion is a geocoder autocomplete entry
type Suggestion struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}
