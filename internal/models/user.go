package models

import (
	"time"
)

// User mirrors the identity provider's view of a user.
// Profiles are upserted from verified access tokens; credentials never live here.
type User struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Email      string    `bson:"email,omitempty" json:"email,omitempty"`
	AvatarURL  string    `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	LastSeenAt time.Time `bson:"lastSeenAt" json:"lastSeenAt"`
}

// Summary returns the populated form used in joins
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

// UserSummary is the populated form of a user reference
type UserSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Actor is the authenticated user performing a request
type Actor struct {
	ID    string
	Name  string
	Email string
}
