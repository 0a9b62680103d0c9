package models

import "time"

// Identity is the authenticated user's profile as exposed to the
// application, distinct from the provider's raw account record.
type Identity struct {
	ID        string
	AccountID string
	Email     string
	Username  string
	AvatarURL string
	CreatedAt time.Time
}

// VideoPost is a user-submitted content item combining metadata with
// references to two uploaded media files.
type VideoPost struct {
	ID           string
	Title        string
	Prompt       string
	ThumbnailURL string
	VideoURL     string
	CreatorID    string
	CreatedAt    time.Time
}

// SessionState is the process-wide cached view of "who is logged in".
// IsLoggedIn is true iff User is non-nil; the session facade is the
// single writer and maintains that invariant.
type SessionState struct {
	IsLoading  bool
	IsLoggedIn bool
	User       *Identity
}
