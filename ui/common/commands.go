package common

import (
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/store"
)

type SessionState uint

const (
	LoginView SessionState = iota
	FeedView
	MediaView
	CommunityView
	ProfileView
	RecommendView
	AiFindView
	EditProfileView
	UserProfileView
)

// CacheUpdatedMsg is broadcast to every view when a cache prefix has been
// invalidated or written. Views reload if they display the key.
type CacheUpdatedMsg struct {
	Key store.Key
}

// LoggedInMsg is sent once the session has settled to Authenticated.
type LoggedInMsg struct{}

// LoggedOutMsg is sent when the credential was cleared, either by the user
// or by a rejecting backend.
type LoggedOutMsg struct{}

// IdentityChangedMsg is sent after a self-profile mutation refetched /me.
type IdentityChangedMsg struct{}

// OpenComposerMsg opens the recommendation composer. Either slot may be
// pre-filled: a media record from the media or AI views, a recipient from
// a user list or profile, or both.
type OpenComposerMsg struct {
	Media     *domain.MediaItem
	Recipient *domain.User
}

// OpenUserProfileMsg opens another user's profile view.
type OpenUserProfileMsg struct {
	User domain.User
}

// CloseUserProfileMsg returns from a user profile to the community view.
type CloseUserProfileMsg struct{}

// OpenRatingMsg opens the rating overlay for the given media.
type OpenRatingMsg struct {
	Media domain.MediaItem
}

// OpenCommentsMsg opens the comments overlay for the given media.
type OpenCommentsMsg struct {
	Media domain.MediaItem
}

// CloseOverlayMsg closes whatever overlay is currently open.
type CloseOverlayMsg struct{}
