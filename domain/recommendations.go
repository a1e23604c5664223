package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type RecommendationDetails struct {
	Id        int64     `json:"recommendation_id"`
	Media     MediaItem `json:"media"`
	User      BriefUser `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *RecommendationDetails) ToString() string {
	return fmt.Sprintf("\n\tId: %d \n\tMedia: %s \n\tUser: %s \n\tCreatedAt: %s)", r.Id, r.Media.Name, r.User.Username, r.CreatedAt)
}

const (
	FeedRecommendation = "recommendation"
	FeedFollow         = "follow"
)

// FeedItem is a tagged union: Details holds either RecommendationEventDetails
// or FollowEventDetails depending on Type. Decode with DecodeDetails.
type FeedItem struct {
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	Actor     User            `json:"actor"`
	Details   json.RawMessage `json:"details"`
}

type RecommendationEventDetails struct {
	Recipient BriefUser `json:"recipient"`
	Media     struct {
		Id   int64  `json:"media_id"`
		Name string `json:"name"`
	} `json:"media"`
}

type FollowEventDetails struct {
	FollowedUser BriefUser `json:"followed_user"`
}

// DecodeDetails unpacks the variant matching the item type. Exactly one of
// the returned pointers is non-nil on success.
func (f *FeedItem) DecodeDetails() (*RecommendationEventDetails, *FollowEventDetails, error) {
	switch f.Type {
	case FeedRecommendation:
		var d RecommendationEventDetails
		if err := json.Unmarshal(f.Details, &d); err != nil {
			return nil, nil, fmt.Errorf("decoding recommendation event: %w", err)
		}
		return &d, nil, nil
	case FeedFollow:
		var d FollowEventDetails
		if err := json.Unmarshal(f.Details, &d); err != nil {
			return nil, nil, fmt.Errorf("decoding follow event: %w", err)
		}
		return nil, &d, nil
	default:
		return nil, nil, fmt.Errorf("unknown feed event type %q", f.Type)
	}
}
