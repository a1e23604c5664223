package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/recomendo/recomendo/domain"
)

const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// CreateRecommendation sends media to another user. The backend answers
// 409 when the (media, sender, recipient) triple already exists; check
// with IsConflict.
func (c *Client) CreateRecommendation(ctx context.Context, toUserId, mediaId int64) error {
	return c.do(ctx, http.MethodPost, "/recommendations", map[string]int64{
		"to_user_id": toUserId,
		"media_id":   mediaId,
	}, nil)
}

func (c *Client) Recommendations(ctx context.Context, userId int64, direction string) ([]domain.RecommendationDetails, error) {
	var recs []domain.RecommendationDetails
	path := fmt.Sprintf("/users/%d/recommendations?direction=%s", userId, direction)
	if err := c.do(ctx, http.MethodGet, path, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteRecommendation removes one of the current user's sent
// recommendations. The backend answers 204.
func (c *Client) DeleteRecommendation(ctx context.Context, recommendationId int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/me/recommendations/%d", recommendationId), nil, nil)
}

func (c *Client) Feed(ctx context.Context) ([]domain.FeedItem, error) {
	var items []domain.FeedItem
	if err := c.do(ctx, http.MethodGet, "/feed", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindMediaWithAI asks the discovery endpoint to guess media from a free
// text description.
func (c *Client) FindMediaWithAI(ctx context.Context, description string) ([]domain.AIGuess, error) {
	var guesses []domain.AIGuess
	err := c.do(ctx, http.MethodPost, "/ai/find-media", map[string]string{
		"description": description,
	}, &guesses)
	if err != nil {
		return nil, err
	}
	return guesses, nil
}
