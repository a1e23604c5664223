package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/recomendo/recomendo/domain"
)

func (c *Client) TopMedia(ctx context.Context) ([]domain.MediaItem, error) {
	var items []domain.MediaItem
	if err := c.do(ctx, http.MethodGet, "/media/top", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SearchMedia looks media up by partial name and optional type filter.
func (c *Client) SearchMedia(ctx context.Context, name string, itemType domain.MediaType) ([]domain.MediaItem, error) {
	params := url.Values{}
	if name != "" {
		params.Set("name", name)
	}
	if itemType != "" {
		params.Set("type", string(itemType))
	}

	var items []domain.MediaItem
	if err := c.do(ctx, http.MethodGet, "/media?"+params.Encode(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RateMedia submits the score for the current user, replacing any
// previous rating (last write wins).
func (c *Client) RateMedia(ctx context.Context, mediaId int64, score int) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/media/%d/rating", mediaId),
		map[string]int{"score": score}, nil)
}

func (c *Client) Comments(ctx context.Context, mediaId int64) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/media/%d/comments", mediaId), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) PostComment(ctx context.Context, mediaId int64, content string) (*domain.Comment, error) {
	var comment domain.Comment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/media/%d/comments", mediaId),
		map[string]string{"content": content}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
