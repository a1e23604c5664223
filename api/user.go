package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"bytes"

	"github.com/recomendo/recomendo/domain"
)

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateMe(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPatch, "/me", map[string]string{"user_name": username}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPut, "/me/password", map[string]string{
		"current_password": current,
		"new_password":     next,
	}, nil)
}

func (c *Client) DeleteMe(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/me", nil, nil)
}

// UploadAvatar sends the avatar image as a multipart form under the
// "avatar" field.
func (c *Client) UploadAvatar(ctx context.Context, filename string, content io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("avatar", filepath.Base(filename))
	if err != nil {
		return fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("reading avatar file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/me/avatar", &buf)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(req, nil)
}

func (c *Client) DeleteAvatar(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/me/avatar", nil, nil)
}

func (c *Client) UserById(ctx context.Context, userId int64) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", userId), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// userList unwraps the paginated envelope the graph endpoints use.
func (c *Client) userList(ctx context.Context, path string) ([]domain.User, error) {
	var page domain.Paginated[domain.User]
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *Client) Followers(ctx context.Context, userId int64) ([]domain.User, error) {
	return c.userList(ctx, fmt.Sprintf("/users/%d/followers", userId))
}

func (c *Client) Followings(ctx context.Context, userId int64) ([]domain.User, error) {
	return c.userList(ctx, fmt.Sprintf("/users/%d/followings", userId))
}

func (c *Client) Friends(ctx context.Context, userId int64) ([]domain.User, error) {
	return c.userList(ctx, fmt.Sprintf("/users/%d/friends", userId))
}

func (c *Client) MyFollowings(ctx context.Context) ([]domain.User, error) {
	return c.userList(ctx, "/me/followings")
}

func (c *Client) MyFriends(ctx context.Context) ([]domain.User, error) {
	return c.userList(ctx, "/me/friends")
}

func (c *Client) SuggestedUsers(ctx context.Context) ([]domain.User, error) {
	return c.userList(ctx, "/users/suggested")
}

func (c *Client) NewestUsers(ctx context.Context) ([]domain.User, error) {
	return c.userList(ctx, "/users/newest")
}

func (c *Client) TopRecommenders(ctx context.Context) ([]domain.User, error) {
	return c.userList(ctx, "/users/top-recommenders")
}

func (c *Client) Follow(ctx context.Context, followingId int64) error {
	return c.do(ctx, http.MethodPost, "/follows", map[string]int64{"following_id": followingId}, nil)
}

// Unfollow removes the follow edge towards the given user.
func (c *Client) Unfollow(ctx context.Context, targetUserId int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/follows/%d", targetUserId), nil, nil)
}
