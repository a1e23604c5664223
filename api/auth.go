package api

import (
	"context"
	"net/http"

	"github.com/recomendo/recomendo/domain"
)

func (c *Client) Login(ctx context.Context, email, password string) (*domain.TokenResponse, error) {
	var token domain.TokenResponse
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.do(ctx, http.MethodPost, "/register", map[string]string{
		"user_name": username,
		"email":     email,
		"password":  password,
	}, nil)
}
