package api

import (
	"context"
	"net/url"
)

type UserService struct {
	c *Client
}

func NewUserService(c *Client) *UserService { return &UserService{c: c} }

// Profile returns the account behind the current bearer token.
func (s *UserService) Profile(ctx context.Context) (*UserDTO, error) {
	var out UserDTO
	if err := s.c.Get(ctx, "/users/profile", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*UserDTO, error) {
	var out UserDTO
	if err := s.c.Get(ctx, "/users/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *UserService) Update(ctx context.Context, id string, payload map[string]any) error {
	return s.c.Put(ctx, "/users/"+url.PathEscape(id), payload, nil)
}
