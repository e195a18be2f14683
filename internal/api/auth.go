package api

import "context"

type AuthService struct {
	c *Client
}

func NewAuthService(c *Client) *AuthService { return &AuthService{c: c} }

func (s *AuthService) Login(ctx context.Context, cred Credentials) (*LoginResponse, error) {
	var out LoginResponse
	if err := s.c.Post(ctx, "/auth/login", cred, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The payload is a draft's values, so the same
// call serves patient sign-up and admin-created provider accounts.
func (s *AuthService) Register(ctx context.Context, payload map[string]any) error {
	return s.c.Post(ctx, "/auth/register", payload, nil)
}
