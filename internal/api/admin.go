package api

import (
	"context"
	"net/url"
)

type AdminService struct {
	c *Client
}

func NewAdminService(c *Client) *AdminService { return &AdminService{c: c} }

func (s *AdminService) Users(ctx context.Context) ([]UserDTO, error) {
	var out list[UserDTO]
	if err := s.c.Get(ctx, "/admin/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.c.Delete(ctx, "/admin/users/"+url.PathEscape(id), nil)
}

func (s *AdminService) UpdateRole(ctx context.Context, id, role string) error {
	body := map[string]string{"role": role}
	return s.c.Put(ctx, "/admin/users/"+url.PathEscape(id)+"/role", body, nil)
}

// AuditLogs is a POST because the filters travel in the body. A nil filter
// set is sent as an empty object.
func (s *AdminService) AuditLogs(ctx context.Context, filters map[string]any) ([]AuditLogDTO, error) {
	if filters == nil {
		filters = map[string]any{}
	}
	var out list[AuditLogDTO]
	if err := s.c.Post(ctx, "/admin/audit-logs", filters, &out); err != nil {
		return nil, err
	}
	return out, nil
}
