package handler

import (
	"context"
	"errors"

	"medibook-console/internal/exceptions"
	"medibook-console/internal/listsync"
	"medibook-console/internal/model"
	"medibook-console/internal/view"
)

var ErrUnknownUser = errors.New("handler: user is not in the current listing")

type UserManagementScreen struct {
	h     *Handler
	actor model.User
	list  *listsync.Controller[model.User]
}

func (h *Handler) UserManagementScreen() (*UserManagementScreen, error) {
	u, err := h.require(view.ActionManageUsers, "Access denied: Not an admin.")
	if err != nil {
		return nil, err
	}
	return &UserManagementScreen{
		h:     h,
		actor: u,
		list: listsync.New(listsync.Users(h.admin),
			listsync.WithTimeout(h.timeout),
			listsync.WithFailureText("Failed to load users."),
			listsync.WithLogger(h.log),
		),
	}, nil
}

func (s *UserManagementScreen) Mount(ctx context.Context) error {
	return settle(s.list.Refresh(ctx))
}

func (s *UserManagementScreen) Delete(ctx context.Context, id string) error {
	if id == s.actor.ID {
		err := exceptions.Denied("You cannot delete your own account.")
		s.list.Notify(report(err, ""))
		return err
	}
	err := s.list.Mutate(ctx, func(ctx context.Context) error {
		return s.h.admin.DeleteUser(ctx, id)
	}, "User deleted successfully.", "Failed to delete user.")
	return settle(err)
}

// RoleChangeEnabled reports whether the role control for target is active.
func (s *UserManagementScreen) RoleChangeEnabled(target model.User, role model.Role) bool {
	return view.RoleChangeEnabled(s.actor, target, role)
}

// ChangeRole moves user id to role. The target must be in the current
// listing so the same rule the screen renders with can be applied.
func (s *UserManagementScreen) ChangeRole(ctx context.Context, id string, role model.Role) error {
	var target *model.User
	for _, u := range s.list.Snapshot().Items {
		if u.ID == id {
			target = &u
			break
		}
	}
	if target == nil {
		return ErrUnknownUser
	}
	if !s.RoleChangeEnabled(*target, role) {
		err := exceptions.Denied("Role change not allowed for this user.")
		s.list.Notify(report(err, ""))
		return err
	}
	err := s.list.Mutate(ctx, func(ctx context.Context) error {
		return s.h.admin.UpdateRole(ctx, id, string(role))
	}, "User role updated successfully.", "Failed to update user role.")
	return settle(err)
}

func (s *UserManagementScreen) Snapshot() listsync.Snapshot[model.User] { return s.list.Snapshot() }

func (s *UserManagementScreen) Close() { s.list.Close() }

type AuditLogScreen struct {
	h    *Handler
	list *listsync.Controller[model.AuditLog]
}

func (h *Handler) AuditLogScreen() (*AuditLogScreen, error) {
	if _, err := h.require(view.ActionAuditLogs, "Access denied: Not an admin."); err != nil {
		return nil, err
	}
	return &AuditLogScreen{
		h: h,
		list: listsync.New(listsync.AuditLogs(h.admin, nil),
			listsync.WithTimeout(h.timeout),
			listsync.WithFailureText("Failed to load audit logs."),
			listsync.WithLogger(h.log),
		),
	}, nil
}

func (s *AuditLogScreen) Mount(ctx context.Context) error {
	return settle(s.list.Refresh(ctx))
}

// Filter reloads the logs with filters sent as the request body.
func (s *AuditLogScreen) Filter(ctx context.Context, filters map[string]any) error {
	return settle(s.list.Reload(ctx, listsync.AuditLogs(s.h.admin, filters)))
}

func (s *AuditLogScreen) Snapshot() listsync.Snapshot[model.AuditLog] { return s.list.Snapshot() }

func (s *AuditLogScreen) Close() { s.list.Close() }
