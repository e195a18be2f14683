package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medibook-console/internal/form"
	"medibook-console/internal/handler"
	"medibook-console/internal/model"
	"medibook-console/internal/view"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "User management and audit logs",
	}
	cmd.AddCommand(usersCmd())
	cmd.AddCommand(deleteUserCmd())
	cmd.AddCommand(setRoleCmd())
	cmd.AddCommand(auditLogsCmd())
	cmd.AddCommand(createProviderCmd())
	return cmd
}

func withUsers(ctx context.Context, a *app, fn func(s *handler.UserManagementScreen) error) error {
	s, err := a.h.UserManagementScreen()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Mount(ctx); err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	snap := s.Snapshot()
	a.notice(snap.Message)
	rows := make([][]string, len(snap.Items))
	for i, u := range snap.Items {
		rows[i] = view.UserRow(u)
	}
	a.table(view.UserColumns(), rows)
	return nil
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List all users",
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			return withUsers(ctx, a, func(*handler.UserManagementScreen) error { return nil })
		}),
	}
}

func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			return withUsers(ctx, a, func(s *handler.UserManagementScreen) error {
				return s.Delete(ctx, args[0])
			})
		}),
	}
}

func setRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <id> <role>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			role := model.Role(strings.ToLower(args[1]))
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}
			return withUsers(ctx, a, func(s *handler.UserManagementScreen) error {
				return s.ChangeRole(ctx, args[0], role)
			})
		}),
	}
}

func auditLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit-logs",
		Short: "Show the audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := map[string]any{}
			if v, _ := cmd.Flags().GetString("action"); v != "" {
				filters["action"] = v
			}
			if v, _ := cmd.Flags().GetString("user"); v != "" {
				filters["userId"] = v
			}
			return run(func(ctx context.Context, a *app, _ []string) error {
				s, err := a.h.AuditLogScreen()
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.Filter(ctx, filters); err != nil {
					return err
				}
				loc := a.h.Location()
				items := s.Snapshot().Items
				rows := make([][]string, len(items))
				for i, l := range items {
					rows[i] = view.AuditLogRow(l, loc)
				}
				a.table(view.AuditLogColumns(), rows)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().String("action", "", "Only entries with this action")
	cmd.Flags().String("user", "", "Only entries by this user id")
	return cmd
}

var providerFlagFields = map[string]string{
	"name":           "name",
	"email":          "email",
	"password":       "password",
	"phone":          "phone",
	"street":         "address.street",
	"city":           "address.city",
	"state":          "address.state",
	"postal-code":    "address.postalCode",
	"country":        "address.country",
	"specialization": "providerInfo.specialization",
	"clinic":         "providerInfo.clinicName",
	"license":        "providerInfo.licenseNumber",
}

func createProviderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-provider",
		Short: "Create a provider account",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := form.NewProvider()
			for flag, field := range providerFlagFields {
				v, _ := cmd.Flags().GetString(flag)
				d.Set(field, v)
			}
			return run(func(ctx context.Context, a *app, _ []string) error {
				msg, err := a.h.CreateProvider(ctx, d)
				if err != nil {
					return err
				}
				a.notice(msg)
				return nil
			})(cmd, args)
		},
	}
	for flag := range providerFlagFields {
		cmd.Flags().String(flag, "", strings.ReplaceAll(flag, "-", " "))
	}
	return cmd
}
