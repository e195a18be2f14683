package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"medibook-console/internal/auth"
	"medibook-console/internal/form"
)

// secret returns the flag value, or reads one line from in when it is empty.
func secret(cmd *cobra.Command, flag, prompt string) (string, error) {
	v, _ := cmd.Flags().GetString(flag)
	if v != "" {
		return v, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through a portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _ := cmd.Flags().GetString("portal")
			portal, err := auth.ParsePortal(p)
			if err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			password, err := secret(cmd, "password", "Password: ")
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, a *app, _ []string) error {
				route, err := a.h.Login(ctx, portal, email, password)
				if err != nil {
					return err
				}
				u, _ := a.session.User()
				fmt.Fprintf(a.out, "Signed in as %s (%s). Dashboard: %s\n", u.Email, u.Role, route)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().String("portal", string(auth.PatientPortal), "Login portal: patient, provider or admin")
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prompted when empty)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			if _, err := a.h.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		}),
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			u, ok := a.session.User()
			if !ok {
				fmt.Fprintln(a.out, "Not signed in.")
				return nil
			}
			a.kv("ID", u.ID, "Name", u.Name, "Email", u.Email, "Role", string(u.Role), "Profile", a.cfg.Profile)
			return nil
		}),
	}
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a patient account",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := form.NewRegistration()
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			d.Set("name", name)
			d.Set("email", email)

			password, err := secret(cmd, "password", "Password: ")
			if err != nil {
				return err
			}
			d.Set("password", password)
			confirm, _ := cmd.Flags().GetString("confirm")
			if confirm == "" {
				confirm = password
			}

			return run(func(ctx context.Context, a *app, _ []string) error {
				msg, err := a.h.Register(ctx, d, confirm)
				if err != nil {
					return err
				}
				a.notice(msg)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().String("name", "", "Full name")
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Password (prompted when empty)")
	cmd.Flags().String("confirm", "", "Password confirmation (defaults to the password)")
	return cmd
}
