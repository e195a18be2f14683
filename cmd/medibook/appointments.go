package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"medibook-console/internal/api"
	"medibook-console/internal/handler"
	"medibook-console/internal/view"
)

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appts"},
		Short:   "List, book, edit and cancel appointments",
	}
	cmd.AddCommand(listAppointmentsCmd())
	cmd.AddCommand(showAppointmentCmd())
	cmd.AddCommand(bookAppointmentCmd())
	cmd.AddCommand(editAppointmentCmd())
	cmd.AddCommand(cancelAppointmentCmd())
	return cmd
}

// withScreen opens the booking screen, runs fn, and prints the resulting
// message and listing.
func withScreen(ctx context.Context, a *app, fn func(s *handler.BookingScreen) error) error {
	s, err := a.h.BookingScreen()
	if err != nil {
		return err
	}
	defer s.Close()
	if err := fn(s); err != nil {
		return err
	}
	a.notice(s.Snapshot().Message)
	cols, rows := s.Table()
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No appointments.")
		return nil
	}
	a.table(cols, rows)
	return nil
}

func listAppointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List appointments visible to you",
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, _ := cmd.Flags().GetString("provider")
			patient, _ := cmd.Flags().GetString("patient")
			q := api.AppointmentQuery{Scope: api.ScopeMine}
			switch {
			case provider != "":
				q = api.AppointmentQuery{Scope: api.ScopeProvider, SubjectID: provider}
			case patient != "":
				q = api.AppointmentQuery{Scope: api.ScopePatient, SubjectID: patient}
			}
			return run(func(ctx context.Context, a *app, _ []string) error {
				return withScreen(ctx, a, func(s *handler.BookingScreen) error {
					if q.Scope == api.ScopeMine {
						return s.Mount(ctx)
					}
					return s.SetQuery(ctx, q)
				})
			})(cmd, args)
		},
	}
	cmd.Flags().String("provider", "", "List one provider's appointments")
	cmd.Flags().String("patient", "", "List one patient's appointments")
	return cmd
}

func showAppointmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one appointment",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			s, err := a.h.BookingScreen()
			if err != nil {
				return err
			}
			defer s.Close()
			ap, err := s.Find(ctx, args[0])
			if err != nil {
				return err
			}
			loc := a.h.Location()
			a.kv(
				"ID", ap.ID,
				"When", view.FormatDate(ap.DateTime, loc),
				"Provider", view.ProviderName(ap.Provider),
				"Specialization", ap.Provider.Specialization,
				"Patient", view.PatientName(ap.Patient),
				"Status", view.StatusLabel(ap.Status),
				"Notes", ap.Notes,
			)
			return nil
		}),
	}
}

func bookingFlags(cmd *cobra.Command) {
	cmd.Flags().String("at", "", "Local date and time, YYYY-MM-DDTHH:MM")
	cmd.Flags().String("provider", "", "Provider id")
	cmd.Flags().String("patient", "", "Patient id (admins only)")
	cmd.Flags().String("notes", "", "Notes for the provider")
}

var bookingFlagFields = map[string]string{
	"at":       "dateTime",
	"provider": "providerId",
	"patient":  "patientId",
	"notes":    "notes",
}

// applyBookingFlags copies the flags the user set onto the draft.
func applyBookingFlags(cmd *cobra.Command, s *handler.BookingScreen) {
	for flag, field := range bookingFlagFields {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(flag)
		s.Draft().Set(field, v)
	}
}

func bookAppointmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a new appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app, _ []string) error {
				return withScreen(ctx, a, func(s *handler.BookingScreen) error {
					applyBookingFlags(cmd, s)
					return s.Submit(ctx)
				})
			})(cmd, args)
		},
	}
	bookingFlags(cmd)
	return cmd
}

func editAppointmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an existing appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app, args []string) error {
				return withScreen(ctx, a, func(s *handler.BookingScreen) error {
					if err := s.Edit(ctx, args[0]); err != nil {
						return err
					}
					applyBookingFlags(cmd, s)
					return s.Submit(ctx)
				})
			})(cmd, args)
		},
	}
	bookingFlags(cmd)
	return cmd
}

func cancelAppointmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app, args []string) error {
			return withScreen(ctx, a, func(s *handler.BookingScreen) error {
				return s.Cancel(ctx, args[0])
			})
		}),
	}
}
