package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"medibook-console/internal/form"
)

func profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in user's profile",
		RunE: run(func(ctx context.Context, a *app, _ []string) error {
			p, err := a.h.Profile(ctx)
			if err != nil {
				return err
			}
			pairs := []string{
				"Name", p.User.Name,
				"Email", p.User.Email,
				"Role", string(p.User.Role),
				"Phone", p.Phone,
			}
			if p.Specialization != "" || p.ClinicName != "" {
				pairs = append(pairs, "Specialization", p.Specialization, "Clinic", p.ClinicName)
			}
			if m := p.Medical; m != nil {
				pairs = append(pairs,
					"Date of birth", m.DateOfBirth,
					"Blood type", m.BloodType,
					"Allergies", strings.Join(m.Allergies, ", "),
					"Medical history", strings.Join(m.MedicalHistory, ", "),
				)
			}
			a.kv(pairs...)
			return nil
		}),
	}
}

func medicalInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "medical-info",
		Short: "Save medical information for the signed-in patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := form.NewMedicalInfo()
			dob, _ := cmd.Flags().GetString("dob")
			blood, _ := cmd.Flags().GetString("blood-type")
			allergies, _ := cmd.Flags().GetString("allergies")
			history, _ := cmd.Flags().GetString("history")
			d.Set("dateOfBirth", dob)
			d.Set("bloodType", blood)
			d.Set("allergies", form.SplitList(allergies))
			d.Set("medicalHistory", form.SplitList(history))

			return run(func(ctx context.Context, a *app, _ []string) error {
				msg, err := a.h.SaveMedicalInfo(ctx, d)
				if err != nil {
					return err
				}
				a.notice(msg)
				return nil
			})(cmd, args)
		},
	}
	cmd.Flags().String("dob", "", "Date of birth (YYYY-MM-DD)")
	cmd.Flags().String("blood-type", "", "Blood type, e.g. O+")
	cmd.Flags().String("allergies", "", "Comma-separated allergies")
	cmd.Flags().String("history", "", "Comma-separated medical history")
	return cmd
}
