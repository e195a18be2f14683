package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"medibook-console/internal/apitest"
	"medibook-console/internal/logger"
	"medibook-console/internal/model"
)

type demoAccount struct {
	id, email, password, name string
	role                      model.Role
}

var demoAccounts = []demoAccount{
	{"admin", "admin@medibook.local", "admin123", "Site Admin", model.RoleAdmin},
	{"prov-bello", "bello@medibook.local", "provider123", "Dr. Bello", model.RoleProvider},
	{"pat-ada", "ada@medibook.local", "patient123", "Ada Obi", model.RolePatient},
}

func devServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Serve an in-memory booking API for local use",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			level, _ := cmd.Flags().GetString("log-level")
			secret, _ := cmd.Flags().GetString("secret")
			authRPS, _ := cmd.Flags().GetFloat64("auth-rps")
			authBurst, _ := cmd.Flags().GetInt("auth-burst")
			if secret == "" {
				secret = uuid.New().String()
			}

			log, err := logger.New(level, "", true)
			if err != nil {
				return err
			}
			defer log.Sync()

			api := apitest.New(secret, log)
			api.LimitAuth(authRPS, authBurst)
			for _, d := range demoAccounts {
				api.AddUser(d.id, d.email, d.password, d.name, d.role)
			}
			api.SetProviderInfo("prov-bello", "Cardiology", "Bello Heart Clinic")
			api.AddAppointment(uuid.New().String(), "pat-ada", "prov-bello",
				time.Now().Add(48*time.Hour).Truncate(time.Hour), string(model.StatusScheduled))

			r := chi.NewRouter()
			r.Mount("/api", api.Handler())
			srv := &http.Server{Addr: addr, Handler: r}

			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "booking API on http://localhost%s/api\n", addr)
			for _, d := range demoAccounts {
				fmt.Fprintf(out, "  %-8s %s / %s\n", d.role, d.email, d.password)
			}
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("addr", ":5000", "Listen address")
	cmd.Flags().String("secret", "", "Token signing secret (random when empty)")
	cmd.Flags().String("log-level", "info", "debug, info, warn or error")
	cmd.Flags().Float64("auth-rps", 5, "Login and register requests per second per address (0 disables)")
	cmd.Flags().Int("auth-burst", 10, "Burst allowed above auth-rps")
	return cmd
}
