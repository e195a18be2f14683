package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"medibook-console/internal/api"
	"medibook-console/internal/config"
	"medibook-console/internal/exceptions"
	"medibook-console/internal/handler"
	"medibook-console/internal/logger"
	"medibook-console/internal/middleware"
	"medibook-console/internal/model"
	"medibook-console/internal/session"
	"medibook-console/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, exceptions.Message(err, err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "medibook",
		Short:         "MediBook appointment console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(medicalInfoCmd())
	rootCmd.AddCommand(appointmentsCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(devServerCmd())
	return rootCmd
}

// app is the per-invocation wiring: config, logger, session store and the
// screen handler.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	store   store.Store
	session *session.Session
	h       *handler.Handler
	out     io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFile, cfg.IsDev())
	if err != nil {
		return nil, err
	}

	opts, err := cfg.StoreOptions()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, err
	}

	sess := session.New(st, log)
	errOut := cmd.ErrOrStderr()
	sess.OnExpire(func() { fmt.Fprintln(errOut, "Session expired. Please log in again.") })
	if err := sess.Init(ctx); err != nil {
		st.Close()
		return nil, err
	}

	var rl *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rl = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	client := api.NewClient(api.Options{
		BaseURL:   cfg.APIBaseURL,
		Transport: handler.NewTransport(http.DefaultTransport, sess, rl),
		Timeout:   cfg.RequestTimeout,
		Logger:    log,
	})

	return &app{
		cfg:     cfg,
		log:     log,
		store:   st,
		session: sess,
		h: handler.New(handler.Deps{
			Session:  sess,
			Client:   client,
			Location: loc,
			Logger:   log,
			Timeout:  cfg.RequestTimeout,
		}),
		out: cmd.OutOrStdout(),
	}, nil
}

func (a *app) Close() {
	a.log.Sync()
	a.store.Close()
}

// run wires an app for the command and hands it to fn.
func run(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd.Context(), a, args)
	}
}

func (a *app) table(cols []string, rows [][]string) {
	t := tablewriter.NewWriter(a.out)
	t.SetHeader(cols)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.AppendBulk(rows)
	t.Render()
}

// notice prints a screen message, if any.
func (a *app) notice(m *model.Message) {
	if m == nil {
		return
	}
	if m.Kind == model.MessageError {
		fmt.Fprintln(a.out, "error:", m.Text)
		return
	}
	fmt.Fprintln(a.out, m.Text)
}

func (a *app) kv(pairs ...string) {
	t := tablewriter.NewWriter(a.out)
	t.SetBorder(false)
	t.SetColumnSeparator("")
	t.SetAutoWrapText(false)
	for i := 0; i+1 < len(pairs); i += 2 {
		t.Append([]string{pairs[i], pairs[i+1]})
	}
	t.Render()
}
