package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mediavault/portal/internal/app"
	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/service"
	"github.com/mediavault/portal/internal/infrastructure/profile"
	"github.com/mediavault/portal/internal/pkg/config"
	"github.com/mediavault/portal/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	exitRateLimited = 2
)

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

type globalFlags struct {
	profilePath string
	backendURL  string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "portal",
		Short:         "MediaVault portal server and command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.profilePath, "profile", "", "profile file (default: user config dir)")
	root.PersistentFlags().StringVar(&g.backendURL, "backend", "", "backend base URL (overrides BACKEND_URL and the profile)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newWhoamiCmd(&g))
	root.AddCommand(newLoginCmd(&g))
	root.AddCommand(newLogoutCmd(&g))
	return root
}

func loadConfig(ctx context.Context, stderr io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Output:  stderr,
		Service: "mediavault-portal",
	})
	return cfg, log, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the portal HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, log, err := loadConfig(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}

			srvLog := logger.Component("server")
			errCh := make(chan error, 1)
			go func() {
				srvLog.Info().Str("port", cfg.Port).Str("backend", cfg.Backend.URL).Msg("portal listening")
				if err := a.Echo.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					_ = a.Close(context.Background())
					return fmt.Errorf("server: %w", err)
				}
			case <-ctx.Done():
				srvLog.Info().Msg("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.Echo.Shutdown(shutdownCtx); err != nil {
				srvLog.Error().Err(err).Msg("graceful shutdown failed")
			}
			return a.Close(shutdownCtx)
		},
	}
}

// session is one CLI invocation's visitor, loaded from and saved back to the
// profile file.
type session struct {
	path    string
	profile *profile.Profile
	local   *app.Local
	state   *service.SessionState
}

func openSession(cmd *cobra.Command, g *globalFlags) (*session, error) {
	cfg, log, err := loadConfig(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	path := g.profilePath
	if path == "" {
		if path, err = profile.DefaultPath(); err != nil {
			return nil, err
		}
	}
	p, err := profile.Load(path)
	if err != nil {
		return nil, err
	}

	backendURL := cfg.Backend.URL
	switch {
	case g.backendURL != "":
		backendURL = g.backendURL
	case p.Backend != "":
		backendURL = p.Backend
	}
	p.Backend = backendURL

	local, err := app.NewLocal(cfg, backendURL, log)
	if err != nil {
		return nil, err
	}
	return &session{
		path:    path,
		profile: p,
		local:   local,
		state:   service.NewSessionState(p.Visitor()),
	}, nil
}

// finish prints pending notifications and persists the credentials.
func (s *session) finish(cmd *cobra.Command) error {
	items, _ := s.local.Notifier.Drain(cmd.Context(), s.state.ID())
	for _, n := range items {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", n.Level, n.Message)
	}
	s.profile.Update(s.state.Visitor(), time.Now())
	return profile.Save(s.path, s.profile)
}

func printSession(w io.Writer, sess domain.Session) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sess)
}

func newWhoamiCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Run a session bootstrap with the saved credentials and print the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, g)
			if err != nil {
				return err
			}

			out := s.local.Sessions.Bootstrap(cmd.Context(), s.state)
			if err := s.finish(cmd); err != nil {
				return err
			}
			if out.State == domain.StateRateLimited {
				return &exitError{code: exitRateLimited, msg: "rate limited by the backend, try again later"}
			}
			return printSession(cmd.OutOrStdout(), out.Session)
		},
	}
}

func newLoginCmd(g *globalFlags) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("PORTAL_PASSWORD")
			}

			s, err := openSession(cmd, g)
			if err != nil {
				return err
			}

			out, loginErr := s.local.Sessions.Login(cmd.Context(), s.state, email, password)
			if err := s.finish(cmd); err != nil {
				return err
			}
			if errors.Is(loginErr, domain.ErrRateLimited) {
				return &exitError{code: exitRateLimited, msg: "rate limited by the backend, try again later"}
			}
			if loginErr != nil {
				return fmt.Errorf("login: %s", domain.MessageOf(loginErr))
			}
			return printSession(cmd.OutOrStdout(), out.Session)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or PORTAL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, g)
			if err != nil {
				return err
			}
			s.local.Sessions.Logout(cmd.Context(), s.state)
			return s.finish(cmd)
		},
	}
}
