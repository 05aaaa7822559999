package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Domenick1991/ticketqueue/config"
	"github.com/Domenick1991/ticketqueue/internal/bootstrap"
	"github.com/Domenick1991/ticketqueue/internal/middleware"
	"github.com/Domenick1991/ticketqueue/internal/service/admission"
	"github.com/Domenick1991/ticketqueue/internal/service/sweeper"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

// engine is what the commands drive.
type engine interface {
	Sweep(ctx context.Context) (sweeper.Result, error)
	AdmitBatch(ctx context.Context, eventID int64, count int, ttl time.Duration) ([]admission.Admission, error)
}

type builder func(ctx context.Context, cfg *config.Config) (engine, func(), error)

type deps struct {
	*bootstrap.Deps
}

func (d deps) Sweep(ctx context.Context) (sweeper.Result, error) {
	return d.Sweeper.Sweep(ctx)
}

func (d deps) AdmitBatch(ctx context.Context, eventID int64, count int, ttl time.Duration) ([]admission.Admission, error) {
	return d.Admission.AdmitBatch(ctx, eventID, count, ttl)
}

func buildFromConfig(ctx context.Context, cfg *config.Config) (engine, func(), error) {
	d, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return deps{d}, d.Close, nil
}

func newRootCommand(build builder) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "queuectl",
		Short:         "Operate the ticket queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config.yaml"
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfig, "path to config.yaml")

	cmd.AddCommand(newSweepCommand(opts, build))
	cmd.AddCommand(newAdmitCommand(opts, build))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func withEngine(cmd *cobra.Command, opts *rootOptions, build builder, fn func(ctx context.Context, e engine) error) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, closeFn, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, e)
}

func newSweepCommand(opts *rootOptions, build builder) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Release lapsed reservations once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, opts, build, func(ctx context.Context, e engine) error {
				res, err := e.Sweep(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

type admitted struct {
	UserID        int64     `json:"user_id"`
	ReservationID int64     `json:"reservation_id"`
	Token         string    `json:"admission_token"`
	TTLUntil      time.Time `json:"ttl_until"`
}

func newAdmitCommand(opts *rootOptions, build builder) *cobra.Command {
	var (
		eventID int64
		count   int
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admit",
		Short: "Admit the next users of an event's waitlist",
		Example: `  queuectl admit --event 42 --count 100
  queuectl admit --event 42 --count 10 --ttl 5m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventID <= 0 {
				return fmt.Errorf("--event must be positive")
			}
			return withEngine(cmd, opts, build, func(ctx context.Context, e engine) error {
				list, err := e.AdmitBatch(ctx, eventID, count, ttl)
				if err != nil {
					return err
				}
				out := make([]admitted, 0, len(list))
				for _, a := range list {
					row := admitted{UserID: a.Entry.UserID, ReservationID: a.Reservation.ID, Token: a.Token}
					if a.Entry.TTLUntil != nil {
						row.TTLUntil = *a.Entry.TTLUntil
					}
					out = append(out, row)
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().Int64Var(&eventID, "event", 0, "event id (required)")
	cmd.Flags().IntVar(&count, "count", admission.DefaultBatchCount, "number of users to admit")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "hold duration, defaults to the configured lease")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret is not set")
			}
			signed, err := middleware.Sign(cfg.Auth.JWTSecret, userID, role, jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return err
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id (required)")
	cmd.Flags().StringVar(&role, "role", "", "role claim, e.g. admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
