// Package main provides authctl, the operator CLI for the auth service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/commerce-auth/internal/auth"
	"github.com/spec-kit/commerce-auth/internal/config"
	"github.com/spec-kit/commerce-auth/internal/observability"
	"github.com/spec-kit/commerce-auth/internal/persistence"
	"github.com/spec-kit/commerce-auth/internal/repository"
	"github.com/spec-kit/commerce-auth/internal/service"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "authctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Operate the commerce auth service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(
		migrateCmd(&logLevel),
		createUserCmd(&logLevel),
		hashPasswordCmd(),
		issueTokenCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func migrateCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap(*logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			return persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger)
		},
	}
}

func createUserCmd(logLevel *string) *cobra.Command {
	var email, password, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register an account directly against the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("AUTHCTL_PASSWORD")
			}
			cfg, logger, err := bootstrap(*logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			svc, err := service.NewAuthService(*cfg, service.AuthDependencies{
				Credentials: repository.NewCredentialRepository(pg.PoolHandle()),
				Logger:      logger,
			})
			if err != nil {
				return err
			}

			created, err := svc.Register(cmd.Context(), service.RegisterInput{Email: email, Password: password, Role: role})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", created.Email, created.Role, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (defaults to $AUTHCTL_PASSWORD)")
	cmd.Flags().StringVar(&role, "role", "", "Account role (defaults to AUTH_DEFAULT_ROLE)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt digest suitable for the users table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := auth.NewPasswordHasher(cost).Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func issueTokenCmd() *cobra.Command {
	var subject, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Mint an access token with the configured signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Auth.RoleAllowed(role) {
				return fmt.Errorf("role %q is not allowed", role)
			}
			tokens, err := auth.NewTokenManager(cfg.Auth)
			if err != nil {
				return err
			}
			issued, err := tokens.Issue(subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Token subject (account email)")
	cmd.Flags().StringVar(&role, "role", "user", "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func bootstrap(logLevel string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logger.Level = logLevel
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
