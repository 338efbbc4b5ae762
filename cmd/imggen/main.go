package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/imggen/internal/auth"
	"github.com/dharsanguruparan/imggen/internal/config"
	"github.com/dharsanguruparan/imggen/internal/database"
	"github.com/dharsanguruparan/imggen/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "imggen: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imggen",
		Short: "imggen upload service development CLI",
		Long: `imggen CLI helps with local development of the upload service: minting bearer
tokens for test users, checking database connectivity, and launching the binaries directly.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newTokenCmd(),
		newDBCheckCmd(),
		newRunCmd(),
	)
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
		secret string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed bearer token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("TOKEN_SECRET_KEY")
			}
			if secret == "" {
				return config.ErrMissingTokenSecret
			}
			token, err := auth.GenerateToken(userID, []byte(secret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id to place in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime, 0 for no expiry")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to TOKEN_SECRET_KEY)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newDBCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db-check",
		Short: "Connect to POSTGRES_URL with the configured pool options",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, "text", cmd.ErrOrStderr())
			pool, err := database.Connect(ctx, cfg.DatabaseURL, database.Options{
				MaxConns:       cfg.DBMaxConns,
				IdleTimeout:    cfg.DBIdleTimeout,
				ConnectTimeout: cfg.DBConnectTimeout,
			}, logger)
			if err != nil {
				return err
			}
			pool.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database reachable")
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run individual Go binaries directly",
	}
	cmd.AddCommand(
		newServiceRunner("server", "./cmd/server"),
		newServiceRunner("worker", "./cmd/worker"),
	)
	return cmd
}

func newServiceRunner(name, path string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("go run %s", path),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			goArgs := []string{"run", path}
			goArgs = append(goArgs, args...)
			return runCommand(ctx, "go", goArgs...)
		},
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	execCmd := exec.CommandContext(ctx, name, args...)
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin
	return execCmd.Run()
}
