package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nexxacraft/community-admin/internal/auth"
	"github.com/nexxacraft/community-admin/internal/config"
	"github.com/nexxacraft/community-admin/internal/database"
	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/logging"
	"github.com/nexxacraft/community-admin/internal/repository"
	"github.com/nexxacraft/community-admin/internal/seed"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const programName = "adminctl"

var globalFlags = struct {
	debug bool
}{}

// env is what every subcommand needs, opened from the same environment the
// server reads.
type env struct {
	cfg   *config.Config
	db    *gorm.DB
	store *docstore.GormStore
}

func open() (*env, error) {
	cfg := config.Load()
	level := cfg.LogLevel
	if globalFlags.debug {
		level = "debug"
	}
	logging.Setup(level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	// Publish to Redis when configured so running servers see the writes.
	var broker docstore.Broker = docstore.NewMemoryBroker()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rb, err := docstore.NewRedisBrokerFromURL(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis unavailable, live screens will not see these writes", "error", err)
		} else {
			broker = rb
		}
	}
	return &env{cfg: cfg, db: db, store: docstore.NewGormStore(db, broker)}, nil
}

func (e *env) close() {
	_ = database.Close(e.db)
}

func createStaffCommand() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a staff account that can sign in to the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			svc := auth.NewService(e.db, e.cfg, auth.LogMailer{})
			account, err := svc.CreateAccount(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created staff account %s (%s)\n", account.Email, account.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "staff email address")
	cmd.Flags().StringVar(&password, "password", "", "initial password (at least 8 characters)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo approved users and reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			users := repository.NewUserRepository(e.store, e.cfg.UsersCollection)
			res, err := seed.Run(cmd.Context(), e.store, users, e.cfg.ReportsCollection, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d users and %d reports\n", res.UsersAdded, res.ReportsAdded)
			return nil
		},
	}
}

func normalizeStatusesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize-statuses",
		Short: "Rewrite stored report statuses to lowercase",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.close()

			reports := repository.NewReportRepository(e.store, e.cfg.ReportsCollection)
			n, err := reports.NormalizeStatuses(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "normalized %d reports\n", n)
			return nil
		},
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Operator tasks for the community admin dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.AddCommand(
		createStaffCommand(),
		seedCommand(),
		normalizeStatusesCommand(),
	)
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error(err.Error(), "component", programName)
		os.Exit(1)
	}
}
