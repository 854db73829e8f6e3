package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kpsahani/Contest-Participation-System/internal/config"
	"github.com/kpsahani/Contest-Participation-System/pkg/database"
)

// NewMigrateCmd управляет миграциями схемы
func NewMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
			if err != nil {
				return err
			}
			if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be positive")
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
			if err != nil {
				return err
			}
			if err := database.RollbackDB(db, cfg.Database.MigrationsPath, steps); err != nil {
				return err
			}
			cmd.Printf("rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), false)
			if err != nil {
				return err
			}
			version, dirty, err := database.MigrationVersion(db, cfg.Database.MigrationsPath)
			if err != nil {
				return err
			}
			cmd.Printf("version=%d dirty=%t\n", version, dirty)
			return nil
		},
	})
	return cmd
}
