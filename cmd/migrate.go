package cmd

import (
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/config"
	"github.com/SAP-F-2025/adaptive-assessment-service/internal/utils"
	"github.com/SAP-F-2025/adaptive-assessment-service/pkg"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger := utils.NewLogger(cfg.Environment)

		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := pkg.Migrate(db); err != nil {
			return err
		}
		logger.Info("Database migrated", "driver", cfg.DBDriver)
		return nil
	},
}
