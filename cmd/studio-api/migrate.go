package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kreaite/studio-core/internal/config"
	"github.com/kreaite/studio-core/internal/store"
	"github.com/kreaite/studio-core/pkg/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Named("migrate").Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Named("migrate").Fatalf("initializing data store: %v", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			zap.S().Named("migrate").Fatalf("running initial migration: %v", err)
		}

		zap.S().Named("migrate").Info("db migrated")
		return nil
	},
}
