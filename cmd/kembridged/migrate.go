package main

import (
	"fmt"

	"github.com/kembridge/kembridge-core/internal/config"
	"github.com/kembridge/kembridge-core/pkg/auth"
	"github.com/kembridge/kembridge-core/pkg/keymanager"
	"github.com/kembridge/kembridge-core/pkg/swap"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the keymanager, swap, and auth tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return runMigrate(cfg)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("migrate: open database: %w", err)
	}

	nonceDB := db
	if cfg.NonceStoreURL != cfg.DatabaseURL {
		nonceDB, err = gorm.Open(postgres.Open(cfg.NonceStoreURL), &gorm.Config{})
		if err != nil {
			return fmt.Errorf("migrate: open nonce store: %w", err)
		}
	}

	if err := keymanager.NewGormStore(db).AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: keymanager: %w", err)
	}
	if err := swap.NewGormStore(db).AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: swap: %w", err)
	}
	if err := auth.NewGormUserStore(db).AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: auth users: %w", err)
	}
	if err := auth.NewGormNonceStore(nonceDB).AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: auth nonces: %w", err)
	}

	fmt.Println("migration complete")
	return nil
}
