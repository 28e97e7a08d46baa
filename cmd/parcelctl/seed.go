package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"urbaplan/internal/business/labels"
	"urbaplan/pkg/config"
	"urbaplan/pkg/infra/db"
	"urbaplan/pkg/logger"
)

func seedCmd(newLogger func() (logger.Logger, error)) *cobra.Command {
	var (
		configPath  string
		driver      string
		dsn         string
		labelsPath  string
		fixturePath string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load labels and reference data into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				if driver == "" {
					driver = cfg.Database.Driver
				}
				if dsn == "" {
					dsn = cfg.Database.DSN
				}
			}
			if driver == "" {
				driver = "mysql"
			}
			if labelsPath == "" && fixturePath == "" {
				return fmt.Errorf("nothing to seed: --labels or --fixture is required")
			}

			gdb, err := db.Open(driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close(gdb)
			if err := db.AutoMigrate(gdb); err != nil {
				return err
			}

			if fixturePath != "" {
				data, err := os.ReadFile(fixturePath)
				if err != nil {
					return fmt.Errorf("read fixture: %w", err)
				}
				f, err := db.ParseFixture(bytes.NewReader(data))
				if err != nil {
					return err
				}
				if err := db.LoadFixture(ctx, gdb, f); err != nil {
					return fmt.Errorf("load fixture: %w", err)
				}
				log.Infof(ctx, "[Seed] Fixture loaded: %d zones, %d rules, %d features", len(f.Zones), len(f.Rules), len(f.Features))
				fmt.Fprintf(cmd.OutOrStdout(), "fixture: %d zones, %d rules, %d features, %d labels\n",
					len(f.Zones), len(f.Rules), len(f.Features), len(f.Labels))
			}

			if labelsPath != "" {
				if err := seedLabels(ctx, gdb, labelsPath); err != nil {
					return err
				}
				n, err := db.NewLabelStore(gdb).LoadLabels(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "labels: %d entries in store\n", len(n))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file; database settings are taken from it")
	cmd.Flags().StringVar(&driver, "driver", "", "Database driver (mysql, sqlite)")
	cmd.Flags().StringVar(&dsn, "db", "", "Database DSN")
	cmd.Flags().StringVar(&labelsPath, "labels", "", "Label seed file (YAML)")
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "Reference data file (YAML): zones, rules, features, labels")
	return cmd
}

// seedLabels 从 YAML 种子文件写入标签
func seedLabels(ctx context.Context, gdb *gorm.DB, path string) error {
	entries, err := labels.YAMLFileRepository{Path: path}.LoadLabels(ctx)
	if err != nil {
		return err
	}
	return db.NewLabelStore(gdb).SaveLabels(ctx, entries)
}
