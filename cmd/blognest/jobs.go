// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blognest/internal/cache"
	"blognest/internal/database"
	"blognest/internal/logging"
	"blognest/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		v, err := database.Version(ctx, db)
		if err != nil {
			return err
		}
		logging.L().Info("database is up to date", zap.Int64("version", v))
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Publish scheduled blogs that are due",
	Long: `Publish every SCHEDULED blog whose time has come, once.

Safe to run while a server is also sweeping: each blog is published by
exactly one of them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			return sweep(service.NewBlogs(a.deps()), cache.NewResponseCache(a.valkey, cfg.ResponseCacheTTL))(ctx)
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete orphaned likes, rebuild counters and purge old notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			report, err := service.NewCleanup(a.deps()).Run(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		})
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver queued notification emails until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return withApp(ctx, func(ctx context.Context, a *app) error {
			return a.worker().Run(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, sweepCmd, cleanupCmd, workerCmd)
}

// withApp opens the shared connections for the duration of fn.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
