// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"blognest/internal/cache"
	"blognest/internal/database"
	"blognest/internal/logging"
	"blognest/internal/notify"
	"blognest/internal/service"
	"blognest/internal/store"
)

// app holds the connections shared by the commands.
type app struct {
	db     *sql.DB
	valkey *redis.Client
}

// open connects to PostgreSQL and Valkey.
func open(ctx context.Context) (*app, error) {
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	vk, err := cache.ConnectValkey(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect valkey: %w", err)
	}
	return &app{db: db, valkey: vk}, nil
}

func (a *app) Close() {
	a.valkey.Close()
	a.db.Close()
}

// deps returns service dependencies that queue notifications in Valkey.
func (a *app) deps() service.Deps {
	return service.Deps{DB: a.db, Notifier: notify.NewRedisQueue(a.valkey)}
}

// mailer picks SMTP when configured and logging otherwise.
func mailer() notify.Mailer {
	if !cfg.MailEnabled() {
		logging.L().Warn("smtp not configured, emails will only be logged")
		return notify.LogMailer{}
	}
	return notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

// worker builds the notification email worker over the Valkey queue.
func (a *app) worker() *notify.Worker {
	return notify.NewWorker(
		notify.NewRedisQueue(a.valkey),
		store.NewUserStore(a.db),
		store.NewNotificationStore(a.db),
		mailer(),
		cfg.PublicURL,
	)
}

// sweep publishes due scheduled blogs and drops cached listings when any
// went live.
func sweep(blogs *service.Blogs, responses *cache.ResponseCache) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		published, err := blogs.Sweep(ctx)
		if err != nil {
			return err
		}
		if len(published) > 0 && responses != nil {
			responses.InvalidateAll(ctx)
		}
		return nil
	}
}

// cleanup runs the cleanup pass and logs its report.
func cleanup(c *service.Cleanup) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		r, err := c.Run(ctx)
		if err != nil {
			return err
		}
		logging.L().Debug("cleanup report", zap.Any("report", r))
		return nil
	}
}
