// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blognest/internal/auth"
	"blognest/internal/cache"
	"blognest/internal/database"
	"blognest/internal/handlers"
	"blognest/internal/logging"
	"blognest/internal/middleware"
	"blognest/internal/router"
	"blognest/internal/scheduler"
	"blognest/internal/service"
	"blognest/internal/store"
)

var (
	serveMigrate bool
	serveJobs    bool
	serveWorker  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until SIGINT or SIGTERM.

By default the server also applies pending migrations, runs the scheduled
publish sweep and the cleanup job, and delivers notification emails
in-process. Disable the latter two when they run as separate processes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply pending migrations on startup")
	serveCmd.Flags().BoolVar(&serveJobs, "jobs", true, "run the publish sweep and cleanup jobs")
	serveCmd.Flags().BoolVar(&serveWorker, "worker", true, "deliver notification emails in-process")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	log := logging.L()
	log.Info("configuration loaded", zap.String("env", cfg.Env), zap.String("addr", cfg.Addr()))

	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveMigrate {
		if err := database.Migrate(ctx, a.db); err != nil {
			return err
		}
	}
	// Seed the first admin account (no-op if users already exist).
	if err := database.Seed(ctx, a.db, cfg.AdminPassword); err != nil {
		return err
	}

	deps := a.deps()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL, nil)
	deny := auth.NewRedisDenylist(a.valkey)

	userStore := store.NewUserStore(a.db)
	blogStore := store.NewBlogStore(a.db)
	likeStore := store.NewLikeStore(a.db)
	commentStore := store.NewCommentStore(a.db)

	usersSvc := service.NewUsers(deps, tokens, deny)
	blogsSvc := service.NewBlogs(deps)
	likesSvc := service.NewLikes(deps)
	commentsSvc := service.NewComments(deps)
	commentsSvc.RequireApproval = cfg.RequireCommentApproval

	authn := middleware.NewAuthenticator(tokens, deny, userStore, 1024, 30*time.Second)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, 10)
	defer limiter.Stop()
	responses := cache.NewResponseCache(a.valkey, cfg.ResponseCacheTTL)

	blogs := handlers.NewBlogs(blogsSvc, likesSvc, blogStore, likeStore, nil)
	h := router.Handlers{
		Auth:          handlers.NewAuth(usersSvc, userStore),
		Blogs:         blogs,
		Comments:      handlers.NewComments(commentsSvc, blogsSvc, likesSvc, commentStore, likeStore, nil),
		Taxonomy:      handlers.NewTaxonomy(service.NewTaxonomy(deps), store.NewCategoryStore(a.db), store.NewTagStore(a.db), blogs),
		Users:         handlers.NewUsers(usersSvc, userStore, store.NewFollowStore(a.db), commentStore, blogs, authn),
		Notifications: handlers.NewNotifications(store.NewNotificationStore(a.db)),
	}

	if serveJobs {
		jobs := scheduler.New(
			scheduler.Job{Name: "publish-sweep", Every: cfg.SweepInterval, RunAtStart: true, Run: sweep(blogsSvc, responses)},
			scheduler.Job{Name: "cleanup", Every: cfg.CleanupInterval, Run: cleanup(service.NewCleanup(deps))},
		)
		jobs.Start(ctx)
		defer jobs.Stop()
	}

	workerDone := make(chan struct{})
	if serveWorker {
		go func() {
			defer close(workerDone)
			a.worker().Run(ctx)
		}()
	} else {
		close(workerDone)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.New(h, authn, limiter, responses),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-workerDone
	log.Info("server stopped gracefully")
	return nil
}
