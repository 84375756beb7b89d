// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"blognest/internal/logging"
	"blognest/internal/store"
)

// ReadNotificationRetention is how long read notifications are kept.
const ReadNotificationRetention = 90 * 24 * time.Hour

// recountAttempts bounds how often a recount interrupted by live writes is
// started over before the run gives up until the next interval.
const recountAttempts = 5

// Cleanup removes dangling rows and repairs counter drift.
type Cleanup struct {
	base
}

// NewCleanup wires the cleanup job.
func NewCleanup(d Deps) *Cleanup {
	return &Cleanup{base: newBase(d)}
}

// CleanupReport summarizes one run.
type CleanupReport struct {
	OrphanedLikes        int64            `json:"orphaned_likes"`
	Recounted            map[string]int64 `json:"recounted"`
	ExpiredNotifications int64            `json:"expired_notifications"`
}

// Run deletes likes on archived blogs and deleted comments, rebuilds every
// counter from its edge rows, and purges old read notifications.
func (s *Cleanup) Run(ctx context.Context) (*CleanupReport, error) {
	var r CleanupReport
	err := store.RetryTx(ctx, s.db, store.RecountIsolation, recountAttempts, func(tx *sql.Tx) error {
		var err error
		if r.OrphanedLikes, err = store.NewLikeStore(tx).DeleteOrphaned(ctx); err != nil {
			return err
		}
		r.Recounted, err = store.Recount(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	cutoff := s.clock.Now().Add(-ReadNotificationRetention)
	if r.ExpiredNotifications, err = store.NewNotificationStore(s.db).DeleteReadBefore(ctx, cutoff); err != nil {
		return nil, err
	}

	var fixed int64
	for _, n := range r.Recounted {
		fixed += n
	}
	logging.L().Info("cleanup finished",
		zap.Int64("orphaned_likes", r.OrphanedLikes),
		zap.Int64("counters_fixed", fixed),
		zap.Int64("expired_notifications", r.ExpiredNotifications),
	)
	return &r, nil
}
