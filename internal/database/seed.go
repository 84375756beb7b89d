// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"blognest/internal/logging"
)

// Default administrator created by Seed on an empty database.
const (
	SeedAdminUsername = "admin"
	SeedAdminEmail    = "admin@blognest.local"
)

// Seed creates the default admin user if no users exist. The admin is not
// enrolled in 2FA; they can set it up from /api/auth/2fa/setup.
func Seed(ctx context.Context, db *sql.DB, adminPassword string) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		logging.L().Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, role, email_verified, created_by)
		VALUES ($1, $2, $3, $4, 'ADMIN', TRUE, 'system')
		ON CONFLICT DO NOTHING
	`, SeedAdminUsername, SeedAdminEmail, string(hash), "Admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	logging.L().Info("database seeded with default admin user",
		zap.String("username", SeedAdminUsername),
		zap.String("email", SeedAdminEmail),
	)
	return nil
}
