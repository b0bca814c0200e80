package database

import (
	"fmt"

	"github.com/Payphone-Digital/tracker/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Role{},
		&model.Organization{},
		&model.User{},
		&model.AuthEvent{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == DriverPostgres {
		return CreateIndexes(db)
	}
	return nil
}

// CreateIndexes adds postgres-only partial indexes gorm tags cannot express
func CreateIndexes(db *gorm.DB) error {
	indexes := []string{
		// Lockout sweeps and admin "locked accounts" views
		"CREATE INDEX IF NOT EXISTS idx_users_lockout_until ON users(lockout_until) WHERE lockout_until IS NOT NULL;",
		// Sessions that can still be refreshed
		"CREATE INDEX IF NOT EXISTS idx_users_refresh_expiry ON users(refresh_token_expires_at) WHERE refresh_token_hash IS NOT NULL;",
		// Audit trail is read newest first per account
		"CREATE INDEX IF NOT EXISTS idx_auth_events_user_created ON auth_events(user_id, created_at DESC);",
	}

	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
