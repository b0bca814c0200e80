package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Payphone-Digital/tracker/internal/model"
	"github.com/Payphone-Digital/tracker/pkg/database"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "tracker.db")), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createTestUser(t *testing.T, repo *UserRepository, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "hash",
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("Create(%s) returned error: %v", email, err)
	}
	return user
}

func TestUserRepository_UpdateLeavesRefreshColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	user := createTestUser(t, repo, "ada@example.com")

	oldHash := "old-hash"
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := repo.UpdateRefreshToken(ctx, user.ID, &oldHash, &expires); err != nil {
		t.Fatalf("UpdateRefreshToken returned error: %v", err)
	}

	stale, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}

	ok, err := repo.SwapRefreshToken(ctx, user.ID, oldHash, "new-hash", expires.Add(time.Hour))
	if err != nil || !ok {
		t.Fatalf("SwapRefreshToken = %v, %v; want true, nil", ok, err)
	}

	// Write back the copy loaded before the rotation
	stale.FailedAccessCount = 3
	stale.FirstName = "Ada"
	if err := repo.Update(ctx, stale); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.FailedAccessCount != 3 || got.FirstName != "Ada" {
		t.Errorf("profile columns not written: count=%d first_name=%q", got.FailedAccessCount, got.FirstName)
	}
	if got.RefreshTokenHash == nil || *got.RefreshTokenHash != "new-hash" {
		t.Errorf("refresh hash = %v, want new-hash", got.RefreshTokenHash)
	}
}

func TestUserRepository_UpdateZeroValues(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	user := createTestUser(t, repo, "bob@example.com")

	until := time.Now().Add(15 * time.Minute)
	user.FailedAccessCount = 4
	user.LockoutUntil = &until
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	user.FailedAccessCount = 0
	user.LockoutUntil = nil
	user.IsActive = false
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got.FailedAccessCount != 0 || got.LockoutUntil != nil || got.IsActive {
		t.Errorf("zero values not persisted: count=%d until=%v active=%v", got.FailedAccessCount, got.LockoutUntil, got.IsActive)
	}
}

func TestUserRepository_Update_UnknownUser(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	err := repo.Update(context.Background(), &model.User{Base: model.Base{ID: "missing"}, FirstName: "x"})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUserRepository_SwapRefreshToken(t *testing.T) {
	tests := []struct {
		name     string
		stored   *string
		oldHash  string
		wantOK   bool
		wantHash *string
	}{
		{"current hash rotates", strPtr("h1"), "h1", true, strPtr("h2")},
		{"stale hash loses", strPtr("h1"), "h0", false, strPtr("h1")},
		{"revoked session", nil, "h1", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewUserRepository(newTestDB(t))
			user := createTestUser(t, repo, "carol@example.com")

			expires := time.Now().Add(time.Hour)
			if err := repo.UpdateRefreshToken(ctx, user.ID, tt.stored, &expires); err != nil {
				t.Fatalf("UpdateRefreshToken returned error: %v", err)
			}

			ok, err := repo.SwapRefreshToken(ctx, user.ID, tt.oldHash, "h2", expires.Add(time.Hour))
			if err != nil {
				t.Fatalf("SwapRefreshToken returned error: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("SwapRefreshToken = %v, want %v", ok, tt.wantOK)
			}

			got, err := repo.GetByID(ctx, user.ID)
			if err != nil {
				t.Fatalf("GetByID returned error: %v", err)
			}
			switch {
			case tt.wantHash == nil && got.RefreshTokenHash != nil:
				t.Errorf("refresh hash = %q, want none", *got.RefreshTokenHash)
			case tt.wantHash != nil && (got.RefreshTokenHash == nil || *got.RefreshTokenHash != *tt.wantHash):
				t.Errorf("refresh hash = %v, want %q", got.RefreshTokenHash, *tt.wantHash)
			}
		})
	}
}

func TestUserRepository_HardDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, repo, "dave@example.com")

	role := &model.Role{Name: "Client"}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("failed to create role: %v", err)
	}
	if err := repo.AddRole(ctx, user, role); err != nil {
		t.Fatalf("AddRole returned error: %v", err)
	}
	org := &model.Organization{Name: "Acme", IsActive: true}
	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create organization: %v", err)
	}
	if err := db.Model(user).Association("Organizations").Append(org); err != nil {
		t.Fatalf("failed to join organization: %v", err)
	}

	if err := repo.HardDelete(ctx, user.ID); err != nil {
		t.Fatalf("HardDelete returned error: %v", err)
	}

	counts := []struct {
		table string
		query string
	}{
		{"users", "SELECT COUNT(*) FROM users WHERE id = ?"},
		{"user_roles", "SELECT COUNT(*) FROM user_roles WHERE user_id = ?"},
		{"user_organizations", "SELECT COUNT(*) FROM user_organizations WHERE user_id = ?"},
	}
	for _, c := range counts {
		var n int64
		if err := db.Raw(c.query, user.ID).Scan(&n).Error; err != nil {
			t.Fatalf("count %s: %v", c.table, err)
		}
		if n != 0 {
			t.Errorf("%s still holds %d rows for the deleted user", c.table, n)
		}
	}

	var roles int64
	db.Model(&model.Role{}).Count(&roles)
	if roles != 1 {
		t.Errorf("role row must survive, got %d", roles)
	}

	if err := repo.HardDelete(ctx, user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second HardDelete: expected ErrRecordNotFound, got %v", err)
	}
}

func strPtr(s string) *string { return &s }
