package database

import (
	"errors"

	"github.com/Payphone-Digital/tracker/internal/constants"
	"github.com/Payphone-Digital/tracker/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAdmin defines the bootstrap admin account
type DefaultAdmin struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// SeedRoles lists every role the authorization check knows about
var SeedRoles = []string{
	constants.RoleAdmin,
	constants.RoleManager,
	constants.RoleOrganizationAdmin,
	constants.RoleOrganizationUser,
	constants.RoleUser,
	constants.RoleClient,
}

// Seed creates initial roles and, when a password is given, the admin account
func Seed(db *gorm.DB, admin DefaultAdmin) error {
	if err := SeedRoleNames(db, SeedRoles...); err != nil {
		return err
	}
	if admin.Password == "" {
		return nil
	}
	return SeedAdmin(db, admin)
}

// SeedRoleNames inserts missing roles by name
func SeedRoleNames(db *gorm.DB, names ...string) error {
	for _, name := range names {
		role := model.Role{Name: name}
		if err := db.Where(model.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedAdmin creates the admin user if not exists
func SeedAdmin(db *gorm.DB, admin DefaultAdmin) error {
	// Check if admin user already exists
	var existingUser model.User
	result := db.Where("email = ?", admin.Email).First(&existingUser)
	if result.Error == nil {
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var role model.Role
	if err := db.Where("name = ?", constants.RoleAdmin).First(&role).Error; err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		user := model.User{
			FirstName:    admin.FirstName,
			LastName:     admin.LastName,
			Email:        admin.Email,
			PasswordHash: string(hashedPassword),
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Roles").Append(&role)
	})
}
