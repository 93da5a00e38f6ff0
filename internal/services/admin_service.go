package services

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/models"
	"github.com/genrefy/backend/pkg/crypto"
)

type AdminService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAdminService(db *gorm.DB, cfg *config.Config) *AdminService {
	return &AdminService{db: db, cfg: cfg}
}

// CreateDefaultAdmin ensures the configured admin account exists.
func (s *AdminService) CreateDefaultAdmin() error {
	var existing models.User
	err := s.db.Where("username = ?", s.cfg.AdminUsername).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := crypto.HashPassword(s.cfg.AdminPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: s.cfg.AdminUsername,
		Email:    s.cfg.AdminEmail,
		Password: hashedPassword,
		Name:     "Administrator",
		IsAdmin:  true,
	}

	tx := s.db.Begin()
	if err := tx.Create(admin).Error; err != nil {
		tx.Rollback()
		return err
	}
	profile := &models.UserProfile{UserID: admin.ID}
	if err := tx.Create(profile).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}

	log.Printf("[Admin] created default admin user %s", s.cfg.AdminUsername)
	return nil
}

// ListUsers returns all users with profiles for the admin overview.
func (s *AdminService) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Preload("Profile").Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SetUserActive toggles a user's active flag.
func (s *AdminService) SetUserActive(username string, active bool) error {
	result := s.db.Model(&models.User{}).Where("username = ?", username).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}
	return nil
}
