package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genrefy/backend/internal/models"
	"github.com/genrefy/backend/pkg/validation"
)

// UserService manages profiles and per-item favorites.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetProfile loads a user's profile with favorite genres.
func (s *UserService) GetProfile(userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.Preload("FavoriteGenres").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile not found")
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile updates the editable profile fields.
func (s *UserService) UpdateProfile(userID uuid.UUID, bio, avatarURL, lastfmUsername string) (*models.UserProfile, error) {
	profile, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	profile.Bio = validation.SanitizeString(bio)
	profile.AvatarURL = validation.SanitizeString(avatarURL)
	profile.LastFMUsername = validation.SanitizeString(lastfmUsername)

	if err := s.db.Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// AddFavorite bookmarks an item for the user. Adding the same item twice
// is a no-op that returns the existing favorite.
func (s *UserService) AddFavorite(userID uuid.UUID, itemType, itemID string) (*models.Favorite, error) {
	switch itemType {
	case models.FavoriteGenre, models.FavoriteTrack, models.FavoriteArtist:
	default:
		return nil, fmt.Errorf("unknown favorite type %q", itemType)
	}
	if itemID == "" {
		return nil, errors.New("item id is required")
	}

	favorite := models.Favorite{
		UserID:   userID,
		ItemType: itemType,
		ItemID:   itemID,
	}
	err := s.db.Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).
		FirstOrCreate(&favorite).Error
	if err != nil {
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}
	return &favorite, nil
}

// RemoveFavorite deletes one bookmark.
func (s *UserService) RemoveFavorite(userID uuid.UUID, itemType, itemID string) error {
	result := s.db.Where("user_id = ? AND item_type = ? AND item_id = ?", userID, itemType, itemID).
		Delete(&models.Favorite{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove favorite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("favorite not found")
	}
	return nil
}

// ListFavorites returns the user's bookmarks, optionally filtered by type.
func (s *UserService) ListFavorites(userID uuid.UUID, itemType string) ([]models.Favorite, error) {
	query := s.db.Where("user_id = ?", userID)
	if itemType != "" {
		query = query.Where("item_type = ?", itemType)
	}

	var favorites []models.Favorite
	if err := query.Order("created_at DESC").Find(&favorites).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}
