package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite item types. One table serves all three bookmark kinds.
const (
	FavoriteGenre  = "genre"
	FavoriteTrack  = "track"
	FavoriteArtist = "artist"
)

type Favorite struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_item" json:"user_id"`
	ItemType string    `gorm:"size:20;not null;uniqueIndex:idx_favorites_user_item" json:"item_type"`
	ItemID   string    `gorm:"size:255;not null;uniqueIndex:idx_favorites_user_item" json:"item_id"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
