package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Genre is a music genre derived from a Last.fm tag or created by an admin.
// Genres are never hard-deleted in normal flow.
type Genre struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:2000" json:"description,omitempty"`
	LastFMTag   string    `gorm:"size:100" json:"lastfm_tag,omitempty"`
	LastFMURL   string    `gorm:"size:500" json:"lastfm_url,omitempty"`
	TrackCount  int       `gorm:"default:0" json:"track_count"`
	IsPopular   bool      `gorm:"default:false" json:"is_popular"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Artists []Artist `gorm:"many2many:artist_genres" json:"artists,omitempty"`
}

func (g *Genre) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// BeforeSave defaults the Last.fm tag to the lowercased genre name.
func (g *Genre) BeforeSave(tx *gorm.DB) error {
	if g.LastFMTag == "" {
		g.LastFMTag = strings.ToLower(g.Name)
	}
	return nil
}
