package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// popularListenerThreshold marks an artist as popular once their Last.fm
// listener count crosses it.
const popularListenerThreshold = 100000

type Artist struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name            string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Description     string    `gorm:"size:4000" json:"description,omitempty"`
	LastFMURL       string    `gorm:"size:500" json:"lastfm_url,omitempty"`
	LastFMListeners int       `gorm:"default:0;index" json:"lastfm_listeners"`
	LastFMPlaycount int       `gorm:"default:0" json:"lastfm_playcount"`
	SpotifyID       string    `gorm:"size:64;index" json:"spotify_id,omitempty"`
	SpotifyURL      string    `gorm:"size:500" json:"spotify_url,omitempty"`
	ImageURL        string    `gorm:"size:500" json:"image_url,omitempty"`
	IsPopular       bool      `gorm:"default:false" json:"is_popular"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relations
	Genres []Genre `gorm:"many2many:artist_genres" json:"genres,omitempty"`
	Tracks []Track `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE" json:"tracks,omitempty"`
}

func (a *Artist) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// UpdatePopularity refreshes the popularity flag from the listener count.
func (a *Artist) UpdatePopularity() {
	a.IsPopular = a.LastFMListeners > popularListenerThreshold
}
