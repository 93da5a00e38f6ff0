package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Track belongs to exactly one artist and is deleted with it.
// The (title, artist) pair is unique.
type Track struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string     `gorm:"size:200;not null;uniqueIndex:idx_tracks_title_artist" json:"title"`
	ArtistID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_tracks_title_artist" json:"artist_id"`
	LastFMURL       string     `gorm:"size:500" json:"lastfm_url,omitempty"`
	LastFMListeners int        `gorm:"default:0" json:"lastfm_listeners"`
	LastFMPlaycount int        `gorm:"default:0;index" json:"lastfm_playcount"`
	SpotifyID       string     `gorm:"size:64;index" json:"spotify_id,omitempty"`
	SpotifyURL      string     `gorm:"size:500" json:"spotify_url,omitempty"`
	PreviewURL      string     `gorm:"size:500" json:"preview_url,omitempty"`
	Duration        int        `gorm:"default:0" json:"duration"` // seconds
	Album           string     `gorm:"size:200" json:"album,omitempty"`
	ImageURL        string     `gorm:"size:500" json:"image_url,omitempty"`
	Popularity      int        `gorm:"default:0" json:"popularity"`
	Tags            StringList `gorm:"type:jsonb" json:"tags,omitempty"`
	LastFMData      JSONMap    `gorm:"type:jsonb" json:"lastfm_data,omitempty"`
	AudioFeatures   JSONMap    `gorm:"type:jsonb" json:"audio_features,omitempty"`
	IsReference     bool       `gorm:"default:false;index" json:"is_reference"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Relations
	Artist *Artist `gorm:"foreignKey:ArtistID" json:"artist,omitempty"`
}

func (t *Track) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// HasLastFMData reports whether any Last.fm counters were ever fetched.
func (t *Track) HasLastFMData() bool {
	return t.LastFMListeners > 0 || t.LastFMPlaycount > 0
}

// PopularityScore blends normalized playcount and listener counts.
// Both inputs are clamped to [0,1] before the 0.7/0.3 weighting; a track
// with either counter at zero scores 0.
func (t *Track) PopularityScore() float64 {
	if t.LastFMPlaycount <= 0 || t.LastFMListeners <= 0 {
		return 0.0
	}
	normalizedPlaycount := min(float64(t.LastFMPlaycount)/1000000.0, 1.0)
	normalizedListeners := min(float64(t.LastFMListeners)/500000.0, 1.0)
	return 0.7*normalizedPlaycount + 0.3*normalizedListeners
}

// FormattedDuration renders the duration as m:ss, or "unknown".
func (t *Track) FormattedDuration() string {
	if t.Duration <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d:%02d", t.Duration/60, t.Duration%60)
}
