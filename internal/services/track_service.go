package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/models"
)

// TrackService imports and serves tracks sourced from Spotify.
type TrackService struct {
	db      *gorm.DB
	cfg     *config.Config
	spotify *SpotifyService
}

func NewTrackService(db *gorm.DB, cfg *config.Config, spotify *SpotifyService) *TrackService {
	return &TrackService{
		db:      db,
		cfg:     cfg,
		spotify: spotify,
	}
}

// AddTrackFromSpotify imports a track by Spotify URL, URI, or bare id
// and files it under the given genre. An already imported track is
// returned as-is with a message saying so.
func (s *TrackService) AddTrackFromSpotify(trackURL, genreName string) (*models.Track, string, error) {
	trackID := s.spotify.ExtractTrackID(trackURL)
	if trackID == "" {
		return nil, "", fmt.Errorf("could not extract a track ID from %q", trackURL)
	}

	var existing models.Track
	err := s.db.Preload("Artist").Where("spotify_id = ?", trackID).First(&existing).Error
	if err == nil {
		return &existing, "track already in catalog", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to look up track: %w", err)
	}

	bundle, ok := s.spotify.GetTrackFullInfo(trackID)
	if !ok {
		return nil, "", fmt.Errorf("track %s not found on Spotify", trackID)
	}

	artist, err := s.getOrCreateArtistFromSpotify(bundle, genreName)
	if err != nil {
		return nil, "", err
	}

	track := models.Track{
		Title:      jsonString(bundle.Track, "name"),
		ArtistID:   artist.ID,
		SpotifyID:  trackID,
		SpotifyURL: jsonString(jsonMap(bundle.Track, "external_urls"), "spotify"),
		PreviewURL: jsonString(bundle.Track, "preview_url"),
		Duration:   jsonInt(bundle.Track, "duration_ms") / 1000,
		Popularity: jsonInt(bundle.Track, "popularity"),
	}

	if album := jsonMap(bundle.Track, "album"); album != nil {
		track.Album = jsonString(album, "name")
		if images, ok := album["images"].([]interface{}); ok && len(images) > 0 {
			if img, ok := images[0].(map[string]interface{}); ok {
				track.ImageURL = jsonString(img, "url")
			}
		}
	}

	if bundle.AudioFeatures != nil {
		track.AudioFeatures = models.JSONMap(bundle.AudioFeatures)
	}

	err = s.db.Where("title = ? AND artist_id = ?", track.Title, artist.ID).
		FirstOrCreate(&track).Error
	if err != nil {
		return nil, "", fmt.Errorf("failed to create track: %w", err)
	}

	track.Artist = artist
	return &track, "track imported from Spotify", nil
}

// SearchTracksInSpotify searches Spotify without writing anything.
func (s *TrackService) SearchTracksInSpotify(query string, limit int) ([]map[string]interface{}, error) {
	result, ok := s.spotify.SearchTrack(query, limit)
	if !ok {
		return nil, fmt.Errorf("Spotify search failed")
	}

	items := nestedList(result, "tracks", "items")
	tracks := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if track, ok := item.(map[string]interface{}); ok {
			tracks = append(tracks, track)
		}
	}
	return tracks, nil
}

// GetTrackDetails loads a stored track with its artist.
func (s *TrackService) GetTrackDetails(trackID uuid.UUID) (*models.Track, error) {
	var track models.Track
	err := s.db.Preload("Artist").Preload("Artist.Genres").First(&track, "id = ?", trackID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("track not found")
		}
		return nil, fmt.Errorf("failed to load track: %w", err)
	}
	return &track, nil
}

// GetTrackBySpotifyID loads a stored track by its Spotify id.
func (s *TrackService) GetTrackBySpotifyID(spotifyID string) (*models.Track, error) {
	var track models.Track
	err := s.db.Preload("Artist").Where("spotify_id = ?", spotifyID).First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("track not found")
		}
		return nil, fmt.Errorf("failed to load track: %w", err)
	}
	return &track, nil
}

// GetTracksByGenre lists tracks whose artist belongs to the genre,
// ordered by Spotify popularity.
func (s *TrackService) GetTracksByGenre(genreID uuid.UUID, limit int) ([]models.Track, error) {
	var tracks []models.Track
	err := s.db.Preload("Artist").
		Joins("JOIN artist_genres ag ON ag.artist_id = tracks.artist_id").
		Where("ag.genre_id = ?", genreID).
		Order("popularity DESC").
		Limit(limit).
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load genre tracks: %w", err)
	}
	return tracks, nil
}

// getOrCreateArtistFromSpotify resolves the bundle's primary artist in
// the catalog and links it to the target genre.
func (s *TrackService) getOrCreateArtistFromSpotify(bundle *SpotifyTrackBundle, genreName string) (*models.Artist, error) {
	name := jsonString(bundle.Artist, "name")
	if name == "" {
		if artists, ok := bundle.Track["artists"].([]interface{}); ok && len(artists) > 0 {
			if first, ok := artists[0].(map[string]interface{}); ok {
				name = jsonString(first, "name")
			}
		}
	}
	if name == "" {
		return nil, fmt.Errorf("track has no artist name")
	}

	artist := models.Artist{Name: name}
	if err := s.db.Where("name = ?", name).FirstOrCreate(&artist).Error; err != nil {
		return nil, fmt.Errorf("failed to create artist: %w", err)
	}

	if bundle.Artist != nil {
		updates := map[string]interface{}{}
		if id := jsonString(bundle.Artist, "id"); id != "" && artist.SpotifyID == "" {
			updates["spotify_id"] = id
		}
		if u := jsonString(jsonMap(bundle.Artist, "external_urls"), "spotify"); u != "" && artist.SpotifyURL == "" {
			updates["spotify_url"] = u
		}
		if artist.ImageURL == "" {
			if images, ok := bundle.Artist["images"].([]interface{}); ok && len(images) > 0 {
				if img, ok := images[0].(map[string]interface{}); ok {
					updates["image_url"] = jsonString(img, "url")
				}
			}
		}
		if len(updates) > 0 {
			if err := s.db.Model(&artist).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update artist: %w", err)
			}
		}
	}

	if genreName != "" {
		genre := models.Genre{Name: titleCase(genreName)}
		if err := s.db.Where("name = ?", genre.Name).FirstOrCreate(&genre).Error; err != nil {
			return nil, fmt.Errorf("failed to create genre: %w", err)
		}
		if err := s.db.Model(&artist).Association("Genres").Append(&genre); err != nil {
			return nil, fmt.Errorf("failed to link genre: %w", err)
		}
	}

	return &artist, nil
}
