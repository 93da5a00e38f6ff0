package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/models"
)

// GenreStatistics is one row of the aggregated genre overview.
type GenreStatistics struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	LastFMTag      string    `json:"lastfm_tag"`
	IsPopular      bool      `json:"is_popular"`
	ArtistCount    int       `json:"artist_count"`
	TrackCount     int       `json:"track_count"`
	TotalPlaycount int64     `json:"total_playcount"`
	TotalListeners int64     `json:"total_listeners"`
}

// GenreDetails bundles a genre with its catalog contents and the
// current Last.fm top tracks for its tag.
type GenreDetails struct {
	Genre     models.Genre     `json:"genre"`
	Artists   []models.Artist  `json:"artists"`
	TopTracks []models.Track   `json:"top_tracks"`
	LastFMTop []LastFMTagTrack `json:"lastfm_top_tracks,omitempty"`
}

// FavoritesOverview is a user's favorite genres plus recommendations
// drawn from those genres.
type FavoritesOverview struct {
	Genres             []models.Genre  `json:"genres"`
	RecommendedArtists []models.Artist `json:"recommended_artists"`
	RecommendedTracks  []models.Track  `json:"recommended_tracks"`
}

// CatalogService ties the local relational catalog to the Last.fm
// client. Lookups prefer the database and fall through to Last.fm,
// persisting whatever comes back.
type CatalogService struct {
	db     *gorm.DB
	cfg    *config.Config
	lastfm *LastFMService
}

func NewCatalogService(db *gorm.DB, cfg *config.Config, lastfm *LastFMService) *CatalogService {
	return &CatalogService{
		db:     db,
		cfg:    cfg,
		lastfm: lastfm,
	}
}

// GetGenreStatistics aggregates per-genre artist/track counts and
// playback totals, optionally filtered by a case-insensitive name
// match, ordered by total playcount.
func (s *CatalogService) GetGenreStatistics(search string, limit int) ([]GenreStatistics, error) {
	query := `
		SELECT g.id, g.name, g.last_fm_tag, g.is_popular,
		       COUNT(DISTINCT a.id) AS artist_count,
		       COUNT(DISTINCT t.id) AS track_count,
		       COALESCE(SUM(t.last_fm_playcount), 0) AS total_playcount,
		       COALESCE(SUM(t.last_fm_listeners), 0) AS total_listeners
		FROM genres g
		LEFT JOIN artist_genres ag ON ag.genre_id = g.id
		LEFT JOIN artists a ON a.id = ag.artist_id
		LEFT JOIN tracks t ON t.artist_id = a.id
		WHERE g.name ILIKE ?
		GROUP BY g.id, g.name, g.last_fm_tag, g.is_popular
		ORDER BY total_playcount DESC
		LIMIT ?`

	pattern := "%" + search + "%"
	if search == "" {
		pattern = "%"
	}

	var stats []GenreStatistics
	if err := s.db.Raw(query, pattern, limit).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate genre statistics: %w", err)
	}
	return stats, nil
}

// GetGenreWithDetails loads a genre with its artists and the most played
// tracks of those artists.
func (s *CatalogService) GetGenreWithDetails(genreID uuid.UUID, trackLimit int) (*GenreDetails, error) {
	var genre models.Genre
	if err := s.db.Preload("Artists").First(&genre, "id = ?", genreID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("genre not found")
		}
		return nil, fmt.Errorf("failed to load genre: %w", err)
	}

	artistIDs := make([]uuid.UUID, 0, len(genre.Artists))
	for _, a := range genre.Artists {
		artistIDs = append(artistIDs, a.ID)
	}

	var topTracks []models.Track
	if len(artistIDs) > 0 {
		if err := s.db.Preload("Artist").
			Where("artist_id IN ?", artistIDs).
			Order("last_fm_playcount DESC").
			Limit(trackLimit).
			Find(&topTracks).Error; err != nil {
			return nil, fmt.Errorf("failed to load genre tracks: %w", err)
		}
	}

	details := &GenreDetails{
		Genre:     genre,
		Artists:   genre.Artists,
		TopTracks: topTracks,
	}
	if s.lastfm != nil {
		details.LastFMTop = s.lastfm.GetTopTracksByTag(genre.LastFMTag, trackLimit)
	}
	return details, nil
}

// SearchInLastFM searches Last.fm without touching the local catalog.
// kind narrows the search to "track" or "artist"; anything else runs
// both.
func (s *CatalogService) SearchInLastFM(query, kind string, limit int) ([]LastFMTrackHit, []LastFMArtistHit) {
	var tracks []LastFMTrackHit
	var artists []LastFMArtistHit

	if kind != "artist" {
		tracks = s.lastfm.SearchTrack(query, "", limit)
	}
	if kind != "track" {
		artists = s.lastfm.SearchArtist(query, limit)
	}
	return tracks, artists
}

// GetOrCreateTrackFromLastFM resolves a track through the local catalog
// first, then through Last.fm. Created tracks carry their artist and up
// to the configured number of tag-derived genres.
func (s *CatalogService) GetOrCreateTrackFromLastFM(artistName, trackTitle string) (*models.Track, bool, error) {
	var existing models.Track
	err := s.db.Preload("Artist").
		Joins("JOIN artists ON artists.id = tracks.artist_id").
		Where("tracks.title = ? AND artists.name = ?", trackTitle, artistName).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up track: %w", err)
	}

	info, ok := s.lastfm.GetTrackInfo(artistName, trackTitle)
	if !ok {
		return nil, false, fmt.Errorf("track %q by %q not found on Last.fm", trackTitle, artistName)
	}

	artist, _, err := s.GetOrCreateArtistFromLastFM(info.Artist)
	if err != nil {
		return nil, false, err
	}

	track := models.Track{
		Title:           info.Name,
		ArtistID:        artist.ID,
		LastFMURL:       info.URL,
		LastFMListeners: info.Listeners,
		LastFMPlaycount: info.Playcount,
		Duration:        info.Duration,
		Album:           info.Album,
		ImageURL:        info.ImageURL,
		Tags:            models.StringList(info.Tags),
	}

	err = s.db.Where("title = ? AND artist_id = ?", track.Title, artist.ID).
		FirstOrCreate(&track).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to create track: %w", err)
	}

	if err := s.attachTagGenres(artist, info.Tags); err != nil {
		log.Printf("[Catalog] could not attach genres for %q: %v", info.Name, err)
	}

	track.Artist = artist
	return &track, true, nil
}

// GetOrCreateArtistFromLastFM resolves an artist by name, creating and
// enriching it from Last.fm when missing.
func (s *CatalogService) GetOrCreateArtistFromLastFM(name string) (*models.Artist, bool, error) {
	var artist models.Artist
	err := s.db.Where("name = ?", name).First(&artist).Error
	if err == nil {
		return &artist, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up artist: %w", err)
	}

	artist = models.Artist{Name: name}
	if info, ok := s.lastfm.GetArtistInfo(name); ok {
		artist.Name = info.Name
		artist.Description = info.Bio
		artist.LastFMURL = info.URL
		artist.LastFMListeners = info.Listeners
		artist.LastFMPlaycount = info.Playcount
		artist.ImageURL = info.ImageURL
		artist.UpdatePopularity()
	}

	err = s.db.Where("name = ?", artist.Name).FirstOrCreate(&artist).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to create artist: %w", err)
	}
	return &artist, true, nil
}

// UpdateTrackFromLastFM refreshes a stored track's counters and tags
// from the upstream record.
func (s *CatalogService) UpdateTrackFromLastFM(trackID uuid.UUID) (*models.Track, error) {
	var track models.Track
	if err := s.db.Preload("Artist").First(&track, "id = ?", trackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("track not found")
		}
		return nil, fmt.Errorf("failed to load track: %w", err)
	}
	if track.Artist == nil {
		return nil, fmt.Errorf("track has no artist")
	}

	info, ok := s.lastfm.GetTrackInfo(track.Artist.Name, track.Title)
	if !ok {
		return nil, fmt.Errorf("track not found on Last.fm")
	}

	track.LastFMURL = info.URL
	track.LastFMListeners = info.Listeners
	track.LastFMPlaycount = info.Playcount
	if info.Duration > 0 {
		track.Duration = info.Duration
	}
	if info.Album != "" {
		track.Album = info.Album
	}
	if info.ImageURL != "" {
		track.ImageURL = info.ImageURL
	}
	if len(info.Tags) > 0 {
		track.Tags = models.StringList(info.Tags)
	}

	if err := s.db.Save(&track).Error; err != nil {
		return nil, fmt.Errorf("failed to update track: %w", err)
	}
	return &track, nil
}

// AddGenresToFavorites marks genres as favorites on the user's profile.
// It returns the genres that were newly added and those already present.
func (s *CatalogService) AddGenresToFavorites(userID uuid.UUID, genreIDs []uuid.UUID) (added, existing []models.Genre, err error) {
	var profile models.UserProfile
	if err := s.db.Preload("FavoriteGenres").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load profile: %w", err)
	}

	current := make(map[uuid.UUID]bool, len(profile.FavoriteGenres))
	for _, g := range profile.FavoriteGenres {
		current[g.ID] = true
	}

	var genres []models.Genre
	if err := s.db.Where("id IN ?", genreIDs).Find(&genres).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load genres: %w", err)
	}

	for _, g := range genres {
		if current[g.ID] {
			existing = append(existing, g)
		} else {
			added = append(added, g)
		}
	}

	if len(added) > 0 {
		if err := s.db.Model(&profile).Association("FavoriteGenres").Append(&added); err != nil {
			return nil, nil, fmt.Errorf("failed to add favorite genres: %w", err)
		}
	}
	return added, existing, nil
}

// RemoveGenreFromFavorites drops one genre from the user's favorites.
func (s *CatalogService) RemoveGenreFromFavorites(userID, genreID uuid.UUID) error {
	var profile models.UserProfile
	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	genre := models.Genre{ID: genreID}
	if err := s.db.Model(&profile).Association("FavoriteGenres").Delete(&genre); err != nil {
		return fmt.Errorf("failed to remove favorite genre: %w", err)
	}
	return nil
}

// GetUserFavoritesWithRecommendations returns the user's favorite
// genres plus the top artists and tracks from those genres.
func (s *CatalogService) GetUserFavoritesWithRecommendations(userID uuid.UUID) (*FavoritesOverview, error) {
	var profile models.UserProfile
	if err := s.db.Preload("FavoriteGenres").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	overview := &FavoritesOverview{Genres: profile.FavoriteGenres}
	if len(profile.FavoriteGenres) == 0 {
		return overview, nil
	}

	genreIDs := make([]uuid.UUID, 0, len(profile.FavoriteGenres))
	for _, g := range profile.FavoriteGenres {
		genreIDs = append(genreIDs, g.ID)
	}

	if err := s.db.
		Joins("JOIN artist_genres ag ON ag.artist_id = artists.id").
		Where("ag.genre_id IN ?", genreIDs).
		Order("last_fm_listeners DESC").
		Limit(4).
		Distinct().
		Find(&overview.RecommendedArtists).Error; err != nil {
		return nil, fmt.Errorf("failed to load recommended artists: %w", err)
	}

	if err := s.db.Preload("Artist").
		Joins("JOIN artist_genres ag ON ag.artist_id = tracks.artist_id").
		Where("ag.genre_id IN ?", genreIDs).
		Order("last_fm_playcount DESC").
		Limit(5).
		Distinct().
		Find(&overview.RecommendedTracks).Error; err != nil {
		return nil, fmt.Errorf("failed to load recommended tracks: %w", err)
	}

	return overview, nil
}

// RecomputeGenreStatistics refreshes the denormalized track counts and
// popularity flags on all genres.
func (s *CatalogService) RecomputeGenreStatistics() error {
	var genres []models.Genre
	if err := s.db.Find(&genres).Error; err != nil {
		return fmt.Errorf("failed to load genres: %w", err)
	}

	for i := range genres {
		var count int64
		err := s.db.Model(&models.Track{}).
			Joins("JOIN artist_genres ag ON ag.artist_id = tracks.artist_id").
			Where("ag.genre_id = ?", genres[i].ID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to count tracks for genre %s: %w", genres[i].Name, err)
		}

		var popularArtists int64
		err = s.db.Model(&models.Artist{}).
			Joins("JOIN artist_genres ag ON ag.artist_id = artists.id").
			Where("ag.genre_id = ? AND artists.is_popular = true", genres[i].ID).
			Count(&popularArtists).Error
		if err != nil {
			return fmt.Errorf("failed to count popular artists for genre %s: %w", genres[i].Name, err)
		}

		updates := map[string]interface{}{
			"track_count": int(count),
			"is_popular":  popularArtists > 0,
		}
		if err := s.db.Model(&genres[i]).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update genre %s: %w", genres[i].Name, err)
		}
	}

	log.Printf("[Catalog] recomputed statistics for %d genres", len(genres))
	return nil
}

// attachTagGenres links an artist to genres derived from Last.fm tags,
// creating missing genres. At most cfg.MaxTagGenres tags are used.
func (s *CatalogService) attachTagGenres(artist *models.Artist, tags []string) error {
	if len(tags) > s.cfg.MaxTagGenres {
		tags = tags[:s.cfg.MaxTagGenres]
	}

	for _, tag := range tags {
		name := titleCase(tag)
		if name == "" {
			continue
		}

		genre := models.Genre{
			Name:      name,
			LastFMTag: strings.ToLower(tag),
		}
		if err := s.db.Where("name = ?", name).FirstOrCreate(&genre).Error; err != nil {
			return fmt.Errorf("failed to create genre %q: %w", name, err)
		}
		if err := s.db.Model(artist).Association("Genres").Append(&genre); err != nil {
			return fmt.Errorf("failed to link genre %q: %w", name, err)
		}
	}
	return nil
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
