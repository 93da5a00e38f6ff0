package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/models"
)

// GenreComparisonRow lines one local genre up against the matching
// Last.fm top tag. A genre without a matching tag has LastFMCount 0.
type GenreComparisonRow struct {
	Genre           string  `json:"genre"`
	LocalTracks     int     `json:"local_tracks"`
	LocalPlaycount  int64   `json:"local_playcount"`
	LastFMCount     int     `json:"lastfm_count"`
	MatchPercentage float64 `json:"match_percentage"`
}

// ChartSeries is one named series of labeled values, ready for a
// frontend chart component.
type ChartSeries struct {
	Name   string    `json:"name"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// AnalyticsData is the full analytics payload.
type AnalyticsData struct {
	TotalGenres     int64                `json:"total_genres"`
	TotalArtists    int64                `json:"total_artists"`
	TotalTracks     int64                `json:"total_tracks"`
	TotalUsers      int64                `json:"total_users"`
	GenreComparison []GenreComparisonRow `json:"genre_comparison"`
	TopGenres       ChartSeries          `json:"top_genres"`
	TopTracks       ChartSeries          `json:"top_tracks"`
}

// AnalyticsService aggregates catalog-wide numbers and lines them up
// against Last.fm's global tag chart.
type AnalyticsService struct {
	db     *gorm.DB
	cfg    *config.Config
	lastfm *LastFMService
}

func NewAnalyticsService(db *gorm.DB, cfg *config.Config, lastfm *LastFMService) *AnalyticsService {
	return &AnalyticsService{db: db, cfg: cfg, lastfm: lastfm}
}

// GetAnalyticsData collects entity totals, the genre-versus-tag
// comparison table, and the chart series.
func (s *AnalyticsService) GetAnalyticsData() (*AnalyticsData, error) {
	data := &AnalyticsData{}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Genre{}, &data.TotalGenres},
		{&models.Artist{}, &data.TotalArtists},
		{&models.Track{}, &data.TotalTracks},
		{&models.User{}, &data.TotalUsers},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count entities: %w", err)
		}
	}

	local, err := s.localGenreStats()
	if err != nil {
		return nil, err
	}

	var tags []LastFMTag
	if s.lastfm != nil {
		tags = s.lastfm.GetTopTags(50)
	}
	data.GenreComparison = buildComparisonTable(local, tags)

	data.TopGenres = ChartSeries{Name: "Tracks per genre"}
	for i, row := range data.GenreComparison {
		if i >= 10 {
			break
		}
		data.TopGenres.Labels = append(data.TopGenres.Labels, row.Genre)
		data.TopGenres.Values = append(data.TopGenres.Values, float64(row.LocalTracks))
	}

	topTracks, err := s.topTrackSeries(10)
	if err != nil {
		return nil, err
	}
	data.TopTracks = topTracks

	return data, nil
}

// localGenreStat is one raw aggregation row feeding the comparison table.
type localGenreStat struct {
	Genre     string
	LastFMTag string
	Tracks    int
	Playcount int64
}

func (s *AnalyticsService) localGenreStats() ([]localGenreStat, error) {
	query := `
		SELECT g.name AS genre, g.last_fm_tag AS last_fm_tag,
		       COUNT(DISTINCT t.id) AS tracks,
		       COALESCE(SUM(t.last_fm_playcount), 0) AS playcount
		FROM genres g
		LEFT JOIN artist_genres ag ON ag.genre_id = g.id
		LEFT JOIN tracks t ON t.artist_id = ag.artist_id
		GROUP BY g.name, g.last_fm_tag`

	var rows []localGenreStat
	if err := s.db.Raw(query).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate genre stats: %w", err)
	}
	return rows, nil
}

func (s *AnalyticsService) topTrackSeries(limit int) (ChartSeries, error) {
	var tracks []models.Track
	err := s.db.Preload("Artist").
		Where("last_fm_playcount > 0").
		Order("last_fm_playcount DESC").
		Limit(limit).
		Find(&tracks).Error
	if err != nil {
		return ChartSeries{}, fmt.Errorf("failed to load top tracks: %w", err)
	}

	series := ChartSeries{Name: "Popularity score"}
	for _, t := range tracks {
		label := t.Title
		if t.Artist != nil {
			label = t.Artist.Name + " - " + t.Title
		}
		series.Labels = append(series.Labels, label)
		series.Values = append(series.Values, t.PopularityScore())
	}
	return series, nil
}

// buildComparisonTable joins local genre aggregates with the global tag
// chart by case-insensitive name, preferring the genre's own Last.fm
// tag. Rows sort by local track count, largest first.
func buildComparisonTable(local []localGenreStat, tags []LastFMTag) []GenreComparisonRow {
	tagCounts := make(map[string]int, len(tags))
	for _, tag := range tags {
		tagCounts[strings.ToLower(tag.Name)] = tag.Count
	}

	table := make([]GenreComparisonRow, 0, len(local))
	for _, row := range local {
		count, ok := tagCounts[strings.ToLower(row.LastFMTag)]
		if !ok {
			count = tagCounts[strings.ToLower(row.Genre)]
		}
		table = append(table, GenreComparisonRow{
			Genre:           row.Genre,
			LocalTracks:     row.Tracks,
			LocalPlaycount:  row.Playcount,
			LastFMCount:     count,
			MatchPercentage: matchPercentage(row.Tracks, count),
		})
	}

	sort.Slice(table, func(i, j int) bool {
		if table[i].LocalTracks != table[j].LocalTracks {
			return table[i].LocalTracks > table[j].LocalTracks
		}
		return table[i].Genre < table[j].Genre
	})
	return table
}

// matchPercentage is the smaller value as a percentage of the larger,
// rounded to one decimal. Either side at zero yields 0.
func matchPercentage(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0.0
	}
	lo, hi := float64(a), float64(b)
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Round(lo/hi*1000) / 10
}
