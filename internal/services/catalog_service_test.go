package services

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

// newCatalogTestDB opens an in-memory SQLite database with the catalog
// tables. The production schema uses Postgres column defaults, so the
// tables are created by hand here; IDs come from the BeforeCreate hooks.
func newCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE genres (
			id text PRIMARY KEY,
			name text NOT NULL UNIQUE,
			description text,
			last_fm_tag text,
			last_fm_url text,
			track_count integer DEFAULT 0,
			is_popular boolean DEFAULT false,
			created_at datetime,
			updated_at datetime)`,
		`CREATE TABLE artists (
			id text PRIMARY KEY,
			name text NOT NULL UNIQUE,
			description text,
			last_fm_url text,
			last_fm_listeners integer DEFAULT 0,
			last_fm_playcount integer DEFAULT 0,
			spotify_id text,
			spotify_url text,
			image_url text,
			is_popular boolean DEFAULT false,
			created_at datetime,
			updated_at datetime)`,
		`CREATE TABLE tracks (
			id text PRIMARY KEY,
			title text NOT NULL,
			artist_id text NOT NULL,
			last_fm_url text,
			last_fm_listeners integer DEFAULT 0,
			last_fm_playcount integer DEFAULT 0,
			spotify_id text,
			spotify_url text,
			preview_url text,
			duration integer DEFAULT 0,
			album text,
			image_url text,
			popularity integer DEFAULT 0,
			tags text,
			last_fm_data text,
			audio_features text,
			is_reference boolean DEFAULT false,
			created_at datetime,
			updated_at datetime,
			UNIQUE (title, artist_id))`,
		`CREATE TABLE artist_genres (
			artist_id text NOT NULL,
			genre_id text NOT NULL,
			PRIMARY KEY (artist_id, genre_id))`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func TestGetGenreStatistics(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewCatalogService(db, &config.Config{MaxTagGenres: 5}, nil)

	rockID := uuid.New()
	jazzID := uuid.New()

	mock.ExpectQuery("SELECT g.id, g.name, g.last_fm_tag, g.is_popular").
		WithArgs("%rock%", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "last_fm_tag", "is_popular",
			"artist_count", "track_count", "total_playcount", "total_listeners",
		}).
			AddRow(rockID, "Rock", "rock", true, 12, 340, int64(900000), int64(120000)).
			AddRow(jazzID, "Jazz Rock", "jazz rock", false, 3, 40, int64(50000), int64(9000)))

	stats, err := service.GetGenreStatistics("rock", 10)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "Rock", stats[0].Name)
	assert.Equal(t, "rock", stats[0].LastFMTag)
	assert.Equal(t, 12, stats[0].ArtistCount)
	assert.Equal(t, int64(900000), stats[0].TotalPlaycount)
	assert.True(t, stats[0].IsPopular)
	assert.Equal(t, "Jazz Rock", stats[1].Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetGenreStatisticsEmptySearchMatchesAll(t *testing.T) {
	db, mock := newMockDB(t)
	service := NewCatalogService(db, &config.Config{}, nil)

	mock.ExpectQuery("SELECT g.id, g.name, g.last_fm_tag, g.is_popular").
		WithArgs("%", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "last_fm_tag", "is_popular",
			"artist_count", "track_count", "total_playcount", "total_listeners",
		}))

	stats, err := service.GetGenreStatistics("", 50)
	require.NoError(t, err)
	assert.Empty(t, stats)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenreLastFMTagColumnName(t *testing.T) {
	// The raw aggregation query must reference the column the way the
	// migration names it.
	ns := schema.NamingStrategy{}
	assert.Equal(t, "last_fm_tag", ns.ColumnName("genres", "LastFMTag"))
	assert.Equal(t, "last_fm_playcount", ns.ColumnName("tracks", "LastFMPlaycount"))
}

func TestGetOrCreateTrackFromLastFM(t *testing.T) {
	trackInfoCalls := 0
	lastfm, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("method") {
		case "track.getInfo":
			trackInfoCalls++
			fmt.Fprint(w, `{
				"track": {
					"name": "One Vision",
					"url": "https://last.fm/music/Queen/_/One+Vision",
					"duration": "242000",
					"listeners": "350000",
					"playcount": "2500000",
					"artist": {"name": "Queen"},
					"album": {"title": "A Kind of Magic"},
					"toptags": {"tag": [
						{"name": "rock"}, {"name": "classic rock"}, {"name": "80s"},
						{"name": "hard rock"}, {"name": "pop"}, {"name": "british"},
						{"name": "live"}, {"name": "queen"}
					]}
				}
			}`)
		case "artist.getInfo":
			fmt.Fprint(w, `{
				"artist": {
					"name": "Queen",
					"url": "https://last.fm/music/Queen",
					"stats": {"listeners": "4500000", "playcount": "250000000"},
					"bio": {"content": "British rock band."}
				}
			}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	db := newCatalogTestDB(t)
	service := NewCatalogService(db, &config.Config{MaxTagGenres: 5}, lastfm)

	track, created, err := service.GetOrCreateTrackFromLastFM("Queen", "One Vision")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, trackInfoCalls, "a miss must trigger exactly one upstream lookup")

	require.NotNil(t, track.Artist)
	assert.Equal(t, "Queen", track.Artist.Name)
	assert.True(t, track.Artist.IsPopular)
	assert.Equal(t, "One Vision", track.Title)
	assert.Equal(t, 242, track.Duration)

	var artistCount, trackCount, genreCount, genreLinks int64
	require.NoError(t, db.Model(&models.Artist{}).Count(&artistCount).Error)
	require.NoError(t, db.Model(&models.Track{}).Count(&trackCount).Error)
	require.NoError(t, db.Model(&models.Genre{}).Count(&genreCount).Error)
	require.NoError(t, db.Table("artist_genres").Count(&genreLinks).Error)
	assert.Equal(t, int64(1), artistCount)
	assert.Equal(t, int64(1), trackCount)
	assert.Equal(t, int64(5), genreCount, "tag fan-out is capped")
	assert.Equal(t, int64(5), genreLinks)

	// A second resolve is served from the catalog without another
	// upstream call.
	again, created, err := service.GetOrCreateTrackFromLastFM("Queen", "One Vision")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, track.ID, again.ID)
	assert.Equal(t, 1, trackInfoCalls)
}

func TestGetOrCreateTrackFromLastFMUnknownTrack(t *testing.T) {
	lastfm, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": 6, "message": "Track not found"}`)
	})

	db := newCatalogTestDB(t)
	service := NewCatalogService(db, &config.Config{MaxTagGenres: 5}, lastfm)

	_, _, err := service.GetOrCreateTrackFromLastFM("Nobody", "No Such Song")
	require.Error(t, err)

	var trackCount int64
	require.NoError(t, db.Model(&models.Track{}).Count(&trackCount).Error)
	assert.Zero(t, trackCount, "a failed lookup must not leave rows behind")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Classic Rock", titleCase("classic rock"))
	assert.Equal(t, "Rock", titleCase("  rock  "))
	assert.Equal(t, "Synthwave", titleCase("Synthwave"))
	assert.Equal(t, "", titleCase(""))
	assert.Equal(t, "", titleCase("   "))
}
