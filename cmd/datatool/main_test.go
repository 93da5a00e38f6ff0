package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/genrefy/backend/internal/models"
)

// newTestDB opens an in-memory SQLite database with the catalog tables.
// Postgres column defaults are left out; ids come from the model hooks.
func newTestDB(t *testing.T) *gorm.DB {
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

func writeFixtureFile(t *testing.T, f *fixture) string {
	t.Helper()

	data, err := json.Marshal(f)
	require.NoError(t, err)

	// BOM plus CRLF line endings, as left behind by other tools.
	data = append([]byte{0xEF, 0xBB, 0xBF}, data...)

	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestImportFixtureRemapsArtistIDs(t *testing.T) {
	db := newTestDB(t)

	existing := models.Artist{ID: uuid.New(), Name: "Queen"}
	require.NoError(t, db.Create(&existing).Error)

	// The fixture knows the same artist under a different id.
	fixtureArtistID := uuid.New()
	path := writeFixtureFile(t, &fixture{
		Artists: []models.Artist{{
			ID:              fixtureArtistID,
			Name:            "Queen",
			LastFMListeners: 4500000,
		}},
		Tracks: []models.Track{{
			ID:       uuid.New(),
			Title:    "One Vision",
			ArtistID: fixtureArtistID,
		}},
	})

	require.NoError(t, importFixture(db, path, false))

	var track models.Track
	require.NoError(t, db.First(&track, "title = ?", "One Vision").Error)
	assert.Equal(t, existing.ID, track.ArtistID, "track must point at the stored artist row")

	var artistCount int64
	require.NoError(t, db.Model(&models.Artist{}).Count(&artistCount).Error)
	assert.Equal(t, int64(1), artistCount)
}

func TestImportFixtureIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	artistID := uuid.New()
	path := writeFixtureFile(t, &fixture{
		Artists: []models.Artist{{ID: artistID, Name: "Daft Punk"}},
		Tracks: []models.Track{{
			ID:       uuid.New(),
			Title:    "One More Time",
			ArtistID: artistID,
		}},
	})

	require.NoError(t, importFixture(db, path, false))
	require.NoError(t, importFixture(db, path, false))

	var trackCount int64
	require.NoError(t, db.Model(&models.Track{}).Count(&trackCount).Error)
	assert.Equal(t, int64(1), trackCount)
}

func TestImportFixtureFallbackIsExplicit(t *testing.T) {
	db := newTestDB(t)
	missing := filepath.Join(t.TempDir(), "missing.json")

	err := importFixture(db, missing, false)
	require.Error(t, err, "a broken import must surface its error without -fallback")

	var genreCount int64
	require.NoError(t, db.Model(&models.Genre{}).Count(&genreCount).Error)
	assert.Zero(t, genreCount)

	require.NoError(t, importFixture(db, missing, true))
	require.NoError(t, db.Model(&models.Genre{}).Count(&genreCount).Error)
	assert.Equal(t, int64(2), genreCount, "demo dataset loads only with -fallback")
}

func TestReadFixtureRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"genres":[],"artists":[],"tracks":[]}`), 0644))

	_, err := readFixture(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no data")
}
