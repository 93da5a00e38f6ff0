package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/models"
	"github.com/genrefy/backend/internal/services"
)

// fixture is the on-disk exchange format for catalog snapshots.
type fixture struct {
	Genres  []models.Genre  `json:"genres"`
	Artists []models.Artist `json:"artists"`
	Tracks  []models.Track  `json:"tracks"`
}

func main() {
	exportPath := flag.String("export", "", "export the catalog to a JSON fixture file")
	importPath := flag.String("import", "", "import a JSON fixture file into the catalog")
	fallback := flag.Bool("fallback", false, "seed the built-in demo dataset when the import file is unusable")
	flag.Parse()

	if *exportPath == "" && *importPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.New()

	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if *exportPath != "" {
		if err := exportFixture(db, *exportPath); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	}

	if err := importFixture(db, *importPath, *fallback); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	catalog := services.NewCatalogService(db, cfg, nil)
	if err := catalog.RecomputeGenreStatistics(); err != nil {
		log.Printf("Statistics recompute failed: %v", err)
	}
}

func exportFixture(db *gorm.DB, path string) error {
	var f fixture
	if err := db.Preload("Artists").Find(&f.Genres).Error; err != nil {
		return fmt.Errorf("failed to load genres: %w", err)
	}
	if err := db.Find(&f.Artists).Error; err != nil {
		return fmt.Errorf("failed to load artists: %w", err)
	}
	if err := db.Find(&f.Tracks).Error; err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write fixture: %w", err)
	}

	log.Printf("Exported %d genres, %d artists, %d tracks to %s",
		len(f.Genres), len(f.Artists), len(f.Tracks), path)
	return nil
}

// importFixture loads a fixture file into the catalog. A broken or
// missing file only falls back to the demo dataset when -fallback was
// given explicitly; the original failure is always logged.
func importFixture(db *gorm.DB, path string, allowFallback bool) error {
	f, err := readFixture(path)
	if err != nil {
		if !allowFallback {
			return err
		}
		log.Printf("Import file unusable (%v), seeding demo dataset because -fallback was set", err)
		f = demoFixture()
	}

	return db.Transaction(func(tx *gorm.DB) error {
		// Artists already present keep their stored id, so fixture ids
		// have to be remapped before tracks reference them.
		artistIDs := make(map[uuid.UUID]uuid.UUID, len(f.Artists))
		for i := range f.Artists {
			artist := f.Artists[i]
			fixtureID := artist.ID
			if err := tx.Where("name = ?", artist.Name).FirstOrCreate(&artist).Error; err != nil {
				return fmt.Errorf("failed to import artist %q: %w", artist.Name, err)
			}
			f.Artists[i] = artist
			if fixtureID != uuid.Nil {
				artistIDs[fixtureID] = artist.ID
			}
		}

		artistsByName := make(map[string]models.Artist, len(f.Artists))
		for _, a := range f.Artists {
			artistsByName[a.Name] = a
		}

		for i := range f.Genres {
			genre := f.Genres[i]
			linked := genre.Artists
			genre.Artists = nil
			if err := tx.Where("name = ?", genre.Name).FirstOrCreate(&genre).Error; err != nil {
				return fmt.Errorf("failed to import genre %q: %w", genre.Name, err)
			}
			for _, a := range linked {
				artist, ok := artistsByName[a.Name]
				if !ok {
					continue
				}
				if err := tx.Model(&artist).Association("Genres").Append(&genre); err != nil {
					return fmt.Errorf("failed to link genre %q: %w", genre.Name, err)
				}
			}
		}

		for i := range f.Tracks {
			track := f.Tracks[i]
			if mapped, ok := artistIDs[track.ArtistID]; ok {
				track.ArtistID = mapped
			}
			if err := tx.Where("title = ? AND artist_id = ?", track.Title, track.ArtistID).
				FirstOrCreate(&track).Error; err != nil {
				return fmt.Errorf("failed to import track %q: %w", track.Title, err)
			}
		}

		log.Printf("Imported %d genres, %d artists, %d tracks",
			len(f.Genres), len(f.Artists), len(f.Tracks))
		return nil
	})
}

// readFixture reads and decodes a fixture file, repairing a UTF-8 BOM
// and CRLF line endings left behind by other tools.
func readFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	if len(f.Genres) == 0 && len(f.Artists) == 0 && len(f.Tracks) == 0 {
		return nil, fmt.Errorf("fixture %s contains no data", path)
	}
	return &f, nil
}

// demoFixture is a tiny seed so a fresh install has something to show.
func demoFixture() *fixture {
	rock := models.Genre{Name: "Rock", LastFMTag: "rock"}
	electronic := models.Genre{Name: "Electronic", LastFMTag: "electronic"}

	queen := models.Artist{
		Name:            "Queen",
		LastFMListeners: 4500000,
		LastFMPlaycount: 250000000,
		Genres:          []models.Genre{rock},
	}
	daftPunk := models.Artist{
		Name:            "Daft Punk",
		LastFMListeners: 3800000,
		LastFMPlaycount: 180000000,
		Genres:          []models.Genre{electronic},
	}
	queen.UpdatePopularity()
	daftPunk.UpdatePopularity()

	return &fixture{
		Genres:  []models.Genre{rock, electronic},
		Artists: []models.Artist{queen, daftPunk},
	}
}
