package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genrefy/backend/internal/config"
)

func newLastFMTestService(t *testing.T, handler http.HandlerFunc) (*LastFMService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		LastFMAPIKey:       "test-key",
		LastFMSharedSecret: "test-secret",
		LastFMBaseURL:      server.URL,
		LastFMCacheDir:     t.TempDir(),
		LastFMCacheTTL:     time.Hour,
		LastFMMinInterval:  time.Millisecond,
	}

	service, err := NewLastFMService(cfg)
	require.NoError(t, err)
	return service, server
}

func TestGetTrackInfoNormalizesResponse(t *testing.T) {
	service, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "track.getInfo", r.URL.Query().Get("method"))
		assert.Equal(t, "1", r.URL.Query().Get("autocorrect"))
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
					{"name": "rock"}, {"name": "classic rock"}
				]},
				"image": [
					{"size": "small", "#text": "http://img/small.png"},
					{"size": "extralarge", "#text": "http://img/xl.png"}
				]
			}
		}`)
	})

	info, ok := service.GetTrackInfo("Queen", "One Vision")
	require.True(t, ok)

	assert.Equal(t, "One Vision", info.Name)
	assert.Equal(t, "Queen", info.Artist)
	assert.Equal(t, 242, info.Duration, "duration must be converted from ms to seconds")
	assert.Equal(t, 350000, info.Listeners)
	assert.Equal(t, 2500000, info.Playcount)
	assert.Equal(t, "A Kind of Magic", info.Album)
	assert.Equal(t, []string{"rock", "classic rock"}, info.Tags)
	assert.Equal(t, "http://img/xl.png", info.ImageURL, "extralarge image must win")
}

func TestGetTrackInfoSingleTagObject(t *testing.T) {
	service, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"track": {
				"name": "Obscure Song",
				"artist": {"name": "Nobody"},
				"toptags": {"tag": {"name": "ambient"}}
			}
		}`)
	})

	info, ok := service.GetTrackInfo("Nobody", "Obscure Song")
	require.True(t, ok)
	assert.Equal(t, []string{"ambient"}, info.Tags)
}

func TestMakeRequestReportsAPIError(t *testing.T) {
	service, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": 6, "message": "Track not found"}`)
	})

	_, ok := service.GetTrackInfo("Queen", "Does Not Exist")
	assert.False(t, ok)
}

func TestMakeRequestUsesCache(t *testing.T) {
	calls := 0
	service, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"artist": {"name": "Queen", "stats": {"listeners": "4500000", "playcount": "250000000"}}}`)
	})

	first, ok := service.GetArtistInfo("Queen")
	require.True(t, ok)
	second, ok := service.GetArtistInfo("Queen")
	require.True(t, ok)

	assert.Equal(t, 1, calls, "second lookup must be served from cache")
	assert.Equal(t, first, second)
}

func TestSearchTrackParsesMatches(t *testing.T) {
	service, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "track.search", r.URL.Query().Get("method"))
		assert.Equal(t, "vision", r.URL.Query().Get("track"))
		fmt.Fprint(w, `{
			"results": {"trackmatches": {"track": [
				{"name": "One Vision", "artist": "Queen", "listeners": "350000"},
				{"name": "Vision of Love", "artist": "Mariah Carey", "listeners": "275000"}
			]}}
		}`)
	})

	hits := service.SearchTrack("vision", "", 10)
	require.Len(t, hits, 2)
	assert.Equal(t, "One Vision", hits[0].Name)
	assert.Equal(t, "Queen", hits[0].Artist)
	assert.Equal(t, 350000, hits[0].Listeners)
	assert.Equal(t, "Mariah Carey", hits[1].Artist)
}

func TestSearchTrackUpstreamFailureYieldsNoHits(t *testing.T) {
	service, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	assert.Empty(t, service.SearchTrack("anything", "", 10))
}

func TestGetTopTracksByTag(t *testing.T) {
	service, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tag.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "rock", r.URL.Query().Get("tag"))
		fmt.Fprint(w, `{
			"tracks": {"track": [
				{"name": "One Vision", "artist": {"name": "Queen"}, "listeners": "350000"}
			]}
		}`)
	})

	tracks := service.GetTopTracksByTag("rock", 5)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Queen", tracks[0].Artist)
}

func TestSignRequestIsDeterministic(t *testing.T) {
	service, _ := newLastFMTestService(t, func(w http.ResponseWriter, r *http.Request) {})

	sig1 := service.signRequest(map[string]string{"method": "auth.getSession", "api_key": "test-key"})
	sig2 := service.signRequest(map[string]string{"api_key": "test-key", "method": "auth.getSession"})

	assert.Equal(t, sig1, sig2)
	assert.Len(t, sig1, 32)
}

func TestImageURLPreference(t *testing.T) {
	images := []interface{}{
		map[string]interface{}{"size": "small", "#text": "http://img/s.png"},
		map[string]interface{}{"size": "large", "#text": "http://img/l.png"},
	}
	assert.Equal(t, "http://img/l.png", imageURL(images))

	// All preferred sizes empty: fall back to first non-empty
	images = []interface{}{
		map[string]interface{}{"size": "extralarge", "#text": ""},
		map[string]interface{}{"size": "mega", "#text": "http://img/mega.png"},
	}
	assert.Equal(t, "http://img/mega.png", imageURL(images))

	assert.Equal(t, "", imageURL(nil))
	assert.Equal(t, "", imageURL([]interface{}{}))
}
