package services

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genrefy/backend/internal/config"
)

func newSpotifyTestService(t *testing.T, handler http.Handler) *SpotifyService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		SpotifyClientID:     "client-id",
		SpotifyClientSecret: "client-secret",
		SpotifyTokenURL:     server.URL + "/api/token",
		SpotifyAPIBaseURL:   server.URL + "/v1/",
		SpotifyMarket:       "US",
		SpotifyCacheDir:     t.TempDir(),
		SpotifyCacheTTL:     time.Hour,
		SpotifyRetries:      2,
	}

	service, err := NewSpotifyService(cfg)
	require.NoError(t, err)
	return service
}

func TestGetAccessTokenExchangeAndReuse(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		assert.Equal(t, http.MethodPost, r.Method)

		expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
		assert.Equal(t, expected, r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		fmt.Fprint(w, `{"access_token": "token-1", "expires_in": 3600}`)
	})

	service := newSpotifyTestService(t, mux)

	token, err := service.GetAccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	token, err = service.GetAccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, tokenCalls, "a valid token must be reused")

	// Expiry includes the safety margin
	assert.WithinDuration(t, time.Now().Add(3600*time.Second-tokenExpiryMargin), service.tokenExpires, 2*time.Second)
}

func TestGetAccessTokenReExchangesWhenExpired(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		fmt.Fprintf(w, `{"access_token": "token-%d", "expires_in": 3600}`, tokenCalls)
	})

	service := newSpotifyTestService(t, mux)

	token, err := service.GetAccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	service.mu.Lock()
	service.tokenExpires = time.Now().Add(-time.Minute)
	service.mu.Unlock()

	token, err = service.GetAccessToken()
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, 2, tokenCalls)
}

func TestApiRequestRetriesOnceAfterUnauthorized(t *testing.T) {
	tokenCalls := 0
	trackCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		fmt.Fprintf(w, `{"access_token": "token-%d", "expires_in": 3600}`, tokenCalls)
	})
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		trackCalls++
		if r.Header.Get("Authorization") != "Bearer token-2" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": {"status": 401}}`)
			return
		}
		fmt.Fprint(w, `{"id": "track-id", "name": "One More Time"}`)
	})

	service := newSpotifyTestService(t, mux)

	track, ok := service.GetTrack("4VqPOruhp5EdPBeR92t6lQ")
	require.True(t, ok)
	assert.Equal(t, "One More Time", track["name"])
	assert.Equal(t, 2, tokenCalls, "401 must force one token re-exchange")
	assert.Equal(t, 2, trackCalls, "the request must be retried exactly once")
}

func TestApiRequestGivesUpWhenStillUnauthorized(t *testing.T) {
	trackCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token": "always-bad", "expires_in": 3600}`)
	})
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		trackCalls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	service := newSpotifyTestService(t, mux)

	_, ok := service.GetTrack("4VqPOruhp5EdPBeR92t6lQ")
	assert.False(t, ok)
	assert.Equal(t, 2, trackCalls, "only one retry after a 401")
}

func TestApiRequestUsesCache(t *testing.T) {
	trackCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token": "token-1", "expires_in": 3600}`)
	})
	mux.HandleFunc("/v1/tracks/", func(w http.ResponseWriter, r *http.Request) {
		trackCalls++
		fmt.Fprint(w, `{"id": "track-id", "name": "Cached"}`)
	})

	service := newSpotifyTestService(t, mux)

	_, ok := service.GetTrack("4VqPOruhp5EdPBeR92t6lQ")
	require.True(t, ok)
	_, ok = service.GetTrack("4VqPOruhp5EdPBeR92t6lQ")
	require.True(t, ok)

	assert.Equal(t, 1, trackCalls, "second lookup must be served from disk cache")
}

func TestSearchFiltersResourceTypes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token": "token-1", "expires_in": 3600}`)
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "track,artist", r.URL.Query().Get("type"))
		assert.Equal(t, "US", r.URL.Query().Get("market"))
		fmt.Fprint(w, `{"tracks": {"items": []}}`)
	})

	service := newSpotifyTestService(t, mux)

	_, ok := service.Search("daft punk", []string{"track", "bogus", "artist"}, 10)
	assert.True(t, ok)
}

func TestExtractTrackID(t *testing.T) {
	service := &SpotifyService{}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare id", "4VqPOruhp5EdPBeR92t6lQ", "4VqPOruhp5EdPBeR92t6lQ"},
		{"track uri", "spotify:track:4VqPOruhp5EdPBeR92t6lQ", "4VqPOruhp5EdPBeR92t6lQ"},
		{"web url", "https://open.spotify.com/track/4VqPOruhp5EdPBeR92t6lQ", "4VqPOruhp5EdPBeR92t6lQ"},
		{"web url with query", "https://open.spotify.com/track/4VqPOruhp5EdPBeR92t6lQ?si=abc123", "4VqPOruhp5EdPBeR92t6lQ"},
		{"other host", "https://example.com/track/4VqPOruhp5EdPBeR92t6lQ", "4VqPOruhp5EdPBeR92t6lQ"},
		{"query parameter", "https://player.example.com/play?track=4VqPOruhp5EdPBeR92t6lQ", "4VqPOruhp5EdPBeR92t6lQ"},
		{"artist url", "https://open.spotify.com/artist/4tZwfgrHOc3mvqYlEYSvVi", ""},
		{"empty", "", ""},
		{"garbage", "not a spotify reference", ""},
		{"too short id", "abc123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.ExtractTrackID(tt.input))
		})
	}
}
