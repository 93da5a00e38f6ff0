package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/pkg/apicache"
)

// tokenExpiryMargin is subtracted from the issued token lifetime so we
// refresh before Spotify actually rejects the token.
const tokenExpiryMargin = 5 * time.Minute

var spotifyIDRegex = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)

// SpotifyTrackBundle is the composite result of a full track lookup.
// AudioFeatures may be nil; a missing feature vector is not fatal.
type SpotifyTrackBundle struct {
	Track         map[string]interface{} `json:"track"`
	AudioFeatures map[string]interface{} `json:"audio_features"`
	Artist        map[string]interface{} `json:"artist"`
}

// SpotifyService wraps the Spotify Web API with client-credentials
// authentication. Token state lives on the instance behind a mutex so a
// single client can be shared across request workers.
type SpotifyService struct {
	cfg        *config.Config
	cache      *apicache.Cache
	httpClient *http.Client

	mu           sync.Mutex
	accessToken  string
	tokenExpires time.Time
}

func NewSpotifyService(cfg *config.Config) (*SpotifyService, error) {
	cache, err := apicache.New(cfg.SpotifyCacheDir)
	if err != nil {
		return nil, err
	}
	return &SpotifyService{
		cfg:        cfg,
		cache:      cache,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// GetAccessToken returns the cached token while it is still comfortably
// before expiry, otherwise performs a client-credentials exchange.
func (s *SpotifyService) GetAccessToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpires) {
		return s.accessToken, nil
	}

	auth := base64.StdEncoding.EncodeToString([]byte(s.cfg.SpotifyClientID + ":" + s.cfg.SpotifyClientSecret))

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequest(http.MethodPost, s.cfg.SpotifyTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get Spotify token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("invalid token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("token response missing access_token")
	}
	if tokenResp.ExpiresIn == 0 {
		tokenResp.ExpiresIn = 3600
	}

	s.accessToken = tokenResp.AccessToken
	s.tokenExpires = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpiryMargin)

	log.Println("[Spotify] obtained access token")
	return s.accessToken, nil
}

func (s *SpotifyService) invalidateToken() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

// apiRequest performs an authenticated GET under the versioned API base.
// A 401 response invalidates the cached token and retries the request
// exactly once with a fresh one; timeouts are retried up to the
// configured count. Any other failure yields an absent result.
func (s *SpotifyService) apiRequest(endpoint string, params url.Values) (map[string]interface{}, bool) {
	cacheParams := make(map[string]string, len(params))
	for k := range params {
		cacheParams[k] = params.Get(k)
	}
	cacheKey := apicache.Key("spotify:"+endpoint, cacheParams)

	if raw, ok := s.cache.Load(cacheKey, s.cfg.SpotifyCacheTTL); ok {
		var data map[string]interface{}
		if err := json.Unmarshal(raw, &data); err == nil {
			return data, true
		}
	}

	token, err := s.GetAccessToken()
	if err != nil {
		log.Printf("[Spotify] cannot get access token: %v", err)
		return nil, false
	}

	requestURL := s.cfg.SpotifyAPIBaseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	timeouts := 0
	refreshed := false
	for {
		req, err := http.NewRequest(http.MethodGet, requestURL, nil)
		if err != nil {
			log.Printf("[Spotify] bad request for %s: %v", endpoint, err)
			return nil, false
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := s.httpClient.Do(req)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() && timeouts < s.cfg.SpotifyRetries {
				timeouts++
				log.Printf("[Spotify] timeout, retry %d/%d: %s", timeouts, s.cfg.SpotifyRetries, endpoint)
				continue
			}
			log.Printf("[Spotify] request failed: %v, URL: %s", err, requestURL)
			return nil, false
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			log.Printf("[Spotify] read error: %v", readErr)
			return nil, false
		}

		if resp.StatusCode == http.StatusUnauthorized {
			if refreshed {
				log.Printf("[Spotify] still unauthorized after token refresh: %s", endpoint)
				return nil, false
			}
			refreshed = true
			log.Println("[Spotify] token expired, refreshing")
			s.invalidateToken()
			token, err = s.GetAccessToken()
			if err != nil {
				log.Printf("[Spotify] token refresh failed: %v", err)
				return nil, false
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			log.Printf("[Spotify] HTTP error %d: %s", resp.StatusCode, string(body))
			return nil, false
		}

		var data map[string]interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			log.Printf("[Spotify] JSON decode error: %v", err)
			return nil, false
		}

		if err := s.cache.Save(cacheKey, body); err != nil {
			log.Printf("[Spotify] cache save failed: %v", err)
		}
		return data, true
	}
}

// SearchTrack searches tracks in the configured market.
func (s *SpotifyService) SearchTrack(query string, limit int) (map[string]interface{}, bool) {
	return s.Search(query, []string{"track"}, limit)
}

// Search runs a typed search; unknown types are dropped and an empty
// type list falls back to track search.
func (s *SpotifyService) Search(query string, types []string, limit int) (map[string]interface{}, bool) {
	validTypes := map[string]bool{"track": true, "artist": true, "album": true, "playlist": true}
	filtered := make([]string, 0, len(types))
	for _, t := range types {
		if validTypes[t] {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		filtered = []string{"track"}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", strings.Join(filtered, ","))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", s.cfg.SpotifyMarket)

	return s.apiRequest("search", params)
}

// GetTrack fetches a track resource by id.
func (s *SpotifyService) GetTrack(trackID string) (map[string]interface{}, bool) {
	return s.apiRequest("tracks/"+trackID, nil)
}

// GetAudioFeatures fetches the audio-feature vector for a track.
func (s *SpotifyService) GetAudioFeatures(trackID string) (map[string]interface{}, bool) {
	return s.apiRequest("audio-features/"+trackID, nil)
}

// GetArtist fetches an artist resource by id.
func (s *SpotifyService) GetArtist(artistID string) (map[string]interface{}, bool) {
	return s.apiRequest("artists/"+artistID, nil)
}

// GetAlbum fetches an album resource by id.
func (s *SpotifyService) GetAlbum(albumID string) (map[string]interface{}, bool) {
	return s.apiRequest("albums/"+albumID, nil)
}

// ExtractTrackID pulls a bare track id out of a raw id, a web URL
// (.../track/<id> with optional query or fragment), a track URI
// (scheme:track:<id>), or a ?track= query parameter. Any other form,
// including non-track resource paths, yields "".
func (s *SpotifyService) ExtractTrackID(input string) string {
	if spotifyIDRegex.MatchString(input) {
		return input
	}

	if idx := strings.Index(input, ":track:"); idx >= 0 && !strings.Contains(input, "/") {
		id := input[idx+len(":track:"):]
		if cut := strings.IndexAny(id, "?#"); cut >= 0 {
			id = id[:cut]
		}
		return id
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return ""
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part == "track" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}

	if id := parsed.Query().Get("track"); id != "" {
		return id
	}

	log.Printf("[Spotify] could not extract track ID from %q", input)
	return ""
}

// GetTrackFullInfo resolves a track, its audio features, and its primary
// artist in one logical call. A missing audio-feature result is
// tolerated; a missing track is not.
func (s *SpotifyService) GetTrackFullInfo(trackIDOrURL string) (*SpotifyTrackBundle, bool) {
	trackID := s.ExtractTrackID(trackIDOrURL)
	if trackID == "" {
		return nil, false
	}

	track, ok := s.GetTrack(trackID)
	if !ok {
		return nil, false
	}

	features, _ := s.GetAudioFeatures(trackID)

	var artist map[string]interface{}
	if artists, ok := track["artists"].([]interface{}); ok && len(artists) > 0 {
		if first, ok := artists[0].(map[string]interface{}); ok {
			if artistID := jsonString(first, "id"); artistID != "" {
				artist, _ = s.GetArtist(artistID)
			}
		}
	}

	return &SpotifyTrackBundle{
		Track:         track,
		AudioFeatures: features,
		Artist:        artist,
	}, true
}
