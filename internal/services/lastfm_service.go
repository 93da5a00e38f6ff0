package services

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/genrefy/backend/internal/config"
	"github.com/genrefy/backend/internal/pkg/apicache"
)

// Normalized Last.fm records. Missing numeric fields default to 0,
// missing text fields to "".

type LastFMTrackHit struct {
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	URL       string `json:"url"`
	Listeners int    `json:"listeners"`
	ImageURL  string `json:"image_url"`
}

type LastFMArtistHit struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Listeners int    `json:"listeners"`
	ImageURL  string `json:"image_url"`
}

type LastFMTrackInfo struct {
	Name      string   `json:"name"`
	Artist    string   `json:"artist"`
	URL       string   `json:"url"`
	Duration  int      `json:"duration"` // seconds
	Listeners int      `json:"listeners"`
	Playcount int      `json:"playcount"`
	Album     string   `json:"album"`
	Tags      []string `json:"tags"`
	Wiki      string   `json:"wiki"`
	ImageURL  string   `json:"image_url"`
}

type LastFMArtistInfo struct {
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	Listeners int      `json:"listeners"`
	Playcount int      `json:"playcount"`
	Tags      []string `json:"tags"`
	Bio       string   `json:"bio"`
	ImageURL  string   `json:"image_url"`
}

type LastFMTagTrack struct {
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	URL       string `json:"url"`
	Listeners int    `json:"listeners"`
	Playcount int    `json:"playcount"`
	ImageURL  string `json:"image_url"`
}

type LastFMTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Reach int    `json:"reach"`
	URL   string `json:"url"`
}

// LastFMService wraps the Last.fm read API behind a disk cache and a
// per-instance request throttle. Every failure at this boundary is
// reported as "no data", never as an error the caller must handle.
type LastFMService struct {
	cfg        *config.Config
	cache      *apicache.Cache
	throttle   *apicache.Throttle
	httpClient *http.Client
}

func NewLastFMService(cfg *config.Config) (*LastFMService, error) {
	cache, err := apicache.New(cfg.LastFMCacheDir)
	if err != nil {
		return nil, err
	}
	return &LastFMService{
		cfg:        cfg,
		cache:      cache,
		throttle:   apicache.NewThrottle(cfg.LastFMMinInterval),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// signRequest builds the api_sig digest for authenticated calls:
// md5 over all request parameters concatenated in sorted key order,
// with the shared secret appended.
func (s *LastFMService) signRequest(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	b.WriteString(s.cfg.LastFMSharedSecret)

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// makeRequest performs one logical Last.fm call: cache-first, then
// throttled HTTP GET. A hit within the TTL returns without any network
// access or throttle delay.
func (s *LastFMService) makeRequest(method string, params map[string]string, requiresAuth bool) (map[string]interface{}, bool) {
	cacheKey := apicache.Key(method, params)

	if raw, ok := s.cache.Load(cacheKey, s.cfg.LastFMCacheTTL); ok {
		var data map[string]interface{}
		if err := json.Unmarshal(raw, &data); err == nil {
			return data, true
		}
	}

	s.throttle.Wait()

	requestParams := map[string]string{
		"method":  method,
		"api_key": s.cfg.LastFMAPIKey,
		"format":  "json",
	}
	for k, v := range params {
		requestParams[k] = v
	}
	if requiresAuth {
		requestParams["api_sig"] = s.signRequest(requestParams)
	}

	values := url.Values{}
	for k, v := range requestParams {
		values.Set(k, v)
	}

	resp, err := s.httpClient.Get(s.cfg.LastFMBaseURL + "?" + values.Encode())
	if err != nil {
		log.Printf("[LastFM] request error: %v", err)
		return nil, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[LastFM] read error: %v", err)
		return nil, false
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[LastFM] HTTP error %d: %s", resp.StatusCode, string(body))
		return nil, false
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		log.Printf("[LastFM] JSON decode error: %v", err)
		return nil, false
	}

	if code, exists := data["error"]; exists {
		log.Printf("[LastFM] API error %v: %v", code, data["message"])
		return nil, false
	}

	if err := s.cache.Save(cacheKey, body); err != nil {
		log.Printf("[LastFM] cache save failed: %v", err)
	}
	return data, true
}

// SearchTrack searches tracks by title and optional artist name.
func (s *LastFMService) SearchTrack(query, artist string, limit int) []LastFMTrackHit {
	params := map[string]string{
		"track": query,
		"limit": strconv.Itoa(limit),
	}
	if artist != "" {
		params["artist"] = artist
	}

	result, ok := s.makeRequest("track.search", params, false)
	if !ok {
		return nil
	}

	matches := nestedList(result, "results", "trackmatches", "track")
	tracks := make([]LastFMTrackHit, 0, len(matches))
	for _, item := range matches {
		data, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		tracks = append(tracks, LastFMTrackHit{
			Name:      jsonString(data, "name"),
			Artist:    jsonString(data, "artist"),
			URL:       jsonString(data, "url"),
			Listeners: jsonInt(data, "listeners"),
			ImageURL:  imageURL(data["image"]),
		})
	}
	return tracks
}

// SearchArtist searches artists by name.
func (s *LastFMService) SearchArtist(query string, limit int) []LastFMArtistHit {
	params := map[string]string{
		"artist": query,
		"limit":  strconv.Itoa(limit),
	}

	result, ok := s.makeRequest("artist.search", params, false)
	if !ok {
		return nil
	}

	matches := nestedList(result, "results", "artistmatches", "artist")
	artists := make([]LastFMArtistHit, 0, len(matches))
	for _, item := range matches {
		data, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		artists = append(artists, LastFMArtistHit{
			Name:      jsonString(data, "name"),
			URL:       jsonString(data, "url"),
			Listeners: jsonInt(data, "listeners"),
			ImageURL:  imageURL(data["image"]),
		})
	}
	return artists
}

// GetTrackInfo fetches full track metadata with autocorrect enabled.
func (s *LastFMService) GetTrackInfo(artist, track string) (*LastFMTrackInfo, bool) {
	params := map[string]string{
		"artist":      artist,
		"track":       track,
		"autocorrect": "1",
	}

	result, ok := s.makeRequest("track.getInfo", params, false)
	if !ok {
		return nil, false
	}

	data, ok := result["track"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return parseTrackInfo(data), true
}

// GetArtistInfo fetches full artist metadata with autocorrect enabled.
func (s *LastFMService) GetArtistInfo(artist string) (*LastFMArtistInfo, bool) {
	params := map[string]string{
		"artist":      artist,
		"autocorrect": "1",
	}

	result, ok := s.makeRequest("artist.getInfo", params, false)
	if !ok {
		return nil, false
	}

	data, ok := result["artist"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return parseArtistInfo(data), true
}

// GetTopTracksByTag lists the top tracks for a tag (genre).
func (s *LastFMService) GetTopTracksByTag(tag string, limit int) []LastFMTagTrack {
	params := map[string]string{
		"tag":   tag,
		"limit": strconv.Itoa(limit),
	}

	result, ok := s.makeRequest("tag.getTopTracks", params, false)
	if !ok {
		return nil
	}

	items := nestedList(result, "tracks", "track")
	tracks := make([]LastFMTagTrack, 0, len(items))
	for _, item := range items {
		data, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		tracks = append(tracks, LastFMTagTrack{
			Name:      jsonString(data, "name"),
			Artist:    jsonString(jsonMap(data, "artist"), "name"),
			URL:       jsonString(data, "url"),
			Listeners: jsonInt(data, "listeners"),
			Playcount: jsonInt(data, "playcount"),
			ImageURL:  imageURL(data["image"]),
		})
	}
	return tracks
}

// GetTopTags lists the globally most used tags.
func (s *LastFMService) GetTopTags(limit int) []LastFMTag {
	params := map[string]string{
		"limit": strconv.Itoa(limit),
	}

	result, ok := s.makeRequest("chart.getTopTags", params, false)
	if !ok {
		return nil
	}

	items := nestedList(result, "tags", "tag")
	tags := make([]LastFMTag, 0, len(items))
	for _, item := range items {
		data, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		tags = append(tags, LastFMTag{
			Name:  jsonString(data, "name"),
			Count: jsonInt(data, "count"),
			Reach: jsonInt(data, "reach"),
			URL:   jsonString(data, "url"),
		})
	}
	return tags
}

func parseTrackInfo(data map[string]interface{}) *LastFMTrackInfo {
	info := &LastFMTrackInfo{
		Name:      jsonString(data, "name"),
		Artist:    jsonString(jsonMap(data, "artist"), "name"),
		URL:       jsonString(data, "url"),
		Duration:  jsonInt(data, "duration") / 1000, // API reports ms
		Listeners: jsonInt(data, "listeners"),
		Playcount: jsonInt(data, "playcount"),
		Album:     jsonString(jsonMap(data, "album"), "title"),
		Wiki:      jsonString(jsonMap(data, "wiki"), "content"),
		ImageURL:  imageURL(data["image"]),
	}
	info.Tags = tagNames(jsonMap(data, "toptags")["tag"], 10)
	return info
}

func parseArtistInfo(data map[string]interface{}) *LastFMArtistInfo {
	stats := jsonMap(data, "stats")
	info := &LastFMArtistInfo{
		Name:      jsonString(data, "name"),
		URL:       jsonString(data, "url"),
		Listeners: jsonInt(stats, "listeners"),
		Playcount: jsonInt(stats, "playcount"),
		Bio:       jsonString(jsonMap(data, "bio"), "content"),
		ImageURL:  imageURL(data["image"]),
	}
	info.Tags = tagNames(jsonMap(data, "tags")["tag"], 10)
	return info
}

// tagNames extracts up to max tag names; the API returns either a list
// of tag objects or a single object when there is exactly one tag.
func tagNames(raw interface{}, max int) []string {
	switch v := raw.(type) {
	case []interface{}:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if len(names) >= max {
				break
			}
			if tag, ok := item.(map[string]interface{}); ok {
				names = append(names, jsonString(tag, "name"))
			}
		}
		return names
	case map[string]interface{}:
		return []string{jsonString(v, "name")}
	}
	return nil
}

// imageURL picks an image URL by size preference, falling back to the
// first non-empty entry.
func imageURL(raw interface{}) string {
	images, ok := raw.([]interface{})
	if !ok || len(images) == 0 {
		return ""
	}

	for _, size := range []string{"extralarge", "large", "medium", "small"} {
		for _, item := range images {
			img, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if jsonString(img, "size") == size && jsonString(img, "#text") != "" {
				return jsonString(img, "#text")
			}
		}
	}

	for _, item := range images {
		if img, ok := item.(map[string]interface{}); ok {
			if u := jsonString(img, "#text"); u != "" {
				return u
			}
		}
	}
	return ""
}

// JSON extraction helpers. Last.fm mixes string and numeric encodings
// for counters, so jsonInt accepts both.

func jsonString(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func jsonInt(data map[string]interface{}, key string) int {
	if data == nil {
		return 0
	}
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func jsonMap(data map[string]interface{}, key string) map[string]interface{} {
	if data == nil {
		return nil
	}
	if v, ok := data[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// nestedList walks a chain of object keys and returns the list at the
// end, or nil when any level is missing or mistyped.
func nestedList(data map[string]interface{}, keys ...string) []interface{} {
	current := data
	for i, key := range keys {
		if current == nil {
			return nil
		}
		if i == len(keys)-1 {
			if list, ok := current[key].([]interface{}); ok {
				return list
			}
			return nil
		}
		current = jsonMap(current, key)
	}
	return nil
}
