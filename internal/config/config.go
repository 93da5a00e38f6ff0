package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Env         string
	APIUrl      string
	FrontendURL string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret               string
	JWTAccessTokenDuration  time.Duration
	JWTRefreshTokenDuration time.Duration

	// Admin
	AdminUsername string
	AdminPassword string
	AdminEmail    string

	// Last.fm
	LastFMAPIKey       string
	LastFMSharedSecret string
	LastFMBaseURL      string
	LastFMCacheDir     string
	LastFMCacheTTL     time.Duration
	LastFMMinInterval  time.Duration

	// Spotify
	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyTokenURL     string
	SpotifyAPIBaseURL   string
	SpotifyMarket       string
	SpotifyCacheDir     string
	SpotifyCacheTTL     time.Duration
	SpotifyRetries      int

	// Catalog
	MaxTagGenres         int
	StatsRecomputeEvery  time.Duration
	StatsRecomputeOnBoot bool

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Security
	BcryptCost        int
	RateLimitRequests int
	RateLimitDuration time.Duration

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		APIUrl:      getEnv("API_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "genrefy"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "genrefy_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "UTC"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// JWT
		JWTSecret:               getEnv("JWT_SECRET", "your-secret-key"),
		JWTAccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", "1h"),
		JWTRefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_TOKEN_DURATION", "168h"),

		// Admin
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@genrefy.app"),

		// Last.fm
		LastFMAPIKey:       getEnv("LASTFM_API_KEY", ""),
		LastFMSharedSecret: getEnv("LASTFM_SHARED_SECRET", ""),
		LastFMBaseURL:      getEnv("LASTFM_BASE_URL", "https://ws.audioscrobbler.com/2.0/"),
		LastFMCacheDir:     getEnv("LASTFM_CACHE_DIR", ".cache/lastfm"),
		LastFMCacheTTL:     getEnvAsDuration("LASTFM_CACHE_TTL", "168h"),
		LastFMMinInterval:  getEnvAsDuration("LASTFM_MIN_INTERVAL", "200ms"),

		// Spotify
		SpotifyClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyTokenURL:     getEnv("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token"),
		SpotifyAPIBaseURL:   getEnv("SPOTIFY_API_BASE_URL", "https://api.spotify.com/v1/"),
		SpotifyMarket:       getEnv("SPOTIFY_MARKET", "US"),
		SpotifyCacheDir:     getEnv("SPOTIFY_CACHE_DIR", ".cache/spotify"),
		SpotifyCacheTTL:     getEnvAsDuration("SPOTIFY_CACHE_TTL", "168h"),
		SpotifyRetries:      getEnvAsInt("SPOTIFY_RETRIES", 2),

		// Catalog
		MaxTagGenres:         getEnvAsInt("MAX_TAG_GENRES", 5),
		StatsRecomputeEvery:  getEnvAsDuration("STATS_RECOMPUTE_EVERY", "1h"),
		StatsRecomputeOnBoot: getEnv("STATS_RECOMPUTE_ON_BOOT", "false") == "true",

		// SMTP
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "info@genrefy.app"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Genrefy"),

		// Security
		BcryptCost:        getEnvAsInt("BCRYPT_COST", 12),
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
