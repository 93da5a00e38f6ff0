package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/genrefy/backend/internal/services"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
}

func NewCatalogHandler(catalogService *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListGenres returns the aggregated genre overview, optionally filtered
// by ?search= and limited by ?limit=.
func (h *CatalogHandler) ListGenres(c *gin.Context) {
	search := c.Query("search")
	limit := queryInt(c, "limit", 50)

	stats, err := h.catalogService.GetGenreStatistics(search, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load genres"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"genres": stats})
}

// GetGenre returns one genre with its artists and top tracks.
func (h *CatalogHandler) GetGenre(c *gin.Context) {
	genreID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid genre id"})
		return
	}

	details, err := h.catalogService.GetGenreWithDetails(genreID, queryInt(c, "track_limit", 10))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, details)
}

// Search runs a combined Last.fm track and artist search.
func (h *CatalogHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}

	tracks, artists := h.catalogService.SearchInLastFM(query, c.Query("type"), queryInt(c, "limit", 10))
	c.JSON(http.StatusOK, gin.H{
		"tracks":  tracks,
		"artists": artists,
	})
}

// GetOrCreateTrack resolves a track via catalog or Last.fm by
// ?artist= and ?track= parameters.
func (h *CatalogHandler) GetOrCreateTrack(c *gin.Context) {
	artist := c.Query("artist")
	track := c.Query("track")
	if artist == "" || track == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters artist and track are required"})
		return
	}

	result, created, err := h.catalogService.GetOrCreateTrackFromLastFM(artist, track)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"track": result, "created": created})
}

// RefreshTrack re-fetches a stored track's Last.fm data.
func (h *CatalogHandler) RefreshTrack(c *gin.Context) {
	trackID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track id"})
		return
	}

	track, err := h.catalogService.UpdateTrackFromLastFM(trackID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"track": track})
}

type favoriteGenresRequest struct {
	GenreIDs []uuid.UUID `json:"genre_ids" binding:"required"`
}

// AddFavoriteGenres adds genres to the user's profile favorites.
func (h *CatalogHandler) AddFavoriteGenres(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req favoriteGenresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	added, existing, err := h.catalogService.AddGenresToFavorites(userID, req.GenreIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"added":    added,
		"existing": existing,
	})
}

// RemoveFavoriteGenre drops one genre from the user's favorites.
func (h *CatalogHandler) RemoveFavoriteGenre(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	genreID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid genre id"})
		return
	}

	if err := h.catalogService.RemoveGenreFromFavorites(userID, genreID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed"})
}

// GetFavorites returns the user's favorite genres with recommendations.
func (h *CatalogHandler) GetFavorites(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	overview, err := h.catalogService.GetUserFavoritesWithRecommendations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load favorites"})
		return
	}

	c.JSON(http.StatusOK, overview)
}

// RecomputeStatistics triggers a full genre statistics refresh.
func (h *CatalogHandler) RecomputeStatistics(c *gin.Context) {
	if err := h.catalogService.RecomputeGenreStatistics(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute statistics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Statistics recomputed"})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}
