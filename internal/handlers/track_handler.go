package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/genrefy/backend/internal/services"
)

type TrackHandler struct {
	trackService *services.TrackService
	shareService *services.ShareService
}

func NewTrackHandler(trackService *services.TrackService, shareService *services.ShareService) *TrackHandler {
	return &TrackHandler{
		trackService: trackService,
		shareService: shareService,
	}
}

type importTrackRequest struct {
	URL   string `json:"url" binding:"required"`
	Genre string `json:"genre"`
}

// ImportFromSpotify imports a track by Spotify URL, URI, or id.
func (h *TrackHandler) ImportFromSpotify(c *gin.Context) {
	var req importTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	track, message, err := h.trackService.AddTrackFromSpotify(req.URL, req.Genre)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"track":   track,
		"message": message,
	})
}

// SearchSpotify searches Spotify for tracks without importing them.
func (h *TrackHandler) SearchSpotify(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}

	tracks, err := h.trackService.SearchTracksInSpotify(query, queryInt(c, "limit", 10))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// GetTrack returns one stored track with artist and genres.
func (h *TrackHandler) GetTrack(c *gin.Context) {
	trackID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track id"})
		return
	}

	track, err := h.trackService.GetTrackDetails(trackID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"track":     track,
		"share_url": h.shareService.TrackShareURL(track.ID.String()),
	})
}

// GetTrackBySpotify looks a stored track up by its Spotify id.
func (h *TrackHandler) GetTrackBySpotify(c *gin.Context) {
	track, err := h.trackService.GetTrackBySpotifyID(c.Param("spotify_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"track": track})
}

// GetTracksByGenre lists a genre's tracks by Spotify popularity.
func (h *TrackHandler) GetTracksByGenre(c *gin.Context) {
	genreID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid genre id"})
		return
	}

	tracks, err := h.trackService.GetTracksByGenre(genreID, queryInt(c, "limit", 20))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tracks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// ShareQR renders a PNG QR code for a track's public page.
func (h *TrackHandler) ShareQR(c *gin.Context) {
	trackID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track id"})
		return
	}

	// 404 for unknown tracks before rendering anything
	if _, err := h.trackService.GetTrackDetails(trackID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	png, err := h.shareService.GenerateTrackQR(trackID.String())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
