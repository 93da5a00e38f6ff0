package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/genrefy/backend/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the authenticated user's profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type updateProfileRequest struct {
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatar_url"`
	LastFMUsername string `json:"lastfm_username"`
}

// UpdateProfile updates the editable profile fields.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profile, err := h.userService.UpdateProfile(userID, req.Bio, req.AvatarURL, req.LastFMUsername)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type addFavoriteRequest struct {
	ItemType string `json:"item_type" binding:"required"`
	ItemID   string `json:"item_id" binding:"required"`
}

// AddFavorite bookmarks a genre, track, or artist.
func (h *UserHandler) AddFavorite(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req addFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	favorite, err := h.userService.AddFavorite(userID, req.ItemType, req.ItemID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"favorite": favorite})
}

// RemoveFavorite deletes one bookmark by type and item id.
func (h *UserHandler) RemoveFavorite(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	itemType := c.Param("type")
	itemID := c.Param("id")

	if err := h.userService.RemoveFavorite(userID, itemType, itemID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Favorite removed"})
}

// ListFavorites returns bookmarks, optionally filtered by ?type=.
func (h *UserHandler) ListFavorites(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	favorites, err := h.userService.ListFavorites(userID, c.Query("type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}
