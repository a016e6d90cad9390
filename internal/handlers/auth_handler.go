package handlers

import (
	"crypto/subtle"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jutorials/backend/internal/config"
	"github.com/jutorials/backend/internal/utils"
)

// AuthHandler issues admin API tokens
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

type loginRequest struct {
	AdminID int64  `json:"admin_id" binding:"required"`
	APIKey  string `json:"api_key" binding:"required"`
}

// Login exchanges the shared admin API key for a JWT. Only Telegram admin
// ids from the configured allowlist can authenticate.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "admin_id and api_key are required"})
		return
	}

	apiKey := os.Getenv("ADMIN_API_KEY")
	if apiKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(req.APIKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !h.isAdmin(req.AdminID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(req.AdminID, time.Duration(h.cfg.JWT.Expiration)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int64(time.Duration(h.cfg.JWT.Expiration) * time.Hour / time.Second),
	})
}

func (h *AuthHandler) isAdmin(id int64) bool {
	for _, adminID := range h.cfg.Telegram.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}
