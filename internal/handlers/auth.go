package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/webrtc-recorder/config"
	"github.com/mossy-p/webrtc-recorder/internal/middleware"
)

const tokenTTL = 24 * time.Hour

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string    `json:"token"`
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges the operator credentials for a JWT
func Login(admin config.AdminConfig, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if admin.Password == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Login is disabled: no operator password configured",
			})
			return
		}

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(admin.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(admin.Password)) == 1
		if !userOK || !passOK {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		token, expires, err := middleware.IssueToken(jwtSecret, admin.Username, tokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		c.JSON(http.StatusOK, LoginResponse{
			Token:     token,
			Operator:  admin.Username,
			ExpiresAt: expires,
		})
	}
}
