package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registered for image.DecodeConfig so avatar dimensions can be
	// read for the formats the site accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gin-gonic/gin"

	"telewarp/auth"
	"telewarp/middleware"
	"telewarp/models"
	"telewarp/storage"
)

const (
	maxAvatarSize = 1 << 20
	maxAvatarDim  = 512
	minUsername   = 3
	minPassword   = 8
)

// UserAPI serves the account endpoint. The action query parameter
// selects the operation, matching the frontend's single-URL contract:
// get, signup, signin, update, upload_avatar.
func UserAPI(store storage.Store, avatarsDir string) gin.HandlerFunc {
	if err := os.MkdirAll(avatarsDir, 0o750); err != nil {
		log.Printf("Failed to create avatars directory: %v", err)
	}

	return func(c *gin.Context) {
		switch c.Query("action") {
		case "get":
			getUser(c, store, avatarsDir)
		case "signup":
			signUp(c, store)
		case "signin":
			signIn(c, store)
		case "update":
			updateProfile(c, store)
		case "upload_avatar":
			uploadAvatar(c, store, avatarsDir)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		}
	}
}

func loadUser(ctx context.Context, store storage.Store, username string) (*models.User, error) {
	raw, err := store.Get(ctx, storage.UserPrefix+strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func saveUser(ctx context.Context, store storage.Store, user *models.User) error {
	value, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return store.Put(ctx, storage.UserPrefix+strings.ToLower(user.Username), value)
}

func getUser(c *gin.Context, store storage.Store, avatarsDir string) {
	target := c.Query("user")
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username"})
		return
	}

	user, err := loadUser(c.Request.Context(), store, target)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if c.Query("type") == "image" {
		if user.AvatarFile == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "No avatar"})
			return
		}
		path := filepath.Join(avatarsDir, user.AvatarFile)
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No avatar"})
			return
		}
		c.File(path)
		return
	}

	c.JSON(http.StatusOK, models.Profile{
		Username:          user.Username,
		Bio:               user.Bio,
		Joined:            user.Joined,
		FeaturedProjectID: user.FeaturedProjectID,
		AvatarURL:         fmt.Sprintf("/api/user-api?action=get&user=%s&type=image", user.Username),
	})
}

func signUp(c *gin.Context, store storage.Store) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil ||
		len(creds.Username) < minUsername || len(creds.Password) < minPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username/password length"})
		return
	}

	ctx := c.Request.Context()
	if _, err := loadUser(ctx, store, creds.Username); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username taken"})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		respondError(c, err)
		return
	}

	salt, hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{
		Username: creds.Username,
		Salt:     salt,
		Hash:     hash,
		Joined:   time.Now().UnixMilli(),
	}
	if err := saveUser(ctx, store, user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func signIn(c *gin.Context, store storage.Store) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing credentials"})
		return
	}

	ctx := c.Request.Context()
	user, err := loadUser(ctx, store, creds.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	if !auth.VerifyPassword(creds.Password, user.Salt, user.Hash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
		return
	}

	token, expires, err := auth.CreateSession(ctx, store, user.Username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, int(time.Until(expires).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": gin.H{"username": user.Username}})
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	Bio               *string `json:"bio"`
	FeaturedProjectID string  `json:"featuredProjectId"`
}

func updateProfile(c *gin.Context, store storage.Store) {
	username := middleware.Username(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameters"})
		return
	}

	ctx := c.Request.Context()
	user, err := loadUser(ctx, store, username)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Bio != nil {
		bio := *req.Bio
		if len(bio) > 500 {
			bio = bio[:500]
		}
		user.Bio = bio
	}
	if req.FeaturedProjectID != "" {
		user.FeaturedProjectID = req.FeaturedProjectID
	}

	if err := saveUser(ctx, store, user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func uploadAvatar(c *gin.Context, store storage.Store, avatarsDir string) {
	username := middleware.Username(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil || avatarFile.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File missing or over 1MB"})
		return
	}

	f, err := avatarFile.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	config, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil || config.Width > maxAvatarDim || config.Height > maxAvatarDim {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Max dimensions 512x512px"})
		return
	}

	ext := strings.ToLower(filepath.Ext(avatarFile.Filename))
	finalName := fmt.Sprintf("avatar_%s%s", strings.ToLower(username), ext)
	if err := c.SaveUploadedFile(avatarFile, filepath.Join(avatarsDir, finalName)); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := loadUser(ctx, store, username)
	if err != nil {
		respondError(c, err)
		return
	}
	user.AvatarFile = finalName
	if err := saveUser(ctx, store, user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
