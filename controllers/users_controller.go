package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/princinho/sahoaccounts/config"
	"github.com/princinho/sahoaccounts/dto"
	"github.com/princinho/sahoaccounts/middleware"
	"github.com/princinho/sahoaccounts/services"
	"github.com/princinho/sahoaccounts/utils"
)

// PUT /update-user-info
func UpdateUserInfo(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateUserInfoDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing auth context"})
			return
		}

		user, err := auth.UpdateInfo(c.Request.Context(), userID, services.UpdateUserParams{
			Name:  body.Name,
			Email: body.Email,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
	}
}

// PUT /update-user-password
func UpdatePassword(auth *services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdatePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing auth context"})
			return
		}

		if err := auth.ChangePassword(c.Request.Context(), userID, body.CurrentPassword, body.NewPassword); err != nil {
			respondError(c, err)
			return
		}

		// Credential changed: the session is gone, make the client
		// log in again.
		clearAuthCookies(c, cfg)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "password updated, please login again",
		})
	}
}

// GET /admin/users
func GetAllUsers(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := auth.ListUsers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
	}
}

// PUT /update-user-avatar
func UpdateProfilePicture(auth *services.AuthService, r2 *utils.R2Client, v *utils.AvatarValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing auth context"})
			return
		}
		user, _ := middleware.CurrentUser(c)

		fileHeader, err := c.FormFile("avatar")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "avatar file is required"})
			return
		}
		if _, err := v.ValidateFile(fileHeader); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		avatar, err := r2.UploadAvatar(c.Request.Context(), user.Name, fileHeader)
		if err != nil {
			respondError(c, err)
			return
		}

		updated, err := auth.UpdateAvatar(c.Request.Context(), userID, avatar)
		if err != nil {
			respondError(c, err)
			return
		}

		// best effort cleanup of the replaced object
		if user.Avatar != nil && user.Avatar.ObjectName != "" {
			if err := r2.DeleteObject(c.Request.Context(), user.Avatar.ObjectName); err != nil {
				log.Printf("delete old avatar: %v", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "user": updated})
	}
}
