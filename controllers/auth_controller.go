package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/princinho/sahoaccounts/config"
	"github.com/princinho/sahoaccounts/dto"
	"github.com/princinho/sahoaccounts/middleware"
	"github.com/princinho/sahoaccounts/services"
	"github.com/princinho/sahoaccounts/tokens"
)

// POST /register
func Register(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		result, err := auth.Register(c.Request.Context(), body.Name, body.Email, body.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success":         true,
			"message":         fmt.Sprintf("please check your email %s to activate your account", result.Email),
			"activationToken": result.ActivationToken,
			"email":           result.Email,
		})
	}
}

// POST /activate-user
func ActivateUser(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ActivationDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		if _, err := auth.ConfirmActivation(c.Request.Context(), body.ActivationToken, body.ActivationCode); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true})
	}
}

// POST /login
func Login(auth *services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		session, err := auth.Login(c.Request.Context(), body.Email, body.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		setAuthCookies(c, cfg, session)
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"user":        session.User,
			"accessToken": session.AccessToken,
		})
	}
}

// POST /social-auth
func SocialAuth(auth *services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.SocialAuthDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		session, err := auth.SocialAuth(c.Request.Context(), body.Email, body.Name, body.Avatar)
		if err != nil {
			respondError(c, err)
			return
		}

		setAuthCookies(c, cfg, session)
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"user":        session.User,
			"accessToken": session.AccessToken,
		})
	}
}

// GET /logout
func Logout(auth *services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing auth context"})
			return
		}

		if err := auth.Logout(c.Request.Context(), userID); err != nil {
			respondError(c, err)
			return
		}

		clearAuthCookies(c, cfg)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "logged out successfully",
		})
	}
}

// GET /refresh
func Refresh(auth *services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken, err := c.Cookie("refresh_token")
		if err != nil || refreshToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "could not refresh token"})
			return
		}

		session, err := auth.Refresh(c.Request.Context(), refreshToken)
		if err != nil {
			respondError(c, err)
			return
		}

		setAuthCookies(c, cfg, session)
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"accessToken": session.AccessToken,
		})
	}
}

// GET /me
func GetUserInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing auth context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    user,
		})
	}
}

// setAuthCookies writes both token cookies with Max-Age matching the
// token lifetimes.
func setAuthCookies(c *gin.Context, cfg *config.Config, session *services.Session) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "access_token",
		Value:    session.AccessToken,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "refresh_token",
		Value:    session.RefreshToken,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(c *gin.Context, cfg *config.Config) {
	for _, name := range []string{"access_token", "refresh_token"} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   cfg.CookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// respondError maps domain errors to 400 with their message; anything
// else is logged and reported as an internal failure.
func respondError(c *gin.Context, err error) {
	for _, domainErr := range []error{
		services.ErrDuplicateEmail,
		services.ErrInvalidCredentials,
		services.ErrInvalidCode,
		services.ErrSessionNotFound,
		services.ErrDelivery,
		services.ErrWrongPassword,
		services.ErrUserNotFound,
		tokens.ErrInvalidToken,
	} {
		if errors.Is(err, domainErr) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": domainErr.Error()})
			return
		}
	}
	log.Printf("internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
}
