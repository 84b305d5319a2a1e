package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/princinho/sahoaccounts/models"
	"github.com/princinho/sahoaccounts/services"
	"github.com/princinho/sahoaccounts/tokens"
)

// Context keys set by Authenticated for downstream handlers.
const (
	CtxUserID = "userID"
	CtxUser   = "user"
)

// Authenticated gates a route behind a live session. A verified access
// token alone is not enough: the session entry for the carried id must
// still exist in the cache.
func Authenticated(codec *tokens.Codec, auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, err := c.Cookie("access_token")
		if err != nil || accessToken == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "please login to access this resource",
			})
			return
		}

		userID, err := codec.VerifyAccessToken(accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "access token is not valid",
			})
			return
		}

		user, err := auth.CurrentUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": services.ErrSessionNotFound.Error(),
			})
			return
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxUser, user)
		c.Next()
	}
}

// RequireRole allows only the listed roles past. Must run after
// Authenticated.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !allowed[user.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "role is not allowed to access this resource",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser pulls the authenticated user out of the gin context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentUserID pulls the authenticated user id out of the gin context.
func CurrentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
