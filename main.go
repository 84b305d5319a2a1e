package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/princinho/sahoaccounts/cache"
	"github.com/princinho/sahoaccounts/config"
	"github.com/princinho/sahoaccounts/controllers"
	"github.com/princinho/sahoaccounts/database"
	"github.com/princinho/sahoaccounts/mailer"
	"github.com/princinho/sahoaccounts/middleware"
	"github.com/princinho/sahoaccounts/models"
	"github.com/princinho/sahoaccounts/services"
	"github.com/princinho/sahoaccounts/stores"
	"github.com/princinho/sahoaccounts/tokens"
	"github.com/princinho/sahoaccounts/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}
	db := client.Database(cfg.DatabaseName)

	store := stores.NewMongoUserStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal(err)
	}
	if err := utils.SeedAdminUser(ctx, db.Collection("users"), cfg); err != nil {
		log.Fatal(err)
	}

	sessions := cache.NewRedisCache(cfg)
	if err := sessions.Ping(ctx); err != nil {
		log.Fatal(err)
	}

	codec, err := tokens.NewCodec(cfg)
	if err != nil {
		log.Fatal(err)
	}

	smtp, err := mailer.NewSMTPMailer(cfg)
	if err != nil {
		log.Fatal(err)
	}

	auth := services.NewAuthService(store, sessions, codec, smtp)

	r2, err := utils.NewR2Client(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	v := utils.NewAvatarValidator()

	r := gin.New()

	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(cfg.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r.POST("/register", controllers.Register(auth))
	r.POST("/activate-user", controllers.ActivateUser(auth))
	r.POST("/login", controllers.Login(auth, cfg))
	r.POST("/social-auth", controllers.SocialAuth(auth, cfg))
	r.GET("/refresh", controllers.Refresh(auth, cfg))

	authed := r.Group("/")
	authed.Use(middleware.Authenticated(codec, auth))
	{
		authed.GET("/logout", controllers.Logout(auth, cfg))
		authed.GET("/me", controllers.GetUserInfo())
		authed.PUT("/update-user-info", controllers.UpdateUserInfo(auth))
		authed.PUT("/update-user-password", controllers.UpdatePassword(auth, cfg))
		authed.PUT("/update-user-avatar", controllers.UpdateProfilePicture(auth, r2, v))
	}

	admin := r.Group("/admin")
	admin.Use(middleware.Authenticated(codec, auth), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", controllers.GetAllUsers(auth))
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
