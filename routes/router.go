package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/perchapp/perch/config"
	"github.com/perchapp/perch/controllers"
	"github.com/perchapp/perch/middleware"
	"github.com/perchapp/perch/services"
	"github.com/perchapp/perch/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(auth *services.AuthService, users *services.UserService, posts *services.PostService, files *services.FileService) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.GinLogger())
	r.Use(utils.GinRecovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Every request resolves its bearer token exactly once; basic
	// credentials back the legacy per-request identity path.
	r.Use(middleware.TokenAuthentication(auth))
	r.Use(middleware.BasicAuthentication(auth))

	r.Static("/files", cfg.UploadDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(auth)
	userController := controllers.NewUserController(users)
	postController := controllers.NewPostController(posts)
	fileController := controllers.NewFileController(files, cfg.MaxUploadSize)

	api := r.Group("/api/1.0")

	api.POST("/auth", authController.Login)
	api.POST("/logout", authController.Logout)

	api.POST("/users", userController.Register)
	api.POST("/users/token/:token", userController.Activate)
	api.GET("/users", middleware.AuthRequired(), userController.List)
	api.GET("/users/:id", userController.Get)
	api.PUT("/users/:id", userController.Update)
	api.DELETE("/users/:id", userController.Delete)
	api.POST("/user/password", userController.RequestPasswordReset)
	api.PUT("/user/password", userController.CompletePasswordReset)

	api.GET("/posts", postController.List)
	api.POST("/posts", middleware.AuthRequired(), postController.Create)
	api.DELETE("/posts/:id", middleware.AuthRequired(), postController.Delete)
	api.GET("/users/:id/posts", postController.ListForUser)
	api.POST("/posts/attachments", middleware.AuthRequired(), fileController.UploadAttachment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
