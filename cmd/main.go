package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"stratusdrive/config"
	"stratusdrive/controllers"
	"stratusdrive/jobs"
	"stratusdrive/repository"
	"stratusdrive/routes"
	"stratusdrive/services"
	"stratusdrive/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	config.LoadConfig()
	cfg := config.AppConfig

	utils.InitLogger(cfg.Env)

	ctx, cancel := config.CreateContext(10 * time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := config.CreateContext(5 * time.Second)
		defer disconnectCancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Printf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB successfully")

	db := mongoClient.Database(cfg.DatabaseName)
	config.DB = db

	blobStore, err := services.NewB2Service(ctx, cfg.B2ApplicationKeyID, cfg.B2ApplicationKey, cfg.B2BucketName)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	store := repository.NewStore(db)
	fsoRepo := repository.NewFsoRepository(store)
	shareRepo := repository.NewShareRepository(store)
	userRepo := repository.NewUserRepository(store)

	fsoService := services.NewFsoService(fsoRepo, blobStore)
	archiveService := services.NewArchiveService(fsoRepo, blobStore)
	shareService := services.NewShareService(shareRepo, userRepo, fsoService)
	authService := services.NewAuthService(userRepo, fsoService, cfg.JWTSecret, cfg.JWTExpiration, cfg.JWTIssuer, cfg.RefreshTokenTTL)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	routes.SetupRoutes(router, &routes.Controllers{
		Auth:  controllers.NewAuthController(authService),
		Fso:   controllers.NewFsoController(authService, fsoService, archiveService, blobStore),
		Share: controllers.NewShareController(authService, shareService, fsoService, archiveService),
	}, cfg.JWTSecret)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	if cfg.SharePruneInterval > 0 {
		pruner := jobs.NewSharePruner(shareRepo, fsoRepo, cfg.SharePruneInterval)
		go pruner.Start(context.Background())
	}

	log.Printf("Starting StratusDrive server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestOrigin := c.Request.Header.Get("Origin")

		allowOrigin := ""
		if len(allowedOrigins) == 0 {
			allowOrigin = "*"
		} else {
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == requestOrigin {
					allowOrigin = allowedOrigin
					break
				}
			}
		}

		if allowOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
			c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
