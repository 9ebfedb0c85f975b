package main

import (
	"collaborative-notes/internal/config"
	"collaborative-notes/internal/db"
	"collaborative-notes/internal/middleware"
	"collaborative-notes/internal/note"
	"collaborative-notes/internal/realtime"
	"collaborative-notes/internal/user"
	"collaborative-notes/internal/worker"
	"collaborative-notes/redis"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed database with initial data (for development)
	db.SeedData()

	// Initialize Redis
	redis.InitRedis()

	// Background workers for persistence commits
	pool := worker.NewWorkerPool(4, 1000)

	// Initialize repository
	userRepo := user.NewRepository(db.AppDb)
	noteRepo := note.NewRepository(db.AppDb)
	// Initialize service
	userService := user.NewService(userRepo)
	noteService := note.NewService(noteRepo)
	// Realtime core: registry owns presence, the bridge owns debounced
	// saves, the coordinator routes everything
	registry := realtime.NewRegistry()
	bridge := realtime.NewBridge(noteService, pool, config.AppConfig.SaveDebounce)
	coordinator := realtime.NewCoordinator(registry, bridge, noteService)
	// Initialize handler
	noteHandler := note.NewHandler(noteService)
	userHandler := user.NewHandler(userService)
	wsHandler := realtime.NewHandler(coordinator)

	authMiddleware := &middleware.Auth{UserService: userService}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// Auth routes
	router.POST("/api/auth/signup", userHandler.Register)
	router.POST("/api/auth/login", userHandler.Login)
	router.POST("/api/auth/refresh-token", userHandler.RefreshToken)
	router.POST("/api/auth/logout", authMiddleware.AuthMiddleWare(), userHandler.Logout)
	router.GET("/api/auth/me", authMiddleware.AuthMiddleWare(), userHandler.GetProfile)

	// Public note routes
	router.GET("/api/notes/public", noteHandler.ShowPublicNotes)
	router.GET("/api/notes/public/:id", noteHandler.ShowPublicNote)

	// Protected note routes
	notes := router.Group("/api/notes", authMiddleware.AuthMiddleWare())
	notes.GET("", noteHandler.ShowUserNotes)
	notes.POST("", noteHandler.Create)
	notes.GET("/:id", noteHandler.ShowNote)
	notes.PATCH("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)

	// Realtime editing
	router.GET("/ws", authMiddleware.AuthMiddleWare(), wsHandler.Serve)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	// Let queued saves drain before exiting
	pool.Shutdown()

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
