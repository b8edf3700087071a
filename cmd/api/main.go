//	@title			ComicHub API
//	@version		1.0
//	@description	Backend for ComicHub — a comic-sharing platform.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/comichub/service/internal/auth"
	"github.com/comichub/service/internal/comic"
	"github.com/comichub/service/internal/config"
	"github.com/comichub/service/internal/db"
	appMiddleware "github.com/comichub/service/internal/middleware"
	"github.com/comichub/service/internal/storage"
	"github.com/comichub/service/internal/upload"
	"github.com/comichub/service/internal/user"

	_ "github.com/comichub/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	var store storage.ObjectStore
	if cfg.StorageConfigured() {
		minioStore, err := storage.NewMinioStore(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StoragePublicBase,
			cfg.StorageUseSSL,
		)
		if err != nil {
			log.Fatalf("object storage init failed: %v", err)
		}
		store = minioStore
	} else {
		log.Println("WARNING: object storage not configured, uploads will receive placeholder URLs")
		store = storage.NewDisabled()
	}

	uploads := upload.NewOrchestrator(store)
	cleanup := upload.NewLifecycle(store)

	comicPolicy := upload.Policy{
		AllowedMimeTypes:   cfg.AllowedMimeTypes,
		MaxFileSizeBytes:   cfg.MaxComicFileSize,
		MaxFilesPerRequest: cfg.MaxFilesPerRequest,
	}
	avatarPolicy := upload.Policy{
		AllowedMimeTypes:   cfg.AllowedMimeTypes,
		MaxFileSizeBytes:   cfg.MaxAvatarFileSize,
		MaxFilesPerRequest: 1,
	}

	// Wire dependencies: repository → service → handler
	userRepo := user.NewRepository(pool)
	userSvc := user.NewService(userRepo, uploads, cleanup, avatarPolicy)
	userHandler := user.NewHandler(userSvc)

	comicRepo := comic.NewRepository(pool)
	comicSvc := comic.NewService(comicRepo, store, uploads, cleanup, comicPolicy)
	comicHandler := comic.NewHandler(comicSvc)

	authSvc := auth.NewService(userRepo, userSvc, cfg)
	authHandler := auth.NewHandler(authSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Comics: browsing is public, publishing and deleting require auth
		r.Route("/comics", func(r chi.Router) {
			r.Get("/", comicHandler.List)
			r.Get("/search", comicHandler.Search)
			r.Get("/{id}", comicHandler.Get)
			r.Get("/{id}/download/{page}", comicHandler.Download)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
				r.Post("/", comicHandler.Upload)
				r.Get("/mine", comicHandler.Mine)
				r.Delete("/{id}", comicHandler.Delete)
			})
		})

		// Protected user endpoints
		r.Route("/users", func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Get("/me", userHandler.GetMe)
			r.Patch("/me", userHandler.UpdateProfile)
			r.Post("/me/avatar", userHandler.UploadAvatar)
			r.Delete("/me/avatar", userHandler.DeleteAvatar)
			r.Get("/username-check", userHandler.CheckUsername)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
