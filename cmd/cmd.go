package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"party-radar-backend/internal/config"
	"party-radar-backend/internal/handlers"
	"party-radar-backend/internal/middleware"
	"party-radar-backend/internal/repository"
	"party-radar-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Apply schema migrations
	if err := repository.Migrate(context.Background(), cfg.Database.DSN()); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	beaconRepo := repository.NewBeaconRepository(db)
	partyRepo := repository.NewPartyRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize services
	identityService := services.NewIdentityService(cfg.JWT.Secret)
	profileService := services.NewProfileService(profileRepo)
	wsHub := services.NewWSHub()
	beaconService := services.NewBeaconService(beaconRepo, profileService, wsHub)
	partyService := services.NewPartyService(partyRepo, profileService)
	pushService, err := services.NewPushService(cfg.APNS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push service")
	}
	chatService := services.NewChatService(messageRepo, partyRepo, profileService, wsHub, pushService)
	avatarService, err := services.NewAvatarService(cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create avatar service")
	}
	geocoderService := services.NewGeocoderService(cfg.Geocoder)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(identityService)
	beaconHandler := handlers.NewBeaconHandler(beaconService)
	partyHandler := handlers.NewPartyHandler(partyService)
	chatHandler := handlers.NewChatHandler(chatService, partyService)
	profileHandler := handlers.NewProfileHandler(profileService, avatarService)
	geocodeHandler := handlers.NewGeocodeHandler(geocoderService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, identityService, beaconService, chatService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/anonymous", authHandler.CreateAnonymous)
		r.Get("/geo/search", geocodeHandler.Search)
		r.Get("/geo/suggest", geocodeHandler.Suggest)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(identityService))
			r.Get("/beacons/nearby", beaconHandler.FindNearby)
			r.Post("/beacons", beaconHandler.CreateBeacon)
			r.Delete("/beacons/{beacon_id}", beaconHandler.DeactivateBeacon)
			r.Post("/parties/{beacon_id}/join", partyHandler.Join)
			r.Get("/parties/{beacon_id}/members", partyHandler.Members)
			r.Get("/chats", chatHandler.ListConversations)
			r.Get("/chats/{beacon_id}/messages", chatHandler.History)
			r.Post("/chats/{beacon_id}/messages", chatHandler.SendMessage)
			r.Get("/profile", profileHandler.GetProfile)
			r.Patch("/profile", profileHandler.UpdateProfile)
			r.Post("/profile/avatar-upload", profileHandler.AvatarUploadURL)
			r.Post("/profile/avatar", profileHandler.CommitAvatar)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
