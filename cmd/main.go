package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/mentislabs/mentis-backend/internal/db"
  "github.com/mentislabs/mentis-backend/internal/handlers"
  "github.com/mentislabs/mentis-backend/internal/logger"
  "github.com/mentislabs/mentis-backend/internal/middleware"
  "github.com/mentislabs/mentis-backend/internal/repos"
  "github.com/mentislabs/mentis-backend/internal/server"
  "github.com/mentislabs/mentis-backend/internal/services"
  "github.com/mentislabs/mentis-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  moodRecordRepo := repos.NewMoodRecordRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  mediaService := services.NewMediaService(log)
  if err := mediaService.AssertReady(context.Background()); err != nil {
    log.Warn("Media tools not ready, voice capture will fail", "error", err)
  }
  transcriptionService := services.NewTranscriptionService(log)
  voiceFeatureService := services.NewVoiceFeatureService(log)
  scoringService, err := services.NewScoringService(log)
  if err != nil {
    log.Error("Could not init ScoringService", "error", err)
    os.Exit(1)
  }
  authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
  moodRecordService := services.NewMoodRecordService(thePG, log, moodRecordRepo, mediaService, transcriptionService, voiceFeatureService, scoringService)
  moodAnalyticsService := services.NewMoodAnalyticsService(thePG, log, moodRecordRepo)
  moodReportService := services.NewMoodReportService(thePG, log, userRepo, moodAnalyticsService)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  moodRecordHandler := handlers.NewMoodRecordHandler(log, moodRecordService, moodAnalyticsService, moodReportService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:       authHandler,
    AuthMiddleware:    authMiddleware,
    MoodRecordHandler: moodRecordHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
