package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "github.com/mentislabs/mentis-backend/internal/handlers"
  "github.com/mentislabs/mentis-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler       *handlers.AuthHandler
  AuthMiddleware    *middleware.AuthMiddleware
  MoodRecordHandler *handlers.MoodRecordHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  router.POST("/register", cfg.AuthHandler.Register)
  router.POST("/login", cfg.AuthHandler.Login)

// ===============
// || Protected ||
// ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  mood := protected.Group("/mood-record")
  mood.POST("/analyze-voice", cfg.MoodRecordHandler.AnalyzeVoice)
  mood.POST("/analyze-text", cfg.MoodRecordHandler.AnalyzeText)
  mood.GET("/history", cfg.MoodRecordHandler.History)
  mood.GET("/today", cfg.MoodRecordHandler.Today)
  mood.DELETE("/delete/:id", cfg.MoodRecordHandler.Delete)
  mood.GET("/range", cfg.MoodRecordHandler.Range)
  mood.GET("/compare-periods", cfg.MoodRecordHandler.ComparePeriods)
  mood.GET("/stats", cfg.MoodRecordHandler.Stats)
  mood.GET("/report/pdf", cfg.MoodRecordHandler.ReportPDF)

  return router
}
