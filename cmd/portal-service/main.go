package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/smarthealth/portal/internal/assistant"
	"github.com/smarthealth/portal/internal/portal"
	"github.com/smarthealth/portal/internal/prescriber"
	"github.com/smarthealth/portal/internal/store"
	"github.com/smarthealth/portal/pkg/config"
	"github.com/smarthealth/portal/pkg/logger"
	"github.com/smarthealth/portal/pkg/monitoring"
)

func main() {
	// Local .env is optional
	_ = godotenv.Load()

	// Initialize logger
	log := logger.New("portal-service", os.Getenv("LOG_LEVEL"))
	log.Info("Starting Portal Service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}

	// Initialize metrics
	var metrics *monitoring.MetricsCollector
	if cfg.Monitoring.Enabled {
		metrics = monitoring.NewMetricsCollector("portal-service")
	}

	// Initialize the in-memory care store with its demo roster
	st := store.New(log, metrics)

	// Initialize the AI gateway and its consumers
	aiClient := assistant.NewGeminiClient(cfg.Assistant, log, metrics)
	chat := assistant.NewChatSession(aiClient, log)
	rxService := prescriber.NewService(st, aiClient, log)

	// Initialize HTTP handlers
	uploads := portal.NewUploadPolicy(cfg.Uploads)
	handlers := portal.NewHandlers(st, chat, rxService, uploads, metrics, log)

	// Setup HTTP router
	router := mux.NewRouter()

	// Add middleware
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware)
	if metrics != nil {
		router.Use(metrics.HTTPMiddleware)
		router.Handle(cfg.Monitoring.MetricsPath, metrics.Handler()).Methods("GET")
	}

	// Detailed liveness report
	health := monitoring.NewHealthManager("portal-service")
	health.RegisterCheck("store", func(ctx context.Context) monitoring.HealthCheck {
		return monitoring.HealthCheck{
			Status:  monitoring.HealthStatusHealthy,
			Message: "In-memory store operational",
			Details: map[string]interface{}{
				"patients":      len(st.Patients()),
				"active_alerts": st.ActiveAlertCount(),
			},
		}
	})
	health.RegisterCheck("assistant", func(ctx context.Context) monitoring.HealthCheck {
		if cfg.Assistant.APIKey == "" {
			return monitoring.HealthCheck{
				Status:  monitoring.HealthStatusDegraded,
				Message: "Assistant API key not configured",
			}
		}
		return monitoring.HealthCheck{
			Status:  monitoring.HealthStatusHealthy,
			Message: "Assistant gateway configured",
			Details: map[string]interface{}{"model": cfg.Assistant.Model},
		}
	})
	health.RegisterCheck("assistant_upstream", monitoring.HTTPProbe(cfg.Assistant.BaseURL, 5*time.Second))
	router.Handle(cfg.Monitoring.HealthPath, health.HTTPHandler()).Methods("GET")

	// Register routes
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	handlers.RegisterRoutes(apiRouter)

	// Setup HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Portal Service")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown server gracefully", "error", err)
	}

	log.Info("Portal Service stopped")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create a response writer wrapper to capture status code
			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			log.HTTPRequest(r.Method, r.URL.Path, wrapper.statusCode, time.Since(start).Milliseconds(), r.RemoteAddr)
		})
	}
}

// corsMiddleware handles CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
