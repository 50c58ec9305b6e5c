package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// readinessProbe is rendered on /ready to prove the engine and its helpers work
const readinessProbe = "{{#repeat 2}}{{#if @first}}o{{else}}k{{/if}}{{/repeat}}"

// HealthServer provides HTTP health check endpoints
type HealthServer struct {
	port        int
	redisClient *redis.Client
	renderer    Renderer
	logger      *zap.Logger
	server      *http.Server
}

// NewHealthServer creates a new health server
func NewHealthServer(port int, redisClient *redis.Client, renderer Renderer, logger *zap.Logger) *HealthServer {
	return &HealthServer{
		port:        port,
		redisClient: redisClient,
		renderer:    renderer,
		logger:      logger,
	}
}

// Handler returns the health endpoints
func (hs *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/ready", hs.handleReady)
	return mux
}

// Start starts the health check server
func (hs *HealthServer) Start() error {
	hs.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", hs.port),
		Handler:           hs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs.logger.Info("starting health server", zap.Int("port", hs.port))

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Error("health server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the health check server
func (hs *HealthServer) Stop() error {
	if hs.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hs.logger.Info("stopping health server")
	return hs.server.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// handleHealth reports the state of every dependency
func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"redis":    hs.checkRedis(ctx),
		"renderer": hs.checkRenderer(ctx),
	}

	status, code := "healthy", http.StatusOK
	for _, check := range checks {
		if check != "healthy" {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	hs.respondJSON(w, code, HealthResponse{Status: status, Checks: checks})
}

// handleReady reports whether the worker can take work
func (hs *HealthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if hs.checkRedis(ctx) != "healthy" || hs.checkRenderer(ctx) != "healthy" {
		hs.respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "not ready"})
		return
	}

	hs.respondJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}

func (hs *HealthServer) checkRedis(ctx context.Context) string {
	if err := hs.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "healthy"
}

func (hs *HealthServer) checkRenderer(ctx context.Context) string {
	out, err := hs.renderer.Render(ctx, readinessProbe, nil)
	if err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	if out != "ok" {
		return fmt.Sprintf("unhealthy: unexpected probe output %q", out)
	}
	return "healthy"
}

// respondJSON writes a JSON response
func (hs *HealthServer) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		hs.logger.Error("failed to encode response", zap.Error(err))
	}
}
