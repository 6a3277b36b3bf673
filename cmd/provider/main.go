package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ConfirmRequest struct {
	TransactionType string  `json:"transaction_type" binding:"required,oneof=deposit withdrawal transfer"`
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	Provider        string  `json:"provider" binding:"required"`
	PhoneNumber     string  `json:"phone_number" binding:"required"`
}

type ConfirmResponse struct {
	ReferenceNumber string    `json:"reference_number"`
	Status          string    `json:"status"`
	ProviderID      string    `json:"provider_id"`
	ProcessedAt     time.Time `json:"processed_at"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	ProviderID  string    `json:"provider_id"`
	Timestamp   time.Time `json:"timestamp"`
	SuccessRate float64   `json:"success_rate"`
}

type Config struct {
	Port        string        `env:"PORT,default=8081"`
	SuccessRate float64       `env:"SUCCESS_RATE,default=1"`
	PendingRate float64       `env:"PENDING_RATE,default=0"`
	MinDelay    time.Duration `env:"MIN_DELAY,default=50ms"`
	MaxDelay    time.Duration `env:"MAX_DELAY,default=300ms"`
}

var referencePrefixes = map[string]string{
	"m-pesa":       "MP",
	"tigo pesa":    "TP",
	"airtel money": "AM",
	"halopesa":     "HP",
}

// MockProvider simulates a mobile-money operator confirming agent transactions.
type MockProvider struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
	pendingRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	providerID  string
}

func NewMockProvider(cfg Config) *MockProvider {
	return &MockProvider{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: cfg.SuccessRate,
		pendingRate: cfg.PendingRate,
		minDelay:    cfg.MinDelay,
		maxDelay:    cfg.MaxDelay,
		providerID:  "MOCK_PROVIDER_" + uuid.NewString()[:8],
	}
}

// Reference builds a provider reference such as MP3F9A21C07B.
func Reference(provider string) string {
	prefix, ok := referencePrefixes[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		prefix = "MP"
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(id[:10])
}

func (m *MockProvider) roll() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func (m *MockProvider) delay() time.Duration {
	if m.maxDelay <= m.minDelay {
		return m.minDelay
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minDelay + time.Duration(m.rng.Int63n(int64(m.maxDelay-m.minDelay)))
}

// confirm returns nil when the simulated operator declines the transaction.
func (m *MockProvider) confirm(req *ConfirmRequest) *ConfirmResponse {
	time.Sleep(m.delay())
	if m.roll() >= m.successRate {
		return nil
	}
	status := "completed"
	if m.roll() < m.pendingRate {
		status = "pending"
	}
	return &ConfirmResponse{
		ReferenceNumber: Reference(req.Provider),
		Status:          status,
		ProviderID:      m.providerID,
		ProcessedAt:     time.Now().UTC(),
	}
}

type Handler struct {
	provider *MockProvider
}

func NewHandler(provider *MockProvider) *Handler {
	return &Handler{provider: provider}
}

func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	resp := h.provider.confirm(&req)
	if resp == nil {
		log.Warn().
			Str("provider", req.Provider).
			Str("phone", req.PhoneNumber).
			Float64("amount", req.Amount).
			Msg("transaction declined")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "transaction declined by operator", "error_code": "DECLINED"})
		return
	}

	log.Info().
		Str("reference", resp.ReferenceNumber).
		Str("type", req.TransactionType).
		Str("provider", req.Provider).
		Float64("amount", req.Amount).
		Msg("transaction confirmed")
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		ProviderID:  h.provider.providerID,
		Timestamp:   time.Now(),
		SuccessRate: h.provider.successRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/transactions/confirm", handler.Confirm)
		v1.GET("/health", handler.HealthCheck)
	}
	router.GET("/health", handler.HealthCheck)
	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to read configuration")
	}

	log.Info().
		Str("port", cfg.Port).
		Float64("success_rate", cfg.SuccessRate).
		Dur("min_delay", cfg.MinDelay).
		Dur("max_delay", cfg.MaxDelay).
		Msg("starting mock mobile-money provider")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      SetupRouter(NewHandler(NewMockProvider(cfg))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
