// Package http serves the studio's REST and websocket API: provider catalog
// and status, key management, the active session, and prompt CRUD.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sflstudio/internal/catalog"
	"sflstudio/internal/keystore"
	"sflstudio/internal/llm"
	"sflstudio/internal/logging"
	"sflstudio/internal/prompts"
	"sflstudio/internal/providerstore"
	"sflstudio/internal/sessioncache"
)

// Version is stamped by the build; the health endpoint reports it.
var Version = "0.3.0"

// Handlers bundles the request handlers with their dependencies.
type Handlers struct {
	catalog          *catalog.Catalog
	store            *providerstore.Store
	cache            *sessioncache.Cache
	keys             *keystore.Store
	prompts          *prompts.Store
	validator        *llm.Service
	baseURLOverrides map[string]string
}

// ServerConfig carries the HTTP-facing settings.
type ServerConfig struct {
	Addr             string
	Debug            bool
	AllowedOrigins   []string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	BaseURLOverrides map[string]string
}

// Server owns the gin engine, the websocket hub, and the listener lifecycle.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	hub         *Hub
	handlers    *Handlers
	store       *providerstore.Store
	unsubscribe func()
	logger      logging.Logger
	startTime   time.Time
}

// Deps are the domain components the server exposes.
type Deps struct {
	Catalog   *catalog.Catalog
	Store     *providerstore.Store
	Cache     *sessioncache.Cache
	Keys      *keystore.Store
	Prompts   *prompts.Store
	Validator *llm.Service
}

func NewServer(cfg ServerConfig, deps Deps) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	logger := logging.NewComponentLogger("HTTPServer")
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogMiddleware(logging.NewComponentLogger("HTTP")))
	engine.Use(MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowWebSockets = true
	engine.Use(cors.New(corsConfig))

	handlers := &Handlers{
		catalog:          deps.Catalog,
		store:            deps.Store,
		cache:            deps.Cache,
		keys:             deps.Keys,
		prompts:          deps.Prompts,
		validator:        deps.Validator,
		baseURLOverrides: cfg.BaseURLOverrides,
	}
	hub := NewHub(logging.NewComponentLogger("WSHub"))

	s := &Server{
		engine:    engine,
		hub:       hub,
		handlers:  handlers,
		store:     deps.Store,
		logger:    logger,
		startTime: time.Now(),
	}
	s.unsubscribe = deps.Store.Subscribe(func(snap providerstore.Snapshot) {
		hub.Broadcast(WSMessage{Type: "session_update", Data: snap, Timestamp: time.Now()})
	})

	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.Use(JSONMiddleware())

	api.GET("/health", s.handleHealth)
	api.GET("/ws", s.hub.HandleWS)

	providers := api.Group("/providers")
	{
		providers.GET("/available", s.handlers.HandleAvailableProviders)
		providers.GET("/status", s.handlers.HandleProviderStatus)
		providers.GET("/health", s.handlers.HandleProviderHealth)
		providers.GET("/configured", s.handlers.HandleConfiguredProviders)
		providers.POST("/validate", s.handlers.HandleValidateKey)
		providers.GET("/:provider/config", s.handlers.HandleProviderConfig)
		providers.GET("/:provider/presets", s.handlers.HandleProviderPresets)
		providers.POST("/:provider/key", s.handlers.HandleSaveKey)
		providers.DELETE("/:provider/key", s.handlers.HandleDeleteKey)
	}

	api.POST("/validate-parameters", s.handlers.HandleValidateParameters)

	session := api.Group("/session")
	{
		session.GET("", s.handlers.HandleGetSession)
		session.PUT("", s.handlers.HandleUpdateSession)
		session.DELETE("", s.handlers.HandleClearSession)
	}

	promptGroup := api.Group("/prompts")
	{
		promptGroup.POST("", s.handlers.HandleCreatePrompt)
		promptGroup.GET("", s.handlers.HandleListPrompts)
		promptGroup.GET("/:id", s.handlers.HandleGetPrompt)
		promptGroup.PUT("/:id", s.handlers.HandleUpdatePrompt)
		promptGroup.DELETE("/:id", s.handlers.HandleDeletePrompt)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: HealthResponse{
		Status:    "ok",
		Version:   Version,
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	}})
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("SFL Prompt Studio API listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains connections and shuts the hub down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down")
	s.unsubscribe()
	s.hub.Close()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
