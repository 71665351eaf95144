// Package ui exposes the wizard over a JSON REST API. Every response uses
// the same success/error envelope the statistics backend speaks, so the web
// client handles exactly one shape.
package ui

import (
	"time"

	"github.com/gin-gonic/gin"

	"ncsresearch/adapters/backend"
	"ncsresearch/internal"
	"ncsresearch/internal/container"
)

// Server is the HTTP front of the platform
type Server struct {
	router *gin.Engine
	deps   *container.Container
	log    *internal.Logger
}

// NewServer builds the router over an initialized container
func NewServer(deps *container.Container) *Server {
	gin.SetMode(deps.Config.Server.GinMode)

	s := &Server{
		router: gin.New(),
		deps:   deps,
		log:    internal.DefaultLogger.Named("http"),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLog())
	s.setupRoutes()
	return s
}

// Router exposes the underlying engine (used in tests)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server on the configured port
func (s *Server) Run() error {
	addr := ":" + s.deps.Config.Server.Port
	s.log.Info("listening on %s", addr)
	return s.router.Run(addr)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	api.GET("/health", s.handleHealth)
	api.GET("/backend/status", s.handleBackendStatus)
	api.GET("/analyses", s.handleAnalysisCatalog)

	auth := api.Group("/auth")
	{
		auth.POST("/login", s.handleLogin)
		auth.POST("/logout", s.handleLogout)
		auth.GET("/me", s.handleCurrentUser)
	}

	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handlePutSettings)

	sessions := api.Group("/sessions", s.withUser())
	{
		sessions.POST("", s.handleCreateSession)
		sessions.GET("", s.handleListSessions)
		sessions.GET("/:id", s.handleGetSession)
		sessions.DELETE("/:id", s.handleDeleteSession)

		sessions.POST("/:id/upload", s.handleUpload)
		sessions.POST("/:id/upload-offline", s.handleUploadOffline)
		sessions.POST("/:id/advance", s.handleAdvance)
		sessions.POST("/:id/back", s.handleBack)
		sessions.POST("/:id/restart", s.handleRestart)

		sessions.POST("/:id/variables", s.handleAddVariable)
		sessions.PUT("/:id/variables/:variableID", s.handleUpdateVariable)
		sessions.DELETE("/:id/variables/:variableID", s.handleDeleteVariable)
		sessions.POST("/:id/variables/:variableID/unassign-group", s.handleUnassignGroup)

		sessions.PUT("/:id/groups/:name", s.handleRenameGroup)
		sessions.DELETE("/:id/groups/:name", s.handleDeleteGroup)
		sessions.PUT("/:id/groups/:name/demographic", s.handleSetGroupDemographic)

		sessions.PUT("/:id/demographics/:key", s.handleMapDemographic)
		sessions.POST("/:id/demographics/:key/ranks", s.handleAddRank)

		sessions.POST("/:id/relationships", s.handleAddRelationship)
		sessions.DELETE("/:id/relationships/:idx", s.handleRemoveRelationship)

		sessions.PUT("/:id/analyses", s.handleSelectAnalyses)
		sessions.POST("/:id/run", s.handleRunAnalysis)

		sessions.GET("/:id/export", s.handleExport)
		sessions.POST("/:id/export/backend", s.handleExportBackend)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	respondOK(c, gin.H{
		"status":         "ok",
		"backend_online": s.deps.Poller.Online(),
	})
}

func (s *Server) handleBackendStatus(c *gin.Context) {
	env := s.deps.Backend.Health(c.Request.Context())
	if !env.Success {
		respondOK(c, gin.H{"online": false, "status": "offline", "error": env.Error})
		return
	}
	respondOK(c, gin.H{"online": true, "status": backend.BackendStatusFromHealth(env.Data)})
}
