// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes screening over HTTP with gin. Batch screening is
// streamed to the client as server-sent events.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/review-engine/internal/catalog"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/screen"
	"github.com/pdiddy/review-engine/pkg/types"
)

// Store is the read side of persistence the server exposes.
type Store interface {
	ListProjects(ctx context.Context) ([]types.Project, error)
	GetProject(ctx context.Context, id string) (*types.Project, error)
	ListProjectArticles(ctx context.Context, projectID string, status types.ScreeningStatus) ([]types.ProjectArticle, error)
	ListScreeningEvents(ctx context.Context, articleID string) ([]types.ScreeningEvent, error)
}

// Options wires the server's collaborators.
type Options struct {
	Providers    *llm.Registry
	Screener     *screen.Screener
	Orchestrator *screen.Orchestrator
	Store        Store

	// Resolver enables search ingestion under /api/projects/:id/searches.
	Resolver *catalog.Resolver

	// Metrics serves /metrics when non-nil.
	Metrics http.Handler

	// AllowOrigins enables CORS for the listed origins.
	AllowOrigins []string

	Logger *zap.Logger
}

// Server routes HTTP requests to the screening components.
type Server struct {
	router    *gin.Engine
	providers *llm.Registry
	screener  *screen.Screener
	orch      *screen.Orchestrator
	store     Store
	resolver  *catalog.Resolver
	logger    *zap.Logger
}

// New builds the router. Set the gin mode before calling New.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		router:    gin.New(),
		providers: opts.Providers,
		screener:  opts.Screener,
		orch:      opts.Orchestrator,
		store:     opts.Store,
		resolver:  opts.Resolver,
		logger:    opts.Logger,
	}

	s.router.Use(gin.Recovery(), requestLogger(s.logger))
	if len(opts.AllowOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Authorization", "Content-Type", "X-Requested-With"},
		}))
	}

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	analysis := s.router.Group("/api/analysis")
	{
		analysis.GET("/providers", s.listProviders)
		analysis.GET("/models", s.listModels)
		analysis.POST("/test-connection", s.testConnection)
		analysis.POST("/preview-prompt", s.previewPrompt)
		analysis.POST("/single", s.screenSingle)
		analysis.POST("/screen", s.screenAndSave)
		analysis.POST("/batch-screen", s.batchScreen)
	}

	if s.store != nil {
		api := s.router.Group("/api")
		api.GET("/projects", s.listProjects)
		api.GET("/projects/:id/articles", s.listArticles)
		api.GET("/articles/:id/screenings", s.listScreenings)
	}
	if s.resolver != nil {
		s.router.POST("/api/projects/:id/searches", s.ingestSearch)
	}
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Write timeouts are left unset because batch streams can run
// for as long as the batch does.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
