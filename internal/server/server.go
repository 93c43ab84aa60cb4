// Package server exposes documents and question generation over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/abhisek/edugen/internal/questiongen"
	"github.com/abhisek/edugen/internal/store"
)

// Generator runs question generation for a stored document.
// *questiongen.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, documentID int64, req questiongen.GenerationRequest) ([]store.Question, error)
}

// Deps are the collaborators of a Server.
type Deps struct {
	Documents store.DocumentRepo
	Questions store.QuestionRepo
	Generator Generator

	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer

	Logger *zap.Logger
}

// Options tune the HTTP surface.
type Options struct {
	CORSOrigins []string
	ServiceName string
}

// Server is the HTTP API.
type Server struct {
	engine    *gin.Engine
	documents store.DocumentRepo
	questions store.QuestionRepo
	generator Generator
	logger    *zap.Logger
}

// New builds the router with all routes and middleware installed.
func New(deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "edugen"
	}

	s := &Server{
		engine:    gin.New(),
		documents: deps.Documents,
		questions: deps.Questions,
		generator: deps.Generator,
		logger:    logger,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(otelgin.Middleware(serviceName))
	s.engine.Use(requestID())
	s.engine.Use(requestLogger(logger))
	if len(opts.CORSOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := s.engine.Group("/api")

	docs := api.Group("/documents")
	docs.POST("", s.handleCreateDocument)
	docs.GET("", s.handleListDocuments)
	docs.GET("/:id", s.handleGetDocument)

	questions := api.Group("/questions")
	questions.POST("/generate", s.handleGenerate)
	questions.GET("", s.handleListQuestions)
	questions.GET("/:id", s.handleGetQuestion)
	questions.DELETE("/:id", s.handleDeleteQuestion)
	questions.GET("/document/:documentId", s.handleQuestionsByDocument)
	questions.GET("/type/:type", s.handleQuestionsByType)

	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
