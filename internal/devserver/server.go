// Package devserver is a local stand-in for the chat platform: it signs
// end-user tokens, serves the chat REST API and the Socket.IO chat stream,
// and exposes a small agent console for driving chats by hand.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ccai-examples/ccai-demo/pkg/logger"
	"github.com/ccai-examples/ccai-demo/pkg/wire"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server is a configured devserver.
type Server struct {
	cfg     *Config
	store   *Store
	signer  *Signer
	hub     *Hub
	metrics *Metrics
	router  *gin.Engine
}

// New opens the database and builds the router.
func New(cfg *Config) (*Server, error) {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	signer, err := NewSigner(cfg.SigningSecret)
	if err != nil {
		return nil, err
	}
	logger.Infof("Opening database: %s", cfg.DatabasePath)
	store, err := OpenStore(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		signer:  signer,
		metrics: NewMetrics(),
	}
	s.hub = NewHub(signer, store, s.metrics)
	s.router = s.newRouter(s.hub)
	return s, nil
}

func (s *Server) newRouter(hub broadcaster) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(loggingMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ccai devserver")
	})
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	a := &api{store: s.store, hub: hub, signer: s.signer, metrics: s.metrics}
	a.register(router)

	if s.hub != nil {
		router.Any(wire.SocketPath, s.hub.Handler())
		router.Any(wire.SocketPath+"/*any", s.hub.Handler())
	}
	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("ccai devserver listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.hub.Close()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases the database.
func (s *Server) Close() error {
	return s.store.Close()
}
