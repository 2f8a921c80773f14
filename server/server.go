package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"crop-advisor/cache"
	"crop-advisor/db"
	"crop-advisor/handlers"
	httpHandler "crop-advisor/handlers/http"
	"crop-advisor/metrics"
	"crop-advisor/usecases"
	"crop-advisor/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Deps is everything the HTTP surface needs. Cache and DB may be nil.
type Deps struct {
	Auth     *usecases.AuthUseCase
	Advisory *usecases.AdvisoryUseCase
	Cache    cache.Store
	Sessions *ws.Manager
	Metrics  *metrics.Metrics
	DB       db.Database
	Log      *slog.Logger
}

type Server struct {
	app  *gin.Engine
	deps Deps
}

func NewServer(deps Deps) *Server {
	s := &Server{app: gin.New(), deps: deps}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(gin.Recovery())
	s.app.Use(httpHandler.RequestID())
	s.app.Use(httpHandler.RequestLogger(s.deps.Log))
	s.app.Use(httpHandler.Metrics(s.deps.Metrics))

	// Setup CORS middleware
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	s.app.Use(cors.New(config))

	s.app.GET("/health", s.health)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	// Initialize handlers
	advisoryHandler := httpHandler.NewAdvisoryHandler(s.deps.Advisory, s.deps.Log)
	authHandler := httpHandler.NewAuthHandler(s.deps.Auth, s.deps.Log)
	userHandler := httpHandler.NewUserHandler(s.deps.Auth, s.deps.Log)
	wsHandler := handlers.NewWSHandler(s.deps.Sessions, s.deps.Advisory, s.deps.Metrics, s.deps.Log)
	cacheHandler := handlers.NewCacheHandler(s.deps.Cache, s.deps.Log)

	// Advisory routes
	s.app.GET("/", advisoryHandler.Home)
	s.app.GET("/ask", advisoryHandler.AskInfo)
	s.app.POST("/ask", advisoryHandler.Ask)
	s.app.GET("/ws/ask", wsHandler.HandleAskWS)
	s.app.GET("/ws/sessions", wsHandler.GetSessions)

	// Auth routes
	s.app.POST("/register", authHandler.Register)
	s.app.POST("/login", authHandler.Login)

	protected := s.app.Group("", httpHandler.RequireAuth(s.deps.Auth))
	{
		protected.GET("/profile", authHandler.Profile)

		users := protected.Group("/users")
		{
			users.GET("", userHandler.GetAllUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)
			users.DELETE("/:id", userHandler.DeleteUser)
		}

		// Cache management endpoints
		cacheGroup := protected.Group("/cache")
		{
			cacheGroup.GET("/stats", cacheHandler.GetCacheStats)
			cacheGroup.POST("/purge", cacheHandler.PurgeCache)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "error": "database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) Handler() http.Handler { return s.app }

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.deps.Log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
