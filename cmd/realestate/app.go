package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkiryanov/realestate/internal/db"
	"github.com/nkiryanov/realestate/internal/filestore"
	"github.com/nkiryanov/realestate/internal/handlers"
	"github.com/nkiryanov/realestate/internal/handlers/middleware"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/repository/postgres"
	"github.com/nkiryanov/realestate/internal/service/appointment"
	"github.com/nkiryanov/realestate/internal/service/auth"
	"github.com/nkiryanov/realestate/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/realestate/internal/service/property"
	"github.com/nkiryanov/realestate/internal/service/user"
)

const (
	uploadsURL      = "/uploads"
	shutdownTimeout = 5 * time.Second
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	limiter *middleware.RateLimiter
	pool    *pgxpool.Pool
	logger  logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config. Err: %w", err)
	}

	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Token manager goes before db, so wrong algorithm fails fast
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		Alg:        c.JWTAlgorithm,
		AccessTTL:  c.AccessTTL(),
		RefreshTTL: c.RefreshTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	files, err := filestore.New(c.UploadsDir, uploadsURL)
	if err != nil {
		return nil, fmt.Errorf("error while opening uploads dir. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	authService, err := auth.NewService(auth.Config{Logger: l}, tokenManager, storage.User())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	appointmentService := appointment.NewService(storage, l)
	propertyService := property.NewService(storage, files, l)
	userService := user.NewService(auth.DefaultHasher, storage, files, l)

	limiter := middleware.NewRateLimiter(c.LoginRateLimit, c.LoginRateLimit)

	mux := handlers.NewRouter(
		authService,
		appointmentService,
		propertyService,
		userService,
		handlers.RouterConfig{
			UploadsDir:  files.Root(),
			UploadsURL:  uploadsURL,
			CORS:        middleware.DefaultCORSConfig(c.CORSOrigins...),
			AuthLimiter: limiter,
			Logger:      l,
		},
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		limiter:    limiter,
		pool:       pool,
		logger:     l,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.pool.Close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go s.limiter.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
