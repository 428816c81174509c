package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/controller"
	sessiongrpc "github.com/vibast-solutions/ms-go-jobtracker/app/grpc"
	"github.com/vibast-solutions/ms-go-jobtracker/app/hasher"
	"github.com/vibast-solutions/ms-go-jobtracker/app/middleware"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/app/token"
	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start the HTTP (Echo) API and, when GRPC_API_KEY is set, the internal gRPC session API.`,
	Run:   runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

type services struct {
	sessions     service.SessionService
	users        service.UserService
	applications service.ApplicationService
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if serveMigrate {
		if err := applyMigrations(cfg.DSN()); err != nil {
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
	}

	svc := newServices(cfg, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.GRPC.Enabled() {
		go startGRPCServer(ctx, cfg, svc.sessions)
	} else {
		logrus.Info("GRPC_API_KEY not set, internal gRPC API disabled")
	}

	startHTTPServer(ctx, cfg, db, svc)
}

func newServices(cfg *config.Config, db *sql.DB) services {
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	applicationRepo := repository.NewApplicationRepository(sqlx.NewDb(db, "mysql"))

	signer := token.NewSigner(cfg.JWT)
	passwords := hasher.NewBcrypt(cfg.Security.BcryptCost)

	return services{
		sessions:     service.NewSessionService(userRepo, refreshTokenRepo, signer, passwords),
		users:        service.NewUserService(userRepo),
		applications: service.NewApplicationService(applicationRepo),
	}
}

func newHTTPServer(cfg *config.Config, db *sql.DB, svc services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: func() string { return ulid.Make().String() },
	}))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogHost:      true,
		LogLatency:   true,
		LogUserAgent: true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"request_id": v.RequestID,
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(middleware.Metrics)
	e.Use(echomiddleware.Recover())
	e.Use(corsMiddleware(cfg.HTTP.AllowedOrigins))
	e.Use(middleware.SlowRequestWatchdog(cfg.HTTP.SlowRequestThreshold))

	authController := controller.NewAuthController(svc.sessions, cfg.Cookie)
	userController := controller.NewUserController(svc.users)
	applicationController := controller.NewApplicationController(svc.applications)
	healthController := controller.NewHealthController(db)
	authMiddleware := middleware.NewAuthMiddleware(svc.sessions)

	e.GET("/health", healthController.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/auth")
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.POST("/refresh", authController.Refresh)
	auth.POST("/logout", authController.Logout)

	users := e.Group("/users", authMiddleware.RequireAuth)
	users.GET("/me", userController.Me)
	users.PATCH("/me", userController.UpdateMe)

	applications := e.Group("/applications", authMiddleware.RequireAuth)
	applications.GET("", applicationController.List)
	applications.POST("", applicationController.Create)
	applications.GET("/:id", applicationController.Get)
	applications.PUT("/:id", applicationController.Update)
	applications.DELETE("/:id", applicationController.Delete)

	return e
}

// corsMiddleware allows credentials only for an explicit origin list.
func corsMiddleware(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		return echomiddleware.CORS()
	}
	return echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	})
}

func startHTTPServer(ctx context.Context, cfg *config.Config, db *sql.DB, svc services) {
	e := newHTTPServer(cfg, db, svc)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Failed to shut down HTTP server")
		}
	}()

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
	logrus.Info("HTTP server stopped")
}

func startGRPCServer(ctx context.Context, cfg *config.Config, sessions service.SessionService) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcServer, healthServer := sessiongrpc.NewServer(sessions, cfg.GRPC.APIKey)
	go func() {
		<-ctx.Done()
		healthServer.SetServingStatus(sessiongrpc.SessionServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		grpcServer.GracefulStop()
	}()

	logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
	if err := grpcServer.Serve(lis); err != nil {
		logrus.WithError(err).Fatal("Failed to start gRPC server")
	}
}
