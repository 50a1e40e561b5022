package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "handyhub/api/swagger" // swagger docs
	"handyhub/internal/config"
	"handyhub/internal/database"
	"handyhub/internal/handler"
	"handyhub/internal/jobs"
	"handyhub/internal/media"
	"handyhub/internal/middleware"
	"handyhub/internal/model"
	"handyhub/internal/notify"
	"handyhub/internal/repository"
	"handyhub/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           HandyHub API
// @version         1.0
// @description     Marketplace API connecting customers with vetted household-service workers.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	gin.SetMode(cfg.HTTP.Mode)

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Notifications: RabbitMQ when configured, otherwise an in-process queue
	renderer := notify.MustRenderer()
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTP.User != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTP)
	} else {
		log.Println("SMTP_USER not set, emails will only be logged")
	}

	var dispatcher notify.Dispatcher
	if cfg.RabbitMQ.URL != "" {
		amqpDispatcher := notify.NewAMQPDispatcher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		defer amqpDispatcher.Close()
		dispatcher = amqpDispatcher

		consumer := notify.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, mailer, renderer, cfg.SMTP.Timeout)
		go consumer.Run(rootCtx)
	} else {
		localQueue := notify.NewLocalQueue(mailer, renderer, 2, 256, cfg.SMTP.Timeout)
		defer localQueue.Close()
		dispatcher = localQueue
	}

	var store media.Store = media.Unavailable{}
	if cloudinaryStore, err := media.NewCloudinaryStore(cfg.Cloudinary); err != nil {
		if cfg.HTTP.Mode == gin.ReleaseMode {
			log.Fatalf("Media storage: %v", err)
		}
		log.Printf("Media storage disabled: %v", err)
	} else {
		store = cloudinaryStore
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	workerRepo := repository.NewWorkerRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	auditService := service.NewAuditService(auditRepo)
	otpService := service.NewOTPService(otpRepo, txManager, cfg.OTP)
	authService := service.NewAuthService(userRepo, tokenRepo, otpService, txManager, dispatcher, cfg.JWT, cfg.OTP.TTL)
	userService := service.NewUserService(userRepo, tokenRepo, auditService, txManager, dispatcher)
	workerService := service.NewWorkerService(workerRepo, userRepo, auditService, txManager, store, dispatcher, cfg.Upload.MaxBytes)
	catalogService := service.NewCatalogService(serviceRepo, bookingRepo, auditService, txManager)
	bookingService := service.NewBookingService(bookingRepo, workerRepo, serviceRepo, userRepo, txManager, dispatcher)
	statisticsService := service.NewStatisticsService(statisticsRepo)
	bootstrapService := service.NewBootstrapService(userRepo, serviceRepo, cfg.Admin)

	if err := bootstrapService.Run(rootCtx); err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	scheduler, err := jobs.NewScheduler(otpService, bookingService)
	if err != nil {
		log.Fatalf("Scheduler setup failed: %v", err)
	}
	scheduler.Start()

	// Initialize Handlers
	authn := middleware.NewAuthenticator(cfg.JWT.Secret, cfg.HTTP.Mode == gin.ReleaseMode)
	handler.RegisterValidators()

	authHandler := handler.NewAuthHandler(authService, authn, cfg.JWT)
	userHandler := handler.NewUserHandler(userService, authn)
	bookingHandler := handler.NewBookingHandler(bookingService, authn)
	workerHandler := handler.NewWorkerHandler(workerService, authn, cfg.Upload.MaxBytes)
	catalogHandler := handler.NewCatalogHandler(catalogService, authn)
	adminHandler := handler.NewAdminHandler(userService, bookingService, workerService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()
	router.MaxMultipartMemory = cfg.Upload.MaxBytes

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// API Routing
	authGroup := router.Group("/auth", middleware.RateLimit(cfg.RateLimit, rdb))
	authHandler.RegisterRoutes(authGroup)
	userHandler.RegisterRoutes(authGroup)

	bookingHandler.RegisterRoutes(router.Group(""))
	workerHandler.RegisterRoutes(router.Group(""))
	catalogHandler.RegisterRoutes(router.Group(""))

	adminGroup := router.Group("/admin", authn.RequireRole(model.RoleAdmin))
	adminHandler.RegisterRoutes(adminGroup)
	statisticsHandler.RegisterRoutes(adminGroup)
	auditHandler.RegisterRoutes(adminGroup)

	server := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server listening on :%s", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("Shutdown signal received, shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	scheduler.Stop(shutdownCtx)
	log.Println("Server stopped")
}
