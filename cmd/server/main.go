package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"banca-api/internal/config"
	"banca-api/internal/crypto"
	"banca-api/internal/handler"
	"banca-api/internal/repository"
	"banca-api/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sql.Open("postgres", fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	))
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to reach database: %v", err)
	}

	// PGP protects the DPI national-ID column at rest.
	pgpManager, err := crypto.NewPGPManager(cfg.PGPKeyPath)
	if err != nil {
		logger.Fatalf("Failed to initialize PGP: %v", err)
	}

	hmacKey := []byte(os.Getenv("HMAC_SECRET"))
	if len(hmacKey) == 0 {
		logger.Fatal("HMAC_SECRET environment variable is not set")
	}
	if len(hmacKey) < 32 {
		logger.Fatal("HMAC key must be at least 32 bytes long")
	}

	logger.Info("Initializing repositories...")
	userRepo := repository.NewUserRepository(db, logger)
	accountRepo := repository.NewAccountRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)
	productRepo := repository.NewProductRepository(db, logger)
	emailSender := service.NewEmailSender(logger)

	logger.Info("Initializing services...")
	dpiCipher := service.NewDPICipher(pgpManager.GetEntity(), hmacKey)
	authService := service.NewAuthService(userRepo, accountRepo, dpiCipher, emailSender, cfg.JWTSecret, cfg.TokenExpiry, logger)
	userService := service.NewUserService(userRepo, dpiCipher, logger)
	accountService := service.NewAccountService(userRepo, accountRepo, transactionRepo, logger)
	transactionService := service.NewTransactionService(userRepo, accountRepo, transactionRepo, emailSender, logger)
	productService := service.NewProductService(productRepo, logger)
	banguatClient := service.NewBanguatClient(logger)

	if err := authService.EnsureDefaultUsers(context.Background()); err != nil {
		logger.Fatalf("Failed to seed default users: %v", err)
	}

	logger.Info("Initializing API handlers...")
	authHandler := handler.NewAuthHandler(authService, userService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	accountHandler := handler.NewAccountHandler(accountService, logger)
	transactionHandler := handler.NewTransactionHandler(transactionService, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	rateHandler := handler.NewRateHandler(banguatClient, logger)

	router := mux.NewRouter()

	// Public authentication routes.
	publicRouter := router.PathPrefix("/auth").Subrouter()
	authHandler.RegisterRoutes(publicRouter)

	// Protected API routes, JWT required.
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(handler.AuthMiddleware(authService, userService, logger))

	userRouter := apiRouter.PathPrefix("/users").Subrouter()
	userHandler.RegisterRoutes(userRouter)

	accountRouter := apiRouter.PathPrefix("/accounts").Subrouter()
	accountHandler.RegisterRoutes(accountRouter)

	transactionRouter := apiRouter.PathPrefix("/transactions").Subrouter()
	transactionHandler.RegisterRoutes(transactionRouter)

	productRouter := apiRouter.PathPrefix("/products").Subrouter()
	productHandler.RegisterRoutes(productRouter)

	rateRouter := apiRouter.PathPrefix("/rates").Subrouter()
	rateHandler.RegisterRoutes(rateRouter)

	// Nightly cleanup of expired password-reset codes.
	logger.Info("Scheduling maintenance jobs...")
	c := cron.New()
	_, err = c.AddFunc("0 3 * * *", func() {
		if err := authService.PurgeExpiredResetCodes(context.Background()); err != nil {
			logger.WithError(err).Error("Failed to purge expired reset codes")
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule maintenance job: %v", err)
	}
	c.Start()

	server := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on %s", cfg.ServerAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	c.Stop()
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
	logger.Info("Server stopped")
}
