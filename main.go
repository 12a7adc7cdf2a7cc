package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/username/ledgerly/backend/src/config"
	"github.com/username/ledgerly/backend/src/database"
	"github.com/username/ledgerly/backend/src/handlers"
	"github.com/username/ledgerly/backend/src/logger"
	"github.com/username/ledgerly/backend/src/security"
	"github.com/username/ledgerly/backend/src/services"
	"github.com/username/ledgerly/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Ledgerly backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing stores, services and handlers...")
	transactionStore := store.NewTransactionStore(database.DB)
	categoryStore := store.NewCategoryStore(database.DB)
	ruleStore := store.NewRuleStore(database.DB)
	uploadStore := store.NewUploadStore(database.DB)

	userCache := services.NewUserCache()
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	emailService := services.NewEmailService()
	importService := services.NewImportService(transactionStore, categoryStore, ruleStore, uploadStore, userCache)
	recatService := services.NewRecategorizeService(transactionStore, categoryStore, ruleStore, userCache)

	userHandler := handlers.NewUserHandler(authService, emailService, categoryStore, transactionStore)
	uploadHandler := handlers.NewUploadHandler(importService, config.Cfg.MaxUploadSizeBytes)
	txHandler := handlers.NewTransactionHandler(transactionStore, categoryStore, ruleStore, recatService, userCache)
	categoryHandler := handlers.NewCategoryHandler(categoryStore, transactionStore, ruleStore, userCache)
	ruleHandler := handlers.NewRuleHandler(ruleStore, categoryStore, userCache)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public GET routes (no CSRF needed for these GETs)
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.NewCSRFTokenHandler(config.Cfg.CSRFAuthKey))
	apiRouter.HandleFunc("GET /api/auth/verify-email", userHandler.VerifyEmailHandler)

	csrfProtection := handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)

	// Auth actions; all POSTs go through CSRF.
	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.Handle("POST /logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))
	authActionRouter.HandleFunc("POST /request-password-reset", userHandler.RequestPasswordResetHandler)
	authActionRouter.HandleFunc("POST /reset-password", userHandler.ResetPasswordHandler)
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", csrfProtection(authActionRouter)))

	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("POST /api/upload", applyCsrfAndAuth(uploadHandler.HandleUpload))
	apiRouter.Handle("GET /api/uploads", applyCsrfAndAuth(uploadHandler.HandleListUploads))
	apiRouter.Handle("GET /api/uploads/available-years", applyCsrfAndAuth(uploadHandler.HandleAvailableYears))

	apiRouter.Handle("GET /api/transactions", applyCsrfAndAuth(txHandler.HandleGetTransactions))
	apiRouter.Handle("POST /api/transactions", applyCsrfAndAuth(txHandler.HandleCreateTransaction))
	apiRouter.Handle("PUT /api/transactions/{id}/category", applyCsrfAndAuth(txHandler.HandleUpdateTransactionCategory))
	apiRouter.Handle("DELETE /api/transactions/all", applyCsrfAndAuth(txHandler.HandleDeleteAllTransactions))

	apiRouter.Handle("GET /api/categories", applyCsrfAndAuth(categoryHandler.HandleListCategories))
	apiRouter.Handle("POST /api/categories", applyCsrfAndAuth(categoryHandler.HandleCreateCategory))
	apiRouter.Handle("PUT /api/categories/{id}", applyCsrfAndAuth(categoryHandler.HandleUpdateCategory))
	apiRouter.Handle("DELETE /api/categories/{id}", applyCsrfAndAuth(categoryHandler.HandleDeleteCategory))
	apiRouter.Handle("POST /api/categories/reorder", applyCsrfAndAuth(categoryHandler.HandleReorderCategories))

	apiRouter.Handle("GET /api/rules", applyCsrfAndAuth(ruleHandler.HandleListRules))
	apiRouter.Handle("POST /api/rules", applyCsrfAndAuth(ruleHandler.HandleCreateRule))
	apiRouter.Handle("PUT /api/rules/{id}", applyCsrfAndAuth(ruleHandler.HandleUpdateRule))
	apiRouter.Handle("DELETE /api/rules/{id}", applyCsrfAndAuth(ruleHandler.HandleDeleteRule))
	apiRouter.Handle("POST /api/rules/recategorize", applyCsrfAndAuth(txHandler.HandleRecategorize))

	apiRouter.Handle("GET /api/user/has-data", applyCsrfAndAuth(userHandler.HandleCheckUserData))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Ledgerly backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
