package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/mkrzemien/BudgetManager/internal/auth"
	database "github.com/mkrzemien/BudgetManager/internal/db"
	"github.com/mkrzemien/BudgetManager/internal/finance/application"
	"github.com/mkrzemien/BudgetManager/internal/finance/infrastructure"
	"github.com/mkrzemien/BudgetManager/internal/finance/interfaces"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

type Server struct {
	router             *http.ServeMux
	dbService          *database.DBService
	tokenValidator     *auth.TokenValidator
	accountHandler     *interfaces.AccountHandler
	transactionHandler *interfaces.TransactionHandler
	categoryHandler    *interfaces.CategoryHandler
	reconciler         *application.Reconciler
}

func NewServer(
	dbService *database.DBService,
	tokenValidator *auth.TokenValidator,
	accountHandler *interfaces.AccountHandler,
	transactionHandler *interfaces.TransactionHandler,
	categoryHandler *interfaces.CategoryHandler,
	reconciler *application.Reconciler,
) *Server {
	return &Server{
		router:             http.NewServeMux(),
		dbService:          dbService,
		tokenValidator:     tokenValidator,
		accountHandler:     accountHandler,
		transactionHandler: transactionHandler,
		categoryHandler:    categoryHandler,
		reconciler:         reconciler,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		return errors.New("no DB_CONNECTION_STRING Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.dbService.Health())
}

func (s *Server) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	drifts, err := s.reconciler.Run(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to run balance audit")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Balance audit finished.",
		"data":    drifts,
	})
}

func (s *Server) RegisterRoutes() {
	// Public routes
	publicRoutes := http.NewServeMux()
	publicRoutes.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	publicRoutes.Handle("GET /api/health", http.HandlerFunc(s.handleHealth))

	// Protected routes (using JWT Access Token Middleware)
	withAuth := s.tokenValidator.JWTAccessTokenMiddleware()
	protectedRoutes := http.NewServeMux()

	// ACCOUNTS API
	protectedRoutes.Handle("POST /api/protected/accounts",
		withAuth(http.HandlerFunc(s.accountHandler.CreateAccount)))
	protectedRoutes.Handle("GET /api/protected/accounts",
		withAuth(http.HandlerFunc(s.accountHandler.GetUserAccounts)))
	protectedRoutes.Handle("PUT /api/protected/accounts/{accountID}/primary",
		withAuth(http.HandlerFunc(s.accountHandler.SetPrimaryAccount)))
	protectedRoutes.Handle("DELETE /api/protected/accounts/{accountID}",
		withAuth(http.HandlerFunc(s.accountHandler.DeleteAccount)))

	// TRANSACTIONS API
	protectedRoutes.Handle("POST /api/protected/transactions",
		withAuth(http.HandlerFunc(s.transactionHandler.CreateTransaction)))
	protectedRoutes.Handle("GET /api/protected/transactions",
		withAuth(http.HandlerFunc(s.transactionHandler.GetUserTransactions)))
	protectedRoutes.Handle("GET /api/protected/transactions/form-data",
		withAuth(http.HandlerFunc(s.transactionHandler.GetFormData)))
	protectedRoutes.Handle("PUT /api/protected/transactions/{transactionID}",
		withAuth(http.HandlerFunc(s.transactionHandler.UpdateTransaction)))
	protectedRoutes.Handle("DELETE /api/protected/transactions/{transactionID}",
		withAuth(http.HandlerFunc(s.transactionHandler.DeleteTransaction)))

	// CATEGORIES API
	protectedRoutes.Handle("GET /api/protected/categories",
		withAuth(http.HandlerFunc(s.categoryHandler.GetAllCategories)))

	// AUDIT API
	protectedRoutes.Handle("POST /api/protected/audit/balances",
		withAuth(http.HandlerFunc(s.handleRunAudit)))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/api/", publicRoutes)
	mainRouter.Handle("/api/protected/", protectedRoutes)
	mainRouter.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mainRouter
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	accountRepo := infrastructure.NewAccountRepository(dbService.DB)
	transactionRepo := infrastructure.NewTransactionRepository(dbService.DB)
	categoryRepo := infrastructure.NewCategoryRepository(dbService.DB)

	categoryService := application.NewCategoryService(categoryRepo)
	accountService := application.NewAccountService(accountRepo)
	transactionService := application.NewTransactionService(transactionRepo, accountRepo, categoryService)
	reconciler := application.NewReconciler(accountRepo, transactionRepo)

	accountHandler := interfaces.NewAccountHandler(accountService, respondJSON, respondError)
	transactionHandler := interfaces.NewTransactionHandler(transactionService, respondJSON, respondError)
	categoryHandler := interfaces.NewCategoryHandler(categoryService, respondJSON, respondError)

	tokenValidator := auth.NewTokenValidator()
	server := NewServer(dbService, tokenValidator, accountHandler, transactionHandler, categoryHandler, reconciler)
	server.RegisterRoutes()

	if err := StartAuditScheduler(reconciler); err != nil {
		log.Fatalf("Scheduler didn't start, stoping the app ...")
	}

	handler := loggingMiddleware(server.router)
	log.Println("Server starting on port 8080...")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func StartAuditScheduler(reconciler *application.Reconciler) error {
	c := cron.New()
	// Nightly pass over every account; any drift means a write path bypassed
	// the transaction engine.
	_, err := c.AddFunc("@daily", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := reconciler.Run(ctx); err != nil {
			log.Printf("Error running balance audit: %v", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}
