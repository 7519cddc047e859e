package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"fiambond/backend/database"
	"fiambond/backend/handlers"
	"fiambond/backend/middleware"
	"fiambond/backend/migrations"
	"fiambond/backend/security"
	"fiambond/backend/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command line flags
	migrateOnly := flag.Bool("migrate-only", false, "Run migrations and exit")
	flag.Parse()

	// Load .env for local development; in production the variables are
	// injected by the platform
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	isDevelopment := os.Getenv("APP_ENV") != "production" &&
		os.Getenv("ENVIRONMENT") != "production" &&
		os.Getenv("ENV") != "production"
	if isDevelopment {
		log.Println("Running in development environment")
	}
	if os.Getenv("PR_DEPLOYMENT") == "true" {
		log.Println("Running in PR deployment mode")
	}

	// Use an encryption key from environment or generate a default one
	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		log.Println("Warning: ENCRYPTION_KEY not set, using a default key. This is NOT secure for production!")
		encryptionKey = "default-key-for-development-only"
	}
	security.InitializeEncryption(encryptionKey)

	// Initialize database
	err := database.InitDB()
	if err != nil {
		log.Fatal(err)
	}

	// Run migrations (including dev data seeding outside production)
	log.Println("Running migrations...")
	err = migrations.RunMigrations(database.DB)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if *migrateOnly {
		log.Println("Migrations completed successfully. Exiting.")
		return
	}

	// Initialize Firebase Admin SDK
	log.Println("Initializing Firebase Admin SDK...")
	err = middleware.InitializeFirebase()
	if err != nil {
		log.Printf("Warning: Failed to initialize Firebase: %v", err)
		log.Println("Auth token verification will be disabled!")
	}

	// Start the subscription expiry sweep
	services.StartScheduler()

	// Create router
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.EnableCORS)

	// Register routes with both direct paths and /api prefix to maintain compatibility
	registerRoutes(r)
	apiRouter := r.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter)

	// Serve static files from the "dist" directory for the frontend
	fs := http.FileServer(http.Dir("./dist"))
	r.PathPrefix("/assets/").Handler(http.StripPrefix("", fs))
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Don't log asset requests
		if !strings.HasPrefix(r.URL.Path, "/assets/") {
			log.Printf("Serving index.html for path: %s", r.URL.Path)
		}
		http.ServeFile(w, r, "./dist/index.html")
	}).Methods("GET")

	// Configure the server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Handler:      r,
		Addr:         ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	// Start the server
	log.Printf("Starting server on port %s...", port)
	log.Fatal(srv.ListenAndServe())
}

// registerRoutes sets up all API routes
func registerRoutes(r *mux.Router) {
	// Public routes (no auth required)
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET", "OPTIONS")

	// Create a subrouter for authenticated routes
	protectedRouter := r.PathPrefix("").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware)

	// Transaction ledger
	protectedRouter.HandleFunc("/transactions", handlers.GetTransactions).Methods("GET")
	protectedRouter.HandleFunc("/transactions", handlers.AddTransaction).Methods("POST")
	protectedRouter.HandleFunc("/transactions/{id}", handlers.GetTransaction).Methods("GET")
	protectedRouter.HandleFunc("/transactions/{id}", handlers.DeleteTransaction).Methods("DELETE")
	protectedRouter.HandleFunc("/balance", handlers.GetBalance).Methods("GET")

	// Goals
	protectedRouter.HandleFunc("/goals", handlers.GetGoals).Methods("GET")
	protectedRouter.HandleFunc("/goals", handlers.AddGoal).Methods("POST")
	protectedRouter.HandleFunc("/goals/{id}", handlers.GetGoal).Methods("GET")
	protectedRouter.HandleFunc("/goals/{id}", handlers.UpdateGoal).Methods("PATCH")
	protectedRouter.HandleFunc("/goals/{id}", handlers.DeleteGoal).Methods("DELETE")

	// Loans
	protectedRouter.HandleFunc("/loans", handlers.GetLoans).Methods("GET")
	protectedRouter.HandleFunc("/loans", handlers.AddLoan).Methods("POST")
	protectedRouter.HandleFunc("/loans/{id}", handlers.GetLoan).Methods("GET")
	protectedRouter.HandleFunc("/loans/{id}/confirm", handlers.ConfirmLoan).Methods("POST")
	protectedRouter.HandleFunc("/loans/{id}/repayments", handlers.AddRepayment).Methods("POST")

	// Families and companies
	protectedRouter.HandleFunc("/families", handlers.GetFamilies).Methods("GET")
	protectedRouter.HandleFunc("/families", handlers.AddFamily).Methods("POST")
	protectedRouter.HandleFunc("/families/{id}/members", handlers.AddFamilyMember).Methods("POST")
	protectedRouter.HandleFunc("/companies", handlers.AddCompany).Methods("POST")

	// Users
	protectedRouter.HandleFunc("/users", handlers.GetUsers).Methods("GET")
	protectedRouter.HandleFunc("/users/sync", handlers.SyncFirebaseUser).Methods("POST")

	// Premium gate
	protectedRouter.HandleFunc("/premium/status", handlers.GetPremiumStatus).Methods("GET")
	protectedRouter.HandleFunc("/premium/request", handlers.RequestUpgrade).Methods("POST")

	// Admin-only routes
	adminRouter := protectedRouter.PathPrefix("").Subrouter()
	adminRouter.Use(middleware.RequireRole("admin"))
	adminRouter.HandleFunc("/premium/approve", handlers.ApproveUpgrade).Methods("POST")
	adminRouter.HandleFunc("/premium/revoke", handlers.RevokeUpgrade).Methods("POST")
	adminRouter.HandleFunc("/roles", handlers.SetUserRole).Methods("POST")
}
