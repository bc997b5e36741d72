package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vipero7/surveycorps/internal/api"
	"github.com/vipero7/surveycorps/internal/db"
	"github.com/vipero7/surveycorps/internal/mail"
	"github.com/vipero7/surveycorps/internal/middleware"
	"github.com/vipero7/surveycorps/internal/services"
	"github.com/vipero7/surveycorps/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	addr := utils.SafeEnv("SC_ADDR", ":8080")
	frontendBaseURL := utils.SafeEnv("SC_FRONTEND_BASE_URL", "http://localhost:3000")

	loc, err := time.LoadLocation(utils.SafeEnv("SC_TIME_ZONE", "UTC"))
	if err != nil {
		log.Fatalf("load timezone: %v", err)
	}

	store := openStore()
	mailer := newMailer()

	mux := http.NewServeMux()
	api.NewRouter(store, mailer, loc, frontendBaseURL).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":   true,
			"name": "SurveyCorps API",
		})
	})

	handler := middleware.CORS(middleware.SecureHeaders(middleware.NoStore(middleware.WithAuth(mux))))

	log.Printf("surveycorps server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore opens the sqlite store at SC_SQLITE_PATH, or falls back to the
// in-memory store when no path is configured.
func openStore() api.Store {
	path := os.Getenv("SC_SQLITE_PATH")
	if path == "" {
		log.Printf("SC_SQLITE_PATH not set, using in-memory store")
		return api.NewMemoryStore()
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Fatalf("open sqlite %s: %v", path, err)
	}
	if err := db.RunMigrations(conn, os.Getenv("SC_MIGRATIONS_DIR")); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	store, err := db.NewStore(conn)
	if err != nil {
		log.Fatalf("init sqlite store: %v", err)
	}
	log.Printf("sqlite store ready at %s", path)
	return store
}

func newMailer() services.Mailer {
	host := os.Getenv("SC_SMTP_HOST")
	if host == "" {
		log.Printf("SC_SMTP_HOST not set, emails will be logged instead of sent")
		return mail.LogSender{}
	}
	sender, err := mail.NewSMTPSender(mail.Config{
		Host:        host,
		Port:        utils.IntEnv("SC_SMTP_PORT", 587),
		User:        os.Getenv("SC_SMTP_USER"),
		Password:    os.Getenv("SC_SMTP_PASSWORD"),
		FromAddress: utils.SafeEnv("SC_FROM_EMAIL", "noreply@surveycorps.example"),
		FromName:    utils.SafeEnv("SC_FROM_NAME", "SurveyCorps"),
	})
	if err != nil {
		log.Fatalf("configure smtp: %v", err)
	}
	return sender
}
