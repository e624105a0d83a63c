package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"scan-analyzer/internal/agent"
	"scan-analyzer/internal/analysis"
	"scan-analyzer/internal/config"
	"scan-analyzer/internal/platform/logger"
	"scan-analyzer/internal/report"
)

func main() {
	_ = config.LoadEnv()

	log, err := logger.New(config.Get("APP_ENV", "development"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Missing model credentials are a fatal configuration error: nothing
	// can be analyzed without them.
	apiKey := config.Get("GOOGLE_API_KEY", "")
	if apiKey == "" {
		log.Fatal("GOOGLE_API_KEY is not set")
	}

	// The database is optional: without it the service runs with history
	// recording disabled.
	var repo analysis.Repository
	dbConnStr := config.Get("DATABASE_URL", "")
	if dbConnStr != "" {
		db, err := openDB(dbConnStr, log)
		if err != nil {
			log.Warn("could not connect to database, continuing without history", zap.Error(err))
		} else {
			runMigrations(dbConnStr, log)
			repo = analysis.NewRepository(db)
			log.Info("analysis history enabled")
		}
	}

	aiClient, err := agent.Acquire(agent.Config{
		APIKey:  apiKey,
		Model:   config.Get("GEMINI_MODEL", ""),
		Timeout: time.Duration(config.GetInt("MODEL_TIMEOUT_SECONDS", 0)) * time.Second,
	}, log)
	if err != nil {
		log.Fatal("failed to construct model client", zap.Error(err))
	}

	builder := report.NewBuilder(log)
	if !builder.FontAvailable() {
		log.Warn("no usable TTF font found, report generation will fail until one is installed")
	}

	svc := analysis.NewService(aiClient, builder, repo, log)
	handler := analysis.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		analysis.RegisterRoutes(r, handler)
	})

	port := config.Get("PORT", "8080")
	log.Info("server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func openDB(connStr string, log *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			return db, nil
		}
		log.Info("waiting for database", zap.Int("attempt", i+1))
		time.Sleep(time.Second)
	}
	return nil, err
}

func runMigrations(connStr string, log *zap.Logger) {
	m, err := migrate.New("file://migrations", connStr)
	if err != nil {
		log.Warn("migration init failed", zap.Error(err))
		return
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Warn("migration up failed", zap.Error(err))
		return
	}
	log.Info("migrations applied")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if r.Method == "OPTIONS" {
			return
		}
		next.ServeHTTP(w, r)
	})
}
