package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"gas-route-service/internal/adapters/cache"
	"gas-route-service/internal/adapters/matrix"
	"gas-route-service/internal/adapters/repositories"
	"gas-route-service/internal/api"
	"gas-route-service/internal/config"
	"gas-route-service/internal/domain"
	"gas-route-service/internal/platform/db"
	"gas-route-service/internal/ports"
	"gas-route-service/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, Redis, ORS) behind ports and starts
// the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	port := config.Get("PORT", "8080")
	depot := domain.Coordinates{
		Lat: config.GetFloat("DEPOT_LAT", 25.0330),
		Lon: config.GetFloat("DEPOT_LON", 121.5654),
	}
	if err := depot.Validate(); err != nil {
		log.Fatalf("depot coordinates: %v", err)
	}

	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	// Without an API key the travel model runs on the haversine fallback
	// alone, which keeps local development free of external credentials.
	var provider ports.MatrixProvider
	if key := strings.TrimSpace(os.Getenv("ORS_API_KEY")); key != "" {
		provider, err = matrix.NewORSMatrixProvider(key)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		log.Println("ORS_API_KEY not set, travel estimates use the haversine fallback")
	}

	travel := &services.TravelModel{
		Provider: provider,
		Cache:    newMatrixCache(),
		Fallback: services.NewFallbackEstimator(
			config.GetFloat("FALLBACK_AVERAGE_SPEED_KMH", 0),
			config.GetFloat("FALLBACK_RURAL_SPEED_KMH", 0),
		),
	}

	opts := services.Options{
		Enforcement:              services.Enforcement(config.Get("TIME_WINDOW_ENFORCEMENT", string(services.EnforcementStrict))),
		MaxRouteDuration:         time.Duration(config.GetInt("MAX_ROUTE_DURATION_MINUTES", 0)) * time.Minute,
		LatenessPenaltyPerMinute: config.GetFloat("LATENESS_PENALTY_PER_MINUTE", 0),
		InfeasibilityTolerance:   config.GetFloat("INFEASIBILITY_TOLERANCE", 0),
	}

	repo := repositories.NewSQLPlanRepository(sqlDB)
	planner := services.NewPlanner(travel)
	adjuster := services.NewAdjuster(travel, opts)
	router := api.NewRouter(repo, planner, adjuster, depot, opts, searchBudget())

	// Timeouts are tuned for cold-cache plan requests (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// newMatrixCache picks Redis when REDIS_ADDR is set, so multiple service
// instances share one leg cache; otherwise falls back to in-process memory.
func newMatrixCache() ports.MatrixCache {
	ttl := time.Duration(config.GetInt("MATRIX_CACHE_TTL_MS", 0)) * time.Millisecond

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return cache.NewMemoryMatrixCache(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       config.GetInt("REDIS_DB", 0),
	})
	return cache.NewRedisMatrixCache(client, ttl)
}

// searchBudget builds the deployment-wide local search budget. When neither
// variable is set the planner keeps its built-in default.
func searchBudget() *services.Budget {
	iters := strings.TrimSpace(os.Getenv("LOCAL_SEARCH_ITERATION_BUDGET"))
	timeMs := strings.TrimSpace(os.Getenv("LOCAL_SEARCH_TIME_BUDGET_MS"))
	if iters == "" && timeMs == "" {
		return nil
	}

	b := services.DefaultBudget()
	if iters != "" {
		b.MaxIterations = config.GetInt("LOCAL_SEARCH_ITERATION_BUDGET", b.MaxIterations)
	}
	if timeMs != "" {
		b.TimeLimit = time.Duration(config.GetInt("LOCAL_SEARCH_TIME_BUDGET_MS", 0)) * time.Millisecond
	}
	return &b
}
