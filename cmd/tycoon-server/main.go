// Package main is the entry point for the property tycoon simulation server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/harwoodsim/property-tycoon/server/internal/engine"
	"github.com/harwoodsim/property-tycoon/server/internal/events"
	"github.com/harwoodsim/property-tycoon/server/internal/infra/cache"
	"github.com/harwoodsim/property-tycoon/server/internal/infra/storage"
	"github.com/harwoodsim/property-tycoon/server/internal/network"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/logger"
	"github.com/harwoodsim/property-tycoon/server/internal/platform/metrics"
)

const runID = "RUN_1" // Singleton run for now

var validate = validator.New()

func main() {
	_ = godotenv.Load()

	log.Println("[TYCOON-SERVER] Initializing property tycoon simulation server...")

	appLogger := logger.NewLogger()

	dbPath := envOr("DB_PATH", "tycoon.db")
	appLogger.Info("Initializing SQLite database %q...", dbPath)
	db, err := storage.InitSQLite(dbPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: %v", err)
		os.Exit(1)
	}
	historyRepo := storage.NewSQLiteHistoryRepository(db)
	stateRepo := storage.NewSQLiteStateRepository(db)

	appLogger.Info("Bootstrapping history log...")
	historyLog := events.NewLog(storage.NewHistoryPersister(historyRepo))

	appLogger.Info("Bootstrapping engine subsystems...")
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	eng := engine.NewEngine(engine.DefaultConfig(), rng.Float64, historyLog, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Attempt to recover the last persisted run.
	if stateJSON, err := stateRepo.Load(ctx, runID); err != nil {
		appLogger.Error("Failed to load persisted state: %v", err)
	} else if stateJSON != nil {
		var restored engine.GameState
		if err := json.Unmarshal(stateJSON, &restored); err != nil {
			appLogger.Error("Persisted state is unreadable, starting fresh: %v", err)
		} else {
			eng.Restore(&restored)
			appLogger.Info("Restored simulation at day %d from database", restored.Day)
		}
	}

	// Optional Redis snapshot cache for cheap state reads.
	var snapCache *cache.SnapshotCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := cache.NewRedigoClient(addr)
		if err := client.Ping(ctx); err != nil {
			appLogger.Warn("Redis unreachable at %s, snapshot cache disabled: %v", addr, err)
		} else {
			snapCache = cache.NewSnapshotCache(client)
			appLogger.Info("Redis snapshot cache enabled at %s", addr)
		}
	}

	ticker := engine.NewTicker(eng, appLogger)
	go ticker.Start(ctx)

	// Automated state backup routine.
	go func() {
		backup := time.NewTicker(5 * time.Second)
		defer backup.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-backup.C:
				snap := eng.Snapshot()
				stateJSON, err := json.Marshal(snap)
				if err != nil {
					appLogger.Error("Failed to serialize state for backup: %v", err)
					continue
				}
				if err := stateRepo.Upsert(ctx, runID, stateJSON); err != nil {
					appLogger.Error("State backup failed: %v", err)
				}
				if snapCache != nil {
					_ = snapCache.SetSnapshot(ctx, runID, snap.Day, stateJSON)
				}
			}
		}
	}()

	appLogger.Info("Bootstrapping WebSocket hub...")
	hub := network.NewHub(eng, ticker, appLogger)
	go hub.Run(ctx)
	hub.StartLogPoller(ctx, historyLog)

	router := mux.NewRouter()

	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	// Read endpoints
	router.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		// Serve the cached snapshot when one is fresh enough; fall back to
		// the engine on a miss or a cache error.
		if snapCache != nil {
			if snap, err := snapCache.GetSnapshot(r.Context(), runID); err == nil && snap != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Write(snap.StateJSON)
				return
			}
		}
		writeJSON(w, eng.Snapshot())
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/market", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, eng.Snapshot().Market)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/portfolio", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, eng.Snapshot().Portfolio)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("day") != "":
			day, err := strconv.Atoi(q.Get("day"))
			if err != nil {
				http.Error(w, "Invalid day", http.StatusBadRequest)
				return
			}
			entries, err := historyRepo.GetByDay(r.Context(), day)
			respondHistory(w, entries, err)
		case q.Get("property_id") != "":
			entries, err := historyRepo.GetByProperty(r.Context(), q.Get("property_id"))
			respondHistory(w, entries, err)
		default:
			limit := 100
			if q.Get("limit") != "" {
				if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
					limit = n
				}
			}
			entries, err := historyRepo.GetRecent(r.Context(), limit)
			respondHistory(w, entries, err)
		}
	}).Methods(http.MethodGet)

	// Player actions
	router.HandleFunc("/api/properties/{id}/buy", func(w http.ResponseWriter, r *http.Request) {
		respondAction(w, eng.PurchaseWithCash(mux.Vars(r)["id"]))
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/properties/{id}/finance", func(w http.ResponseWriter, r *http.Request) {
		var req financeRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		respondAction(w, eng.FinancePurchase(mux.Vars(r)["id"],
			req.DepositRatio, req.TermYears, req.FixedPeriodYears, req.InterestOnly))
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/properties/{id}/sell", func(w http.ResponseWriter, r *http.Request) {
		respondAction(w, eng.SellProperty(mux.Vars(r)["id"]))
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/properties/{id}/maintenance", func(w http.ResponseWriter, r *http.Request) {
		respondAction(w, eng.ScheduleMaintenance(mux.Vars(r)["id"]))
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/properties/{id}/rent-plan", func(w http.ResponseWriter, r *http.Request) {
		var req rentPlanRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		respondAction(w, eng.SetRentPlan(mux.Vars(r)["id"], req.LeaseMonths, req.RateOffset))
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/properties/{id}/auto-relist", func(w http.ResponseWriter, r *http.Request) {
		var req autoRelistRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		respondAction(w, eng.SetAutoRelist(mux.Vars(r)["id"], *req.Enabled))
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/properties/{id}/refinance", func(w http.ResponseWriter, r *http.Request) {
		var req refinanceRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		respondAction(w, eng.RefinanceMortgage(mux.Vars(r)["id"], req.FixedPeriodYears))
	}).Methods(http.MethodPost)

	// Simulation control
	router.HandleFunc("/api/sim/advance", func(w http.ResponseWriter, r *http.Request) {
		days := 1
		if d := r.URL.Query().Get("days"); d != "" {
			n, err := strconv.Atoi(d)
			if err != nil || n < 1 || n > 3650 {
				http.Error(w, "Invalid days", http.StatusBadRequest)
				return
			}
			days = n
		}
		for i := 0; i < days; i++ {
			start := time.Now()
			eng.AdvanceDay()
			metrics.Get().RecordTick(time.Since(start))
		}
		writeJSON(w, eng.Snapshot())
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/sim/speed", func(w http.ResponseWriter, r *http.Request) {
		var req speedRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		ticker.SetGameSpeed(req.IntervalMs)
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/sim/pause", func(w http.ResponseWriter, r *http.Request) {
		ticker.Pause()
		writeJSON(w, map[string]string{"status": "paused"})
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/sim/resume", func(w http.ResponseWriter, r *http.Request) {
		ticker.Resume()
		writeJSON(w, map[string]string{"status": "running"})
	}).Methods(http.MethodPost)

	router.HandleFunc("/api/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		eng.Reset()
		if snapCache != nil {
			// The cached snapshot belongs to the discarded run.
			_ = snapCache.Invalidate(r.Context(), runID)
		}
		writeJSON(w, eng.Snapshot())
	}).Methods(http.MethodPost)

	// Observability
	router.HandleFunc("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler()).Methods(http.MethodGet)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{envOr("CORS_ORIGIN", "*")},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	addr := ":" + envOr("PORT", "8080")
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		log.Printf("[TYCOON-SERVER] HTTP API & WS server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[TYCOON-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[TYCOON-SERVER] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	// Final backup before exit.
	if stateJSON, err := json.Marshal(eng.Snapshot()); err == nil {
		_ = stateRepo.Upsert(context.Background(), runID, stateJSON)
	}
	cancel()

	// Drain any queued history writes.
	historyLog.Close()
}

type financeRequest struct {
	DepositRatio     float64 `json:"deposit_ratio" validate:"gt=0,lt=1"`
	TermYears        int     `json:"term_years" validate:"gt=0,lte=40"`
	FixedPeriodYears int     `json:"fixed_period_years" validate:"gte=0,lte=40"`
	InterestOnly     bool    `json:"interest_only"`
}

type rentPlanRequest struct {
	LeaseMonths int     `json:"lease_months" validate:"gt=0,lte=60"`
	RateOffset  float64 `json:"rate_offset" validate:"gt=0,lte=0.5"`
}

type autoRelistRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type refinanceRequest struct {
	FixedPeriodYears int `json:"fixed_period_years" validate:"gt=0,lte=40"`
}

type speedRequest struct {
	IntervalMs int `json:"interval_ms" validate:"gte=100,lte=60000"`
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "Invalid payload: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func respondAction(w http.ResponseWriter, err error) {
	metrics.Get().RecordAction(err == nil)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, engine.ErrInvalidSelection) {
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"status": "rejected", "reason": err.Error()})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func respondHistory(w http.ResponseWriter, entries []events.Entry, err error) {
	if err != nil {
		http.Error(w, "History query failed", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []events.Entry{}
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for the dev frontend
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
