// cmd/matchpet-workers/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"matchpet-workers/internal/catalog"
	"matchpet-workers/internal/common/aws"
	"matchpet-workers/internal/common/camunda"
	"matchpet-workers/internal/common/config"
	"matchpet-workers/internal/common/database"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/observability"
	"matchpet-workers/internal/common/validation"
	"matchpet-workers/internal/match/address"
	"matchpet-workers/internal/match/classifier"
	"matchpet-workers/internal/match/engine"
	"matchpet-workers/pkg/registry"

	cae "matchpet-workers/internal/workers/application/check-application-eligibility"
	car "matchpet-workers/internal/workers/application/create-application-record"
	sn "matchpet-workers/internal/workers/application/send-notification"
	csm "matchpet-workers/internal/workers/classification/classify-special-mark"
	ra "matchpet-workers/internal/workers/recommendation/recommend-animals"
	rm "matchpet-workers/internal/workers/recommendation/recommend-managers"
	rp "matchpet-workers/internal/workers/recommendation/recommend-pairs"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting matchpet workers", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(ctx, cfg.App.Name, cfg.Tracing)
	defer obs.Shutdown()
	log.Info("tracing configured", map[string]interface{}{
		"exporting":   obs.Exporting(),
		"endpoint":    cfg.Tracing.Endpoint,
		"sampleRatio": cfg.Tracing.SampleRatio,
	})

	// --- Zeebe ---
	zeebeClient, err := camunda.Connect(ctx, cfg.Camunda, camunda.DefaultBackoff, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}

	// --- PostgreSQL ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres open failed", zap.Error(err))
	}
	defer pg.Close()
	if err := camunda.Retry(ctx, camunda.DefaultBackoff, log, "PostgreSQL connection", pg.Ping); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()
	if err := camunda.Retry(ctx, camunda.DefaultBackoff, log, "Redis connection", rdb.Ping); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}

	// --- Catalog ---
	store := catalog.NewPostgresStore(pg.DB, log)
	managers := catalog.NewCachedStore(store, rdb.Client,
		time.Duration(cfg.Cache.ManagerTTL)*time.Second, log)

	var (
		animals engine.AnimalSource = store
		search  *catalog.SearchIndex
	)
	if cfg.Catalog.AnimalSource == "elasticsearch" {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch init failed", zap.Error(err))
		}
		if err := camunda.Retry(ctx, camunda.DefaultBackoff, log, "Elasticsearch connection", es.Ping); err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if ok, err := es.IndexExists(ctx); err != nil || !ok {
			log.Warn("candidate index missing", map[string]interface{}{"index": es.Index, "error": err})
		}
		search = catalog.NewSearchIndex(es.Client, es.Index, cfg.Catalog.Breaker, log)
		animals = search
	}

	// --- Matching ---
	cls, err := buildClassifier(cfg.Matching.KeywordsPath)
	if err != nil {
		zapLog.Fatal("classifier init failed", zap.Error(err))
	}
	parser := address.NewParser(cfg.Matching.Metro)

	eng := engine.New(store, animals, managers, parser, cls,
		engine.OptionsFromConfig(cfg.Matching), log,
		engine.WithTracer(obs.Tracer()),
		engine.WithRecorder(obs),
	)

	// --- Registry ---
	schemas := loadSchemas(cfg.Registry.Path, log)

	// --- Notification ---
	awsCfg, err := aws.LoadConfig(ctx, cfg.Notification.AWSRegion)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}
	email := aws.NewEmailSender(aws.NewSESClient(awsCfg), cfg.Notification.FromEmail)
	sms := aws.NewSMSSender(aws.NewSNSClient(awsCfg), cfg.Notification.SMSPerSecond)

	// --- Workers ---
	pool := camunda.NewPool(zeebeClient, log)
	workerCfg := func(taskType string) config.WorkerConfig {
		return config.GetWorkerConfig(cfg, taskType)
	}
	timeout := func(taskType string, fallback time.Duration) time.Duration {
		if wc, ok := cfg.Workers[taskType]; ok && wc.Timeout > 0 {
			return config.GetDuration(wc.Timeout)
		}
		return fallback
	}

	raCfg := ra.LoadConfig()
	raCfg.Timeout = timeout(ra.TaskType, raCfg.Timeout)
	pool.Start(ra.TaskType, workerCfg(ra.TaskType), ra.NewHandler(raCfg, eng, schemas[ra.TaskType], log))

	rmCfg := rm.LoadConfig()
	rmCfg.Timeout = timeout(rm.TaskType, rmCfg.Timeout)
	pool.Start(rm.TaskType, workerCfg(rm.TaskType), rm.NewHandler(rmCfg, eng, schemas[rm.TaskType], log))

	rpCfg := rp.LoadConfig()
	rpCfg.Timeout = timeout(rp.TaskType, rpCfg.Timeout)
	pool.Start(rp.TaskType, workerCfg(rp.TaskType), rp.NewHandler(rpCfg, eng, schemas[rp.TaskType], log))

	csmCfg := csm.LoadConfig()
	csmCfg.Timeout = timeout(csm.TaskType, csmCfg.Timeout)
	pool.Start(csm.TaskType, workerCfg(csm.TaskType), csm.NewHandler(csmCfg, cls, schemas[csm.TaskType], log))

	caeCfg := cae.LoadConfig()
	caeCfg.Timeout = timeout(cae.TaskType, caeCfg.Timeout)
	pool.Start(cae.TaskType, workerCfg(cae.TaskType),
		cae.NewHandler(caeCfg, store, animals, parser, cls, schemas[cae.TaskType], log))

	carCfg := car.LoadConfig()
	carCfg.Timeout = timeout(car.TaskType, carCfg.Timeout)
	pool.Start(car.TaskType, workerCfg(car.TaskType), car.NewHandler(carCfg, pg.DB, schemas[car.TaskType], log))

	snCfg := sn.LoadConfig(cfg.Notification)
	snCfg.Timeout = timeout(sn.TaskType, snCfg.Timeout)
	pool.Start(sn.TaskType, workerCfg(sn.TaskType), sn.NewHandler(snCfg, pg.DB, email, sms, schemas[sn.TaskType], log))

	log.Info("workers registered", map[string]interface{}{"taskTypes": pool.TaskTypes()})

	// --- Health / Metrics ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           routes(pg, search),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health/metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health/metrics server failed", map[string]interface{}{"error": err})
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping workers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool.Close()
	if err := zeebeClient.Close(); err != nil {
		log.Error("error closing zeebe client", map[string]interface{}{"error": err})
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error stopping health server", map[string]interface{}{"error": err})
	}
	log.Info("matchpet workers stopped", nil)
}

func buildClassifier(path string) (*classifier.Classifier, error) {
	if path == "" {
		return classifier.Default(), nil
	}
	kw, err := classifier.LoadKeywords(path)
	if err != nil {
		return nil, err
	}
	return classifier.New(kw)
}

// loadSchemas returns no schemas when the registry is unusable; workers then
// decode without validation.
func loadSchemas(path string, log logger.Logger) map[string]*validation.Schema {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		log.Warn("activity registry not loaded", map[string]interface{}{"path": path, "error": err})
		return map[string]*validation.Schema{}
	}
	for _, problem := range reg.Validate() {
		log.Warn("activity registry problem", map[string]interface{}{"error": problem})
	}
	schemas, err := reg.InputSchemas()
	if err != nil {
		log.Warn("input schemas not compiled", map[string]interface{}{"error": err})
		return map[string]*validation.Schema{}
	}
	return schemas
}

func routes(pg *database.PostgresClient, search *catalog.SearchIndex) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		body := map[string]interface{}{
			"status":   "ready",
			"time":     time.Now().Format(time.RFC3339),
			"postgres": pg.Stats(),
		}
		code := http.StatusOK
		if err := pg.Ping(ctx); err != nil {
			body["status"] = "not ready"
			body["error"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if search != nil {
			state := search.State()
			body["catalogBreaker"] = state
			if state == "open" {
				body["status"] = "degraded"
			}
		}
		writeJSON(w, code, body)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
