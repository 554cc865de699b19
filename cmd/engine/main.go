package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"jobtrail-engine/internal/config"
	"jobtrail-engine/internal/dedupe"
	"jobtrail-engine/internal/events"
	"jobtrail-engine/internal/httpapi"
	"jobtrail-engine/internal/mailparse"
	"jobtrail-engine/internal/pipeline"
	"jobtrail-engine/internal/poll"
	"jobtrail-engine/internal/scheduler"
	"jobtrail-engine/internal/store"
)

// defaultUserID identifies the single local account every record belongs to.
const defaultUserID = "local"

func main() {
	dataDir := os.Getenv("JOBTRAIL_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Single-instance guard: a second engine against the same data dir
	// would fight over the sqlite writer.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance is already running in %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		cfg, res := config.NormalizeAndValidate(cfg)
		for _, w := range res.Warnings {
			log.Printf("[config] warning: %s", w)
		}
		if !res.OK() {
			return cfg, fmt.Errorf("config invalid: %v", res.Errors)
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	db, err := store.Open(filepath.Join(dataDir, "jobtrail.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	gateway := store.NewGateway(db)
	dedup := dedupe.New(gateway, cfg.EmailWindow())
	ingestor := pipeline.NewIngestor(gateway, dedup, log.Default())
	hub := events.NewHub()
	syncer := mailparse.NewSyncer(ingestor, log.Default())
	poller := poll.New(syncer, &cfgVal, hub, defaultUserID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller.Start(ctx)

	if months := cfg.App.RetentionMonths; months > 0 {
		go scheduler.Every(ctx, 24*time.Hour, "cleanup", func(context.Context) error {
			n, err := store.CleanupOld(db.Pool, months)
			if err == nil && n > 0 {
				log.Printf("[cleanup] removed %d old records", n)
			}
			return err
		})
	}

	mux := httpapi.NewMux(httpapi.Deps{
		Gateway:     gateway,
		Ingestor:    ingestor,
		Hub:         hub,
		Poller:      poller,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		UserID:      defaultUserID,
	})

	limiter := httpapi.NewClientLimiter(5, 10)
	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
		httpapi.Cors,
		httpapi.RateLimit(limiter),
	)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	if err := writePortFile(dataDir, port); err != nil {
		log.Printf("[main] port file: %v", err)
	}
	defer func() { _ = writePortFile(dataDir, 0) }()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("engine listening on http://%s (data=%s)", addr, dataDir)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// writePortFile records the bound port so the extension can find the engine.
func writePortFile(dataDir string, port int) error {
	path := filepath.Join(dataDir, "engine.port")
	if port == 0 {
		return os.Remove(path)
	}
	return os.WriteFile(path, []byte(fmt.Sprint(port)), 0o644)
}
