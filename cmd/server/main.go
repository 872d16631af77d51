package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"video-concat-service/internal/media"
	"video-concat-service/internal/repository/memory"
	"video-concat-service/internal/service"
	"video-concat-service/internal/store"
	httptransport "video-concat-service/internal/transport/http"
	"video-concat-service/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	addr := envOr("HTTP_ADDR", ":8080")
	dataDir := envOr("DATA_DIR", "/tmp/videos")
	workers := envIntOr("WORKERS", 4)
	queueCap := envIntOr("QUEUE_CAPACITY", 64)
	artifactTTL := envDurOr("ARTIFACT_TTL", time.Hour)
	jobTTL := envDurOr("JOB_TTL", 24*time.Hour)
	sweepInterval := envDurOr("SWEEP_INTERVAL", 5*time.Minute)
	baseURL := os.Getenv("PUBLIC_BASE_URL")

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	ffmpeg := media.NewFFmpeg()
	if err := ffmpeg.Check(ctx); err != nil {
		log.Fatalf("ffmpeg: %v", err)
	}

	tmpRoot := filepath.Join(dataDir, "tmp")
	if err := os.MkdirAll(tmpRoot, 0o755); err != nil {
		log.Fatalf("temp dir: %v", err)
	}

	artifacts, err := store.New(dataDir, logger)
	if err != nil {
		log.Fatalf("artifact store: %v", err)
	}

	// DI
	repo := memory.NewJobRepository()
	queue := service.NewMemoryQueue(queueCap)
	processor := worker.NewProcessor(repo, media.NewDownloader(), ffmpeg, artifacts, tmpRoot, logger)
	pool := worker.NewPool(queue, processor, workers, logger)
	jobSvc := service.NewJobService(repo, queue, processor)
	handler := httptransport.NewHandler(jobSvc, artifacts, baseURL)
	router := httptransport.Routes(handler)

	go pool.Run(ctx)

	// Artifacts outlive their jobs for at least artifactTTL; records stay
	// around much longer so a late poll still sees the terminal state.
	go artifacts.Sweep(ctx, sweepInterval, artifactTTL)
	go pruneRecords(ctx, repo, sweepInterval, jobTTL, logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	log.Printf("[server] listening addr=%s workers=%d queue_capacity=%d data_dir=%s artifact_ttl=%s",
		addr, workers, queueCap, dataDir, artifactTTL)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[server] shutdown: %v", err)
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %v", err)
		}
	}

	log.Println("[server] stopped")
}

// pruneRecords deletes terminal job records long after their artifacts were
// evicted, so status polls keep working for a reasonable window.
func pruneRecords(ctx context.Context, repo *memory.JobRepository, interval, ttl time.Duration, logger zerolog.Logger) {
	lg := logger.With().Str("component", "record_pruner").Logger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stale, err := repo.ListStale(ctx, time.Now().Add(-ttl))
			if err != nil {
				lg.Error().Err(err).Msg("list stale jobs")
				continue
			}
			for _, id := range stale {
				if err := repo.Delete(ctx, id); err != nil {
					lg.Error().Err(err).Str("job_id", id.String()).Msg("delete job record")
				}
			}
			if len(stale) > 0 {
				lg.Info().Int("removed", len(stale)).Msg("pruned stale job records")
			}
		}
	}
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envDurOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
