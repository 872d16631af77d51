package worker

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"video-concat-service/internal/entity"
	"video-concat-service/internal/policy"
	"video-concat-service/internal/store"
)

// Ports the processor needs, defined on the consumer side.

type JobRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	SetStatus(ctx context.Context, id uuid.UUID, status entity.JobStatus, detail string) error
	SetCompleted(ctx context.Context, id uuid.UUID, art entity.ArtifactInfo) error
	SetFailed(ctx context.Context, id uuid.UUID, errText string) error
}

type Downloader interface {
	Fetch(ctx context.Context, url, destPath string) error
}

type Pipeline interface {
	Probe(ctx context.Context, path string) (float64, error)
	Concat(ctx context.Context, inputs []string, outPath string) error
	Encode(ctx context.Context, inPath, outPath string, videoBps, audioBps int64) error
}

type Artifacts interface {
	Put(ctx context.Context, jobID uuid.UUID, srcPath, filename string) (store.ArtifactRef, error)
}

// Processor drives one job through download, concatenation, the compression
// decision and artifact publication, keeping the registry authoritative.
type Processor struct {
	repo       JobRepo
	downloader Downloader
	pipeline   Pipeline
	artifacts  Artifacts
	tmpRoot    string
	logger     zerolog.Logger
}

func NewProcessor(repo JobRepo, dl Downloader, pl Pipeline, arts Artifacts, tmpRoot string, logger zerolog.Logger) *Processor {
	return &Processor{
		repo:       repo,
		downloader: dl,
		pipeline:   pl,
		artifacts:  arts,
		tmpRoot:    tmpRoot,
		logger:     logger.With().Str("component", "processor").Logger(),
	}
}

func (p *Processor) Process(ctx context.Context, jobID uuid.UUID) error {
	start := time.Now()
	log := p.logger.With().Str("job_id", jobID.String()).Logger()

	job, err := p.repo.GetByID(ctx, jobID)
	if err != nil {
		log.Error().Err(err).Msg("load job")
		return err
	}

	tmpDir, err := os.MkdirTemp(p.tmpRoot, "video_concat_"+jobID.String()+"_")
	if err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("create temp dir: %w", err))
	}
	// Per-source downloads are scoped to this directory and released on every
	// exit path, unless the caller asked to keep them.
	defer func() {
		if !job.KeepTemp {
			os.RemoveAll(tmpDir)
		}
	}()

	// Download each source in order. Any failure aborts the job before
	// concatenation is attempted.
	files := make([]string, 0, len(job.URLs))
	for i, src := range job.URLs {
		detail := fmt.Sprintf("downloading video %d/%d", i+1, len(job.URLs))
		if err := p.repo.SetStatus(ctx, jobID, entity.StatusDownloading, detail); err != nil {
			return err
		}

		dest := filepath.Join(tmpDir, sourceFilename(src, i))
		if err := p.downloader.Fetch(ctx, src, dest); err != nil {
			return p.fail(ctx, jobID, err)
		}
		files = append(files, dest)
	}

	if err := p.repo.SetStatus(ctx, jobID, entity.StatusConcatenating, ""); err != nil {
		return err
	}

	outPath := filepath.Join(tmpDir, job.OutputName)
	if err := p.pipeline.Concat(ctx, files, outPath); err != nil {
		return p.fail(ctx, jobID, err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("stat output: %w", err))
	}
	sizeBytes := info.Size()
	ceiling := int64(job.MaxSizeMB) * 1024 * 1024

	// Compression is best-effort: when any part of it fails, the job still
	// completes with the uncompressed output.
	wasCompressed := false
	if sizeBytes > ceiling {
		compressed, newSize, ok := p.compress(ctx, log, jobID, outPath, sizeBytes, ceiling)
		if ok {
			outPath = compressed
			sizeBytes = newSize
			wasCompressed = true
		}
	}

	ref, err := p.artifacts.Put(ctx, jobID, outPath, job.OutputName)
	if err != nil {
		return p.fail(ctx, jobID, fmt.Errorf("store artifact: %w", err))
	}

	art := entity.ArtifactInfo{
		Filename:      ref.Filename,
		SizeBytes:     sizeBytes,
		WasCompressed: wasCompressed,
	}
	if err := p.repo.SetCompleted(ctx, jobID, art); err != nil {
		return err
	}

	log.Info().
		Str("status", "completed").
		Int64("size_bytes", sizeBytes).
		Bool("was_compressed", wasCompressed).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("job done")
	return nil
}

// compress probes the output, asks the policy for target bitrates and
// re-encodes. On any failure it reports ok=false and the caller keeps the
// uncompressed file.
func (p *Processor) compress(ctx context.Context, log zerolog.Logger, jobID uuid.UUID, inPath string, sizeBytes, ceiling int64) (string, int64, bool) {
	duration, err := p.pipeline.Probe(ctx, inPath)
	if err != nil {
		log.Warn().Err(err).Msg("probe failed, keeping uncompressed output")
		return "", 0, false
	}

	dec := policy.Decide(sizeBytes, ceiling, duration)
	if !dec.Required {
		return "", 0, false
	}
	if dec.BestEffort {
		log.Warn().
			Int64("ceiling_bytes", ceiling).
			Msg("ceiling below floor bitrates, output may exceed requested size")
	}

	if err := p.repo.SetStatus(ctx, jobID, entity.StatusCompressing, ""); err != nil {
		return "", 0, false
	}

	outPath := strings.TrimSuffix(inPath, path.Ext(inPath)) + "_compressed.mp4"
	if err := p.pipeline.Encode(ctx, inPath, outPath, dec.VideoBitrateBps, dec.AudioBitrateBps); err != nil {
		log.Warn().Err(err).Msg("compression failed, keeping uncompressed output")
		return "", 0, false
	}

	info, err := os.Stat(outPath)
	if err != nil {
		log.Warn().Err(err).Msg("stat compressed output, keeping uncompressed output")
		return "", 0, false
	}
	return outPath, info.Size(), true
}

func (p *Processor) fail(ctx context.Context, jobID uuid.UUID, cause error) error {
	log := p.logger.With().Str("job_id", jobID.String()).Logger()
	log.Error().Err(cause).Str("status", "failed").Msg("job failed")

	// The terminal write must land even when the triggering error was a
	// context cancellation.
	if err := p.repo.SetFailed(context.WithoutCancel(ctx), jobID, cause.Error()); err != nil {
		log.Error().Err(err).Msg("record failure")
	}
	return cause
}

var videoExts = []string{".mp4", ".avi", ".mkv", ".mov", ".wmv"}

// sourceFilename derives a local filename for the i-th source URL, prefixed
// with the index so download order survives name collisions.
func sourceFilename(rawURL string, i int) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("video_%d", i+1)
	}

	lower := strings.ToLower(name)
	hasExt := false
	for _, ext := range videoExts {
		if strings.HasSuffix(lower, ext) {
			hasExt = true
			break
		}
	}
	if !hasExt {
		name += ".mp4"
	}
	return fmt.Sprintf("%02d_%s", i+1, name)
}
