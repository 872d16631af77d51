// Command concat downloads and concatenates videos from the command line,
// running the same pipeline as the web service but inline, without job
// tracking or artifact retention.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"video-concat-service/internal/media"
	"video-concat-service/internal/policy"
)

type downloader interface {
	Fetch(ctx context.Context, url, destPath string) error
}

type pipeline interface {
	Probe(ctx context.Context, path string) (float64, error)
	Concat(ctx context.Context, inputs []string, outPath string) error
	Encode(ctx context.Context, inPath, outPath string, videoBps, audioBps int64) error
}

func main() {
	output := flag.String("o", "video_finale.mp4", "output file name")
	keepTemp := flag.Bool("keep-temp", false, "keep downloaded temporary files")
	maxSize := flag.Int("max-size", 100, "maximum output size in MB")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: concat [flags] URL [URL...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ffmpeg := media.NewFFmpeg()
	if err := ffmpeg.Check(ctx); err != nil {
		log.Fatalf("error: %v", err)
	}

	if err := run(ctx, media.NewDownloader(), ffmpeg, urls, *output, *maxSize, *keepTemp); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func run(ctx context.Context, dl downloader, pl pipeline, urls []string, output string, maxSizeMB int, keepTemp bool) error {
	tmpDir, err := os.MkdirTemp("", "video_concat_")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if keepTemp {
			log.Printf("temporary files kept in %s", tmpDir)
			return
		}
		os.RemoveAll(tmpDir)
	}()

	files := make([]string, 0, len(urls))
	for i, u := range urls {
		log.Printf("downloading %d/%d: %s", i+1, len(urls), u)
		dest := filepath.Join(tmpDir, fmt.Sprintf("%02d_source.mp4", i+1))
		if err := dl.Fetch(ctx, u, dest); err != nil {
			return err
		}
		files = append(files, dest)
	}

	log.Printf("concatenating %d videos", len(files))
	if err := pl.Concat(ctx, files, output); err != nil {
		return err
	}

	info, err := os.Stat(output)
	if err != nil {
		return err
	}
	sizeBytes := info.Size()
	ceiling := int64(maxSizeMB) * 1024 * 1024
	wasCompressed := false

	if sizeBytes > ceiling {
		duration, err := pl.Probe(ctx, output)
		if err != nil {
			return err
		}
		dec := policy.Decide(sizeBytes, ceiling, duration)
		if dec.Required {
			if dec.BestEffort {
				log.Printf("warning: %dMB ceiling is below floor bitrates, output may come in larger", maxSizeMB)
			}
			log.Printf("compressing to fit %dMB (video %d bps, audio %d bps)", maxSizeMB, dec.VideoBitrateBps, dec.AudioBitrateBps)

			// Staged next to the final output so the rename below stays on
			// one filesystem; the temp dir may live on another device.
			compressed := output + ".compressing"
			if err := pl.Encode(ctx, output, compressed, dec.VideoBitrateBps, dec.AudioBitrateBps); err != nil {
				os.Remove(compressed)
				return err
			}
			if err := os.Rename(compressed, output); err != nil {
				os.Remove(compressed)
				return fmt.Errorf("replace output: %w", err)
			}
			if info, err = os.Stat(output); err != nil {
				return err
			}
			sizeBytes = info.Size()
			wasCompressed = true
		}
	}

	printSummary(os.Stdout, output, sizeBytes, wasCompressed)
	return nil
}

func printSummary(w io.Writer, output string, sizeBytes int64, wasCompressed bool) {
	fmt.Fprintln(w, "\n=== Summary ===")
	fmt.Fprintf(w, "Output:     %s\n", output)
	fmt.Fprintf(w, "Size:       %.1f MB\n", policy.MB(sizeBytes))
	fmt.Fprintf(w, "Compressed: %v\n", wasCompressed)
}
