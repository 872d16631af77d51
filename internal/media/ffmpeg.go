package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ffmpeg/ffprobe invocation constants.
const (
	ffmpegCommand  = "ffmpeg"
	ffprobeCommand = "ffprobe"

	videoCodec    = "libx264"
	videoPreset   = "fast"
	audioCodec    = "aac"
	fastStartFlag = "+faststart"

	// VBV headroom around the target video bitrate.
	maxrateNum  = 12 // maxrate = 1.2 * target
	maxrateDen  = 10
	bufsizeMult = 2
)

// FFmpeg drives the external ffmpeg/ffprobe binaries for concatenation,
// duration probing and re-encoding.
type FFmpeg struct{}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{}
}

// Check verifies that ffmpeg and ffprobe are installed and runnable.
func (f *FFmpeg) Check(ctx context.Context) error {
	for _, tool := range []string{ffmpegCommand, ffprobeCommand} {
		if err := exec.CommandContext(ctx, tool, "-version").Run(); err != nil {
			return fmt.Errorf("%s is not installed or not on PATH: %w", tool, err)
		}
	}
	return nil
}

// Probe returns the media duration of path in seconds.
func (f *FFmpeg) Probe(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	}

	cmd := exec.CommandContext(ctx, ffprobeCommand, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return 0, &PipelineError{Step: "probe", Stderr: tail(stderr.String()), Err: err}
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, &PipelineError{Step: "probe", Err: fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)}
	}
	return dur, nil
}

// Concat joins inputs, in the given order, into outPath using the concat
// demuxer with stream copy. A single input degenerates to a plain copy.
func (f *FFmpeg) Concat(ctx context.Context, inputs []string, outPath string) error {
	if len(inputs) == 0 {
		return &PipelineError{Step: "concat", Err: fmt.Errorf("no input files")}
	}
	if len(inputs) == 1 {
		return copyFile(inputs[0], outPath)
	}

	listPath, err := writeConcatList(inputs, filepath.Dir(outPath))
	if err != nil {
		return &PipelineError{Step: "concat", Err: err}
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outPath,
	}
	return f.run(ctx, "concat", args)
}

// Encode re-encodes inPath into outPath at the given target bitrates.
func (f *FFmpeg) Encode(ctx context.Context, inPath, outPath string, videoBps, audioBps int64) error {
	maxrate := videoBps * maxrateNum / maxrateDen
	bufsize := videoBps * bufsizeMult

	args := []string{
		"-i", inPath,
		"-c:v", videoCodec,
		"-preset", videoPreset,
		"-b:v", strconv.FormatInt(videoBps, 10),
		"-maxrate", strconv.FormatInt(maxrate, 10),
		"-bufsize", strconv.FormatInt(bufsize, 10),
		"-c:a", audioCodec,
		"-b:a", strconv.FormatInt(audioBps, 10),
		"-movflags", fastStartFlag,
		"-y", outPath,
	}
	return f.run(ctx, "encode", args)
}

func (f *FFmpeg) run(ctx context.Context, step string, args []string) error {
	cmd := exec.CommandContext(ctx, ffmpegCommand, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &PipelineError{Step: step, Stderr: tail(stderr.String()), Err: err}
	}
	return nil
}

// writeConcatList writes the concat demuxer input list. Single quotes in paths
// are escaped as '\'' per the demuxer's quoting rules.
func writeConcatList(inputs []string, dir string) (string, error) {
	f, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", err
	}

	for _, in := range inputs {
		escaped := strings.ReplaceAll(in, `'`, `'\''`)
		if _, err := fmt.Fprintf(f, "file '%s'\n", escaped); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", err
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// tail keeps the last few lines of ffmpeg stderr for error reporting.
func tail(s string) string {
	s = strings.TrimSpace(s)
	lines := strings.Split(s, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}
