// Package ffmpeg wraps the ffmpeg and ffprobe command-line tools for the
// snippet extraction pipeline.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ffprobeOutput captures the format.duration field of ffprobe's JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration uses ffprobe to read the duration of a local video file.
func ProbeDuration(ctx context.Context, filePath string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v\nStderr: %s", err, stderr.String())
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return 0, fmt.Errorf("error unmarshalling ffprobe output: %v\nOutput: %s", err, out.String())
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("could not retrieve duration from ffprobe output\nOutput: %s", out.String())
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration string %q: %v", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Trim cuts a sub-range out of a local video file, re-encoding for frame
// accuracy. A duration <= 0 means "until the end of the source".
func Trim(ctx context.Context, inputFile, outputFile string, start, duration float64) error {
	args := []string{
		"-y",
		"-i", inputFile,
		"-ss", fmt.Sprintf("%.3f", start),
	}
	if duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", duration))
	}
	args = append(args, outputFile)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg -ss failed: %v\nStderr: %s", err, stderr.String())
	}
	return nil
}

// TrimStream extracts a sub-range directly from a streaming source (an HLS
// manifest URL), re-encoding video and audio into a broadly compatible MP4.
// HLS manifests are not seekable as flat files, so the range is pulled off
// the stream without materializing the whole source first. A duration <= 0
// means "until the end of the stream".
func TrimStream(ctx context.Context, sourceURL, outputFile string, start, duration float64) error {
	args := []string{
		"-y",
		"-i", sourceURL,
		"-ss", fmt.Sprintf("%.3f", start),
	}
	if duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", duration))
	}
	args = append(args,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-avoid_negative_ts", "make_zero",
		"-movflags", "+faststart",
		outputFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg stream extract failed: %v\nStderr: %s", err, stderr.String())
	}
	return nil
}
