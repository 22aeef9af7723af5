// Package extract turns parsed time ranges into trimmed snippet files. A
// batch is a cooperative generator: artifacts are produced one per call, in
// input order, and each call may block for a download or a transcode.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hootqna/internal/ffmpeg"
	"hootqna/internal/segment"
)

// DefaultMinOutputBytes is the corruption guard threshold: a transcode that
// "succeeds" but writes less than this is treated as a failure.
const DefaultMinOutputBytes = 1000

// Source locates the video a batch extracts from. Manifest URLs are
// transcoded per-range off the stream; anything else is downloaded once to a
// shared temporary file and trimmed locally.
type Source struct {
	URL string
}

// IsStream reports whether the source is an HLS manifest.
func (s Source) IsStream() bool {
	return strings.Contains(s.URL, ".m3u8")
}

// Artifact describes one produced snippet file.
type Artifact struct {
	Path  string            `json:"path"`
	Label string            `json:"label"`
	Kind  string            `json:"kind"`
	Range segment.TimeRange `json:"source_range"`
	Size  int64             `json:"size_bytes"`
	Index int               `json:"index"`
	Total int               `json:"total"`
}

// Error reports a failure extracting one range of a batch. Artifacts from
// earlier ranges remain on disk; there is no rollback.
type Error struct {
	Index int
	Label string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extracting range %d (%q): %v", e.Index+1, e.Label, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transcoder is the media tool boundary, satisfied by the ffmpeg package.
type Transcoder interface {
	Trim(ctx context.Context, input, output string, start, duration float64) error
	TrimStream(ctx context.Context, url, output string, start, duration float64) error
}

type ffmpegTranscoder struct{}

func (ffmpegTranscoder) Trim(ctx context.Context, input, output string, start, duration float64) error {
	return ffmpeg.Trim(ctx, input, output, start, duration)
}

func (ffmpegTranscoder) TrimStream(ctx context.Context, url, output string, start, duration float64) error {
	return ffmpeg.TrimStream(ctx, url, output, start, duration)
}

// Extractor produces snippet batches. Safe for use from multiple sessions:
// every batch gets its own uuid-suffixed temporary download, so concurrent
// extractions of the same source never collide.
type Extractor struct {
	OutputDir      string
	WorkDir        string
	MinOutputBytes int64

	Transcoder Transcoder
	Fetch      func(ctx context.Context, url, dest string) error
	Log        *logrus.Logger
}

// New returns an Extractor writing artifacts to outputDir and temporary
// downloads to workDir.
func New(outputDir, workDir string, log *logrus.Logger) *Extractor {
	return &Extractor{
		OutputDir:      outputDir,
		WorkDir:        workDir,
		MinOutputBytes: DefaultMinOutputBytes,
		Transcoder:     ffmpegTranscoder{},
		Fetch:          fetchURL,
		Log:            log,
	}
}

// Extract starts a batch over the given ranges. No work happens until the
// first Next call. The batch is single-pass and non-restartable.
func (e *Extractor) Extract(source Source, kind string, ranges []segment.TimeRange) *Batch {
	return &Batch{ext: e, source: source, kind: kind, ranges: ranges}
}

// Batch yields one artifact per Next call, strictly in range order.
type Batch struct {
	ext    *Extractor
	source Source
	kind   string
	ranges []segment.TimeRange

	next     int
	tempPath string
}

// Progress returns how many ranges have been produced and the total count.
func (b *Batch) Progress() (done, total int) {
	return b.next, len(b.ranges)
}

// Next produces the next artifact, blocking for any download or transcode it
// requires. It returns (nil, nil) once the batch is exhausted. The shared
// temporary download, if any, is removed only after the final range; if the
// caller abandons the batch early it must call Abandon.
func (b *Batch) Next(ctx context.Context) (*Artifact, error) {
	if b.next >= len(b.ranges) {
		return nil, nil
	}

	if err := os.MkdirAll(b.ext.OutputDir, 0o755); err != nil {
		return nil, &Error{Index: b.next, Label: b.ranges[b.next].Label, Err: err}
	}

	if !b.source.IsStream() && b.tempPath == "" {
		if err := b.download(ctx); err != nil {
			return nil, &Error{Index: b.next, Label: b.ranges[b.next].Label, Err: err}
		}
	}

	r := b.ranges[b.next]
	outPath := filepath.Join(b.ext.OutputDir, segment.BuildFilename(b.kind, r.Label, r))

	duration, bounded := r.Duration()
	if !bounded {
		duration = 0 // transcoder reads to end of source
	}

	var err error
	if b.source.IsStream() {
		err = b.ext.Transcoder.TrimStream(ctx, b.source.URL, outPath, r.Start, duration)
	} else {
		err = b.ext.Transcoder.Trim(ctx, b.tempPath, outPath, r.Start, duration)
	}
	if err != nil {
		return nil, &Error{Index: b.next, Label: r.Label, Err: err}
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, &Error{Index: b.next, Label: r.Label, Err: fmt.Errorf("output file missing: %w", err)}
	}
	if min := b.ext.minBytes(); info.Size() < min {
		return nil, &Error{Index: b.next, Label: r.Label,
			Err: fmt.Errorf("output file is too small (%d bytes), likely corrupted", info.Size())}
	}

	b.next++
	if b.ext.Log != nil {
		b.ext.Log.Infof("Extracted segment %d/%d: %s", b.next, len(b.ranges), outPath)
	}
	if b.next == len(b.ranges) {
		b.cleanup()
	}

	return &Artifact{
		Path:  outPath,
		Label: r.Label,
		Kind:  b.kind,
		Range: r,
		Size:  info.Size(),
		Index: b.next,
		Total: len(b.ranges),
	}, nil
}

// Abandon removes the shared temporary download of a partially consumed
// batch. Produced artifacts are left alone.
func (b *Batch) Abandon() {
	b.cleanup()
}

func (b *Batch) download(ctx context.Context) error {
	if err := os.MkdirAll(b.ext.WorkDir, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(b.ext.WorkDir, fmt.Sprintf("source_%s.mp4", uuid.NewString()))
	if b.ext.Log != nil {
		b.ext.Log.Infof("Downloading source video to %s", dest)
	}
	if err := b.ext.Fetch(ctx, b.source.URL, dest); err != nil {
		os.Remove(dest)
		return fmt.Errorf("downloading source video: %w", err)
	}
	b.tempPath = dest
	return nil
}

func (b *Batch) cleanup() {
	if b.tempPath != "" {
		os.Remove(b.tempPath)
		b.tempPath = ""
	}
}

func (e *Extractor) minBytes() int64 {
	if e.MinOutputBytes > 0 {
		return e.MinOutputBytes
	}
	return DefaultMinOutputBytes
}

// fetchURL downloads url to dest with a plain streaming GET.
func fetchURL(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing download: %w", err)
	}
	return nil
}
