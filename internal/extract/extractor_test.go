package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"hootqna/internal/segment"
)

// fakeTranscoder writes a file of a configurable size per output, recording
// the order of calls.
type fakeTranscoder struct {
	sizes map[string]int // keyed by range label, default 4096 bytes
	fail  map[string]bool
	calls []string
}

func (f *fakeTranscoder) write(output, label string) error {
	if f.fail[label] {
		return fmt.Errorf("transcode blew up on %s", label)
	}
	size := 4096
	if s, ok := f.sizes[label]; ok {
		size = s
	}
	f.calls = append(f.calls, label)
	return os.WriteFile(output, make([]byte, size), 0o644)
}

func (f *fakeTranscoder) Trim(_ context.Context, _, output string, _, _ float64) error {
	return f.write(output, filepath.Base(output))
}

func (f *fakeTranscoder) TrimStream(_ context.Context, _, output string, _, _ float64) error {
	return f.write(output, filepath.Base(output))
}

func testExtractor(t *testing.T, tr Transcoder) (*Extractor, string, string) {
	t.Helper()
	outDir := t.TempDir()
	workDir := t.TempDir()
	e := New(outDir, workDir, nil)
	e.Transcoder = tr
	e.Fetch = func(_ context.Context, _, dest string) error {
		return os.WriteFile(dest, make([]byte, 1<<16), 0o644)
	}
	return e, outDir, workDir
}

func ranges(n int) []segment.TimeRange {
	rs := make([]segment.TimeRange, n)
	for i := range rs {
		start := float64(i * 60)
		rs[i] = segment.TimeRange{Start: start, Label: fmt.Sprintf("part %d", i+1)}
		if i < n-1 {
			end := float64((i + 1) * 60)
			rs[i].End = &end
		}
	}
	return rs
}

func TestBatchOrderingAndProgress(t *testing.T) {
	tr := &fakeTranscoder{}
	e, _, workDir := testExtractor(t, tr)

	batch := e.Extract(Source{URL: "http://example.com/video.mp4"}, "segment", ranges(3))

	for i := 1; i <= 3; i++ {
		art, err := batch.Next(context.Background())
		if err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
		if art == nil {
			t.Fatalf("Next %d: batch exhausted early", i)
		}
		if art.Index != i || art.Total != 3 {
			t.Errorf("progress = %d/%d, want %d/3", art.Index, art.Total, i)
		}
		if art.Label != fmt.Sprintf("part %d", i) {
			t.Errorf("artifact %d label = %q, out of order", i, art.Label)
		}
		if _, err := os.Stat(art.Path); err != nil {
			t.Errorf("artifact %d not on disk: %v", i, err)
		}
	}

	if art, err := batch.Next(context.Background()); art != nil || err != nil {
		t.Errorf("exhausted batch returned (%v, %v), want (nil, nil)", art, err)
	}

	// Shared download is deleted only after the whole batch.
	left, _ := os.ReadDir(workDir)
	if len(left) != 0 {
		t.Errorf("work dir not cleaned after full consumption: %d files left", len(left))
	}
}

func TestBatchPartialConsumptionKeepsTemp(t *testing.T) {
	tr := &fakeTranscoder{}
	e, _, workDir := testExtractor(t, tr)

	batch := e.Extract(Source{URL: "http://example.com/video.mp4"}, "segment", ranges(3))
	if _, err := batch.Next(context.Background()); err != nil {
		t.Fatalf("Next: %v", err)
	}

	left, _ := os.ReadDir(workDir)
	if len(left) != 1 {
		t.Fatalf("expected shared temp download to remain, found %d files", len(left))
	}

	batch.Abandon()
	left, _ = os.ReadDir(workDir)
	if len(left) != 0 {
		t.Errorf("Abandon left %d files in work dir", len(left))
	}
}

func TestBatchFailureKeepsEarlierArtifacts(t *testing.T) {
	rs := ranges(3)
	badLabel := segment.BuildFilename("segment", rs[1].Label, rs[1])
	tr := &fakeTranscoder{fail: map[string]bool{badLabel: true}}
	e, outDir, _ := testExtractor(t, tr)

	batch := e.Extract(Source{URL: "http://example.com/video.mp4"}, "segment", rs)

	first, err := batch.Next(context.Background())
	if err != nil {
		t.Fatalf("Next 1: %v", err)
	}

	_, err = batch.Next(context.Background())
	var xerr *Error
	if !errors.As(err, &xerr) {
		t.Fatalf("expected extract.Error, got %v", err)
	}
	if xerr.Index != 1 {
		t.Errorf("Error.Index = %d, want 1", xerr.Index)
	}

	if _, statErr := os.Stat(first.Path); statErr != nil {
		t.Errorf("earlier artifact rolled back: %v", statErr)
	}

	files, _ := os.ReadDir(outDir)
	if len(files) != 1 {
		t.Errorf("output dir has %d files, want just the first artifact", len(files))
	}
}

func TestCorruptionGuard(t *testing.T) {
	rs := ranges(1)
	tiny := segment.BuildFilename("segment", rs[0].Label, rs[0])
	tr := &fakeTranscoder{sizes: map[string]int{tiny: 200}}
	e, _, _ := testExtractor(t, tr)

	batch := e.Extract(Source{URL: "http://example.com/stream.m3u8"}, "segment", rs)

	_, err := batch.Next(context.Background())
	var xerr *Error
	if !errors.As(err, &xerr) {
		t.Fatalf("200-byte output must fail, got err=%v", err)
	}
}

func TestStreamSourceSkipsDownload(t *testing.T) {
	tr := &fakeTranscoder{}
	e, _, workDir := testExtractor(t, tr)
	e.Fetch = func(_ context.Context, _, _ string) error {
		t.Fatal("HLS source must not be downloaded up front")
		return nil
	}

	batch := e.Extract(Source{URL: "http://example.com/master.m3u8"}, "chapter", ranges(2))
	for {
		art, err := batch.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if art == nil {
			break
		}
	}

	left, _ := os.ReadDir(workDir)
	if len(left) != 0 {
		t.Errorf("stream batch wrote %d files to work dir", len(left))
	}
}

func TestDownloadFailure(t *testing.T) {
	e, _, _ := testExtractor(t, &fakeTranscoder{})
	e.Fetch = func(_ context.Context, _, _ string) error {
		return fmt.Errorf("connection reset")
	}

	batch := e.Extract(Source{URL: "http://example.com/video.mp4"}, "segment", ranges(2))
	_, err := batch.Next(context.Background())
	var xerr *Error
	if !errors.As(err, &xerr) {
		t.Fatalf("expected extract.Error for failed download, got %v", err)
	}
	if xerr.Index != 0 {
		t.Errorf("Error.Index = %d, want 0", xerr.Index)
	}
}
