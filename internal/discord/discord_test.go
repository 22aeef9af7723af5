package discord

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSendPDF(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "guide.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotChannel, gotMessage, gotToken, gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send_pdf" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		gotChannel = r.FormValue("channel_id")
		gotMessage = r.FormValue("message")
		gotToken = r.FormValue("bot_token")
		_, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		gotFilename = hdr.Filename
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chan-123", "tok-abc")
	if err := c.SendPDF(context.Background(), pdfPath, "Your study guide is ready"); err != nil {
		t.Fatalf("SendPDF: %v", err)
	}
	if gotChannel != "chan-123" || gotToken != "tok-abc" {
		t.Errorf("credentials not forwarded: channel=%q token=%q", gotChannel, gotToken)
	}
	if gotMessage != "Your study guide is ready" {
		t.Errorf("unexpected message %q", gotMessage)
	}
	if gotFilename != "guide.pdf" {
		t.Errorf("unexpected filename %q", gotFilename)
	}
}

func TestSendPDFRelayFailure(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "guide.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "channel not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chan-123", "tok-abc")
	err := c.SendPDF(context.Background(), pdfPath, "hello")
	if err == nil {
		t.Fatal("expected error from 400 response")
	}
	if !strings.Contains(err.Error(), "channel not found") {
		t.Errorf("relay body not surfaced: %v", err)
	}
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "healthy", "bot_connected": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "chan-123", "tok-abc")
	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status["status"] != "healthy" {
		t.Errorf("unexpected status %v", status)
	}
}

func TestConfigured(t *testing.T) {
	if NewClient("", "", "").Configured() {
		t.Error("empty client reported configured")
	}
	if !NewClient("http://localhost:9000", "c", "t").Configured() {
		t.Error("full client reported unconfigured")
	}
}
