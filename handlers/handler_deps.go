package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"hootqna/internal/discord"
	"hootqna/internal/extract"
	"hootqna/internal/provider"
	"hootqna/internal/store"
)

// VideoProvider defines the operations handlers expect from the video
// understanding backend. This allows for decoupling and easier testing.
// The concrete implementation is provider.Client.
type VideoProvider interface {
	Summarize(ctx context.Context, videoID, prompt string) (string, error)
	Chapters(ctx context.Context, videoID string) ([]provider.Chapter, error)
	Highlights(ctx context.Context, videoID string) ([]provider.Highlight, error)
	Analyze(ctx context.Context, videoID, prompt string) (string, error)
	Search(ctx context.Context, videoID, query string, maxResults int) ([]provider.SearchHit, error)
	CreateTask(ctx context.Context, videoPath string) (string, error)
	WaitForTask(ctx context.Context, taskID string, interval time.Duration) (*provider.Task, error)
	VideoInfo(ctx context.Context, videoID string) (*provider.VideoInfo, error)
	ListVideos(ctx context.Context, limit int) ([]provider.VideoInfo, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Provider  VideoProvider
	Store     *store.Store
	Extractor *extract.Extractor
	Discord   *discord.Client
	Logger    *logrus.Logger

	GuideDir         string
	WorkDir          string
	BatchWorkers     int
	MaxVideoDuration time.Duration
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(p VideoProvider, st *store.Store, ex *extract.Extractor, dc *discord.Client, logger *logrus.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		Provider:         p,
		Store:            st,
		Extractor:        ex,
		Discord:          dc,
		Logger:           logger,
		GuideDir:         "guides",
		WorkDir:          "",
		BatchWorkers:     3,
		MaxVideoDuration: time.Hour,
	}
}
