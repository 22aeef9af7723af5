package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"hootqna/internal/batch"
	"hootqna/internal/ffmpeg"
	"hootqna/internal/provider"
	"hootqna/internal/store"
	"hootqna/utils"
)

// taskPollInterval is how often upload handlers poll the provider while an
// indexing task is running.
const taskPollInterval = 10 * time.Second

// currentUserID resolves the acting user from the X-User-ID header, creating
// the user row on first sight. An absent header maps to the shared local user.
func (h *ApplicationHandler) currentUserID(c *fiber.Ctx) (int64, error) {
	authID := utils.SanitizeInput(c.Get("X-User-ID"))
	if authID == "" {
		authID = utils.SanitizeInput(c.Query("user_id"))
	}
	if authID == "" {
		authID = "local-user"
	}
	return h.Store.GetOrCreateUser(authID, "", "")
}

// UploadVideo accepts a multipart video file, submits it to the provider for
// indexing, and records the video once indexing finishes.
func (h *ApplicationHandler) UploadVideo(c *fiber.Ctx) error {
	userID, err := h.currentUserID(c)
	if err != nil {
		h.Logger.Errorf("Error resolving user: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not resolve user")
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		fileHeader, err = c.FormFile("file")
	}
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Missing 'video' file field")
	}

	tempPath, err := h.spoolUpload(c, fileHeader)
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, err.Error())
	}
	defer os.Remove(tempPath)

	result, err := h.indexFile(c.Context(), userID, tempPath, fileHeader.Filename)
	if err != nil {
		h.Logger.WithError(err).Errorf("Upload failed for %s", fileHeader.Filename)
		return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
	}

	return utils.RespondWithJSON(c, fiber.StatusCreated, result)
}

// spoolUpload writes the multipart file to the work directory under a unique
// name and returns the path. Callers own the file's removal.
func (h *ApplicationHandler) spoolUpload(c *fiber.Ctx, fileHeader *multipart.FileHeader) (string, error) {
	workDir := h.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	tempPath := filepath.Join(workDir, fmt.Sprintf("upload_%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename)))
	if err := c.SaveFile(fileHeader, tempPath); err != nil {
		return "", fmt.Errorf("saving upload to disk: %w", err)
	}
	return tempPath, nil
}

type uploadResult struct {
	Filename        string `json:"filename"`
	ProviderVideoID string `json:"provider_video_id"`
	VideoID         int64  `json:"video_id"`
	Status          string `json:"status"`
}

// indexFile runs the pipeline for one spooled file: check duration, create
// the provider task, wait for it, and persist the outcome.
func (h *ApplicationHandler) indexFile(ctx context.Context, userID int64, tempPath, filename string) (*uploadResult, error) {
	duration, err := ffmpeg.ProbeDuration(ctx, tempPath)
	if err != nil {
		return nil, fmt.Errorf("probing uploaded video: %w", err)
	}
	if duration > h.MaxVideoDuration {
		return nil, fmt.Errorf("video is %s long, the limit is %s", duration.Round(time.Second), h.MaxVideoDuration)
	}

	taskID, err := h.Provider.CreateTask(ctx, tempPath)
	if err != nil {
		return nil, err
	}

	task, err := h.Provider.WaitForTask(ctx, taskID, taskPollInterval)
	if err != nil {
		return nil, err
	}

	videoID, err := h.Store.CreateVideo(userID, filename, task.VideoID, store.StatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("recording video: %w", err)
	}

	finalStatus := store.StatusReady
	if task.Status != provider.TaskStatusReady {
		finalStatus = store.StatusFailed
	}
	if err := h.Store.SetVideoStatus(task.VideoID, finalStatus); err != nil {
		return nil, fmt.Errorf("updating video status: %w", err)
	}
	if finalStatus == store.StatusFailed {
		return nil, fmt.Errorf("provider indexing ended in status %q", task.Status)
	}

	return &uploadResult{
		Filename:        filename,
		ProviderVideoID: task.VideoID,
		VideoID:         videoID,
		Status:          finalStatus,
	}, nil
}

// uploadJob adapts one spooled file of a batch upload to the batch runner.
type uploadJob struct {
	handler  *ApplicationHandler
	userID   int64
	path     string
	filename string
}

func (j *uploadJob) ID() string { return j.filename }

func (j *uploadJob) Execute(ctx context.Context) (any, error) {
	return j.handler.indexFile(ctx, j.userID, j.path, j.filename)
}

// UploadVideoBatch accepts several files under the 'videos' field and indexes
// them concurrently. Each file succeeds or fails on its own; the response
// reports every outcome.
func (h *ApplicationHandler) UploadVideoBatch(c *fiber.Ctx) error {
	userID, err := h.currentUserID(c)
	if err != nil {
		h.Logger.Errorf("Error resolving user: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not resolve user")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Expected multipart form data")
	}
	files := form.File["videos"]
	if len(files) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No files in 'videos' field")
	}

	// Spool every file before starting work so the request body is fully
	// consumed on this goroutine.
	jobs := make([]batch.Job, len(files))
	for i, fh := range files {
		tempPath, err := h.spoolUpload(c, fh)
		if err != nil {
			return utils.RespondWithError(c, fiber.StatusInternalServerError, err.Error())
		}
		defer os.Remove(tempPath)
		jobs[i] = &uploadJob{handler: h, userID: userID, path: tempPath, filename: fh.Filename}
	}

	runner := batch.NewRunner(h.BatchWorkers, h.Logger)
	results := runner.Run(c.Context(), jobs)

	type batchEntry struct {
		Filename string        `json:"filename"`
		Error    string        `json:"error,omitempty"`
		Result   *uploadResult `json:"result,omitempty"`
	}
	entries := make([]batchEntry, len(results))
	succeeded := 0
	for i, res := range results {
		entries[i] = batchEntry{Filename: res.JobID}
		if res.Err != nil {
			entries[i].Error = res.Err.Error()
			continue
		}
		entries[i].Result = res.Value.(*uploadResult)
		succeeded++
	}

	status := fiber.StatusCreated
	if succeeded == 0 {
		status = fiber.StatusBadGateway
	}
	return utils.RespondWithJSON(c, status, fiber.Map{
		"total":     len(files),
		"succeeded": succeeded,
		"uploads":   entries,
	})
}

// ListVideos returns the acting user's videos, most recent first.
func (h *ApplicationHandler) ListVideos(c *fiber.Ctx) error {
	userID, err := h.currentUserID(c)
	if err != nil {
		h.Logger.Errorf("Error resolving user: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not resolve user")
	}

	videos, err := h.Store.VideosForUser(userID)
	if err != nil {
		h.Logger.Errorf("Error listing videos: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not list videos")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"videos": videos})
}

// GetVideo returns one video's stored record joined with the provider's
// current view of it.
func (h *ApplicationHandler) GetVideo(c *fiber.Ctx) error {
	providerVideoID := c.Params("videoId")

	record, err := h.Store.VideoByProviderID(providerVideoID)
	if err != nil {
		h.Logger.Errorf("Error loading video %s: %v", providerVideoID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not load video")
	}
	if record == nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, fmt.Sprintf("No video with id %s", providerVideoID))
	}

	info, err := h.Provider.VideoInfo(c.Context(), providerVideoID)
	if err != nil {
		h.Logger.WithError(err).Warnf("Provider lookup failed for %s, returning stored record only", providerVideoID)
		return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"video": record})
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"video":    record,
		"provider": info,
	})
}
