package handlers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"hootqna/internal/extract"
	"hootqna/internal/segment"
	"hootqna/utils"
)

var validate = validator.New()

// ParseSegmentsRequest is the preview-parse payload: a raw timestamp block.
type ParseSegmentsRequest struct {
	Timestamps string `json:"timestamps" validate:"required"`
}

// ParseSegments parses a timestamp block without extracting anything, so the
// caller can preview the ranges it would produce. Parsing is all or nothing;
// a bad line fails the whole block with its line number.
func (h *ApplicationHandler) ParseSegments(c *fiber.Ctx) error {
	payload := new(ParseSegmentsRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			strings.Join(utils.FormatValidationErrors(err), "; "))
	}

	ranges, err := segment.ParseBlock(payload.Timestamps)
	if err != nil {
		return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"count":  len(ranges),
		"ranges": ranges,
	})
}

// ExtractSegmentsRequest drives snippet extraction. Either video_id (the
// provider id, resolved to its stream URL) or source_url must be set.
type ExtractSegmentsRequest struct {
	VideoID    string `json:"video_id"`
	SourceURL  string `json:"source_url"`
	Timestamps string `json:"timestamps" validate:"required"`
	Kind       string `json:"kind"`
}

// ExtractSegments parses the timestamp block and cuts one snippet per range.
// Extraction stops at the first failed range; snippets finished before the
// failure are still reported alongside the error.
func (h *ApplicationHandler) ExtractSegments(c *fiber.Ctx) error {
	payload := new(ExtractSegmentsRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			strings.Join(utils.FormatValidationErrors(err), "; "))
	}

	sourceURL := payload.SourceURL
	if sourceURL == "" {
		if payload.VideoID == "" {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Either video_id or source_url is required")
		}
		info, err := h.Provider.VideoInfo(c.Context(), payload.VideoID)
		if err != nil {
			h.Logger.WithError(err).Errorf("Provider lookup failed for %s", payload.VideoID)
			return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
		}
		if info.HLSURL == "" {
			return utils.RespondWithError(c, fiber.StatusConflict,
				fmt.Sprintf("Video %s has no stream URL, it may still be indexing", payload.VideoID))
		}
		sourceURL = info.HLSURL
	}

	ranges, err := segment.ParseBlock(payload.Timestamps)
	if err != nil {
		return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
	}

	kind := payload.Kind
	if kind == "" {
		kind = "segment"
	}

	type artifactEntry struct {
		Path      string    `json:"path"`
		Label     string    `json:"label"`
		SizeBytes int64     `json:"size_bytes"`
		Index     int       `json:"index"`
		Progress  string    `json:"progress"`
		Range     fiber.Map `json:"range"`
	}

	b := h.Extractor.Extract(extract.Source{URL: sourceURL}, kind, ranges)
	var artifacts []artifactEntry
	for {
		art, err := b.Next(c.Context())
		if err != nil {
			var exErr *extract.Error
			status := utils.StatusForError(err)
			message := err.Error()
			if errors.As(err, &exErr) {
				message = fmt.Sprintf("Extraction failed: %s", exErr.Error())
			}
			h.Logger.WithError(err).Error("Segment extraction failed")
			return c.Status(status).JSON(fiber.Map{
				"status":    "error",
				"message":   message,
				"artifacts": artifacts,
			})
		}
		if art == nil {
			break
		}
		done, total := b.Progress()
		entry := artifactEntry{
			Path:      art.Path,
			Label:     art.Label,
			SizeBytes: art.Size,
			Index:     art.Index,
			Progress:  fmt.Sprintf("%d/%d", done, total),
		}
		entry.Range = fiber.Map{"start_seconds": art.Range.Start}
		if art.Range.End != nil {
			entry.Range["end_seconds"] = *art.Range.End
		}
		artifacts = append(artifacts, entry)
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"count":     len(artifacts),
		"artifacts": artifacts,
	})
}

// ListSnippets returns every snippet file currently in the output directory.
func (h *ApplicationHandler) ListSnippets(c *fiber.Ctx) error {
	entries, err := os.ReadDir(h.Extractor.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"snippets": []string{}})
		}
		h.Logger.Errorf("Error listing snippets: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not list snippets")
	}

	type snippetEntry struct {
		Name      string `json:"name"`
		SizeBytes int64  `json:"size_bytes"`
	}
	snippets := make([]snippetEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snippets = append(snippets, snippetEntry{Name: entry.Name(), SizeBytes: info.Size()})
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"snippets": snippets})
}

// ClearSnippets deletes every snippet file in the output directory.
func (h *ApplicationHandler) ClearSnippets(c *fiber.Ctx) error {
	entries, err := os.ReadDir(h.Extractor.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"removed": 0})
		}
		h.Logger.Errorf("Error listing snippets: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not clear snippets")
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp4") {
			continue
		}
		if err := os.Remove(filepath.Join(h.Extractor.OutputDir, entry.Name())); err != nil {
			h.Logger.Warnf("Could not remove snippet %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"removed": removed})
}
