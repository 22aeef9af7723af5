package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"hootqna/internal/provider"
	"hootqna/internal/segment"
	"hootqna/models"
	"hootqna/utils"
)

// AnalysisRequest carries the optional knobs for a custom analysis run.
type AnalysisRequest struct {
	Prompt string `json:"prompt"`
	Force  bool   `json:"force"`
}

// analysisKind maps the URL segment onto a stored analysis type, or "" for
// an unknown kind.
func analysisKind(kind string) string {
	switch kind {
	case "summary":
		return models.AnalysisSummary
	case "chapters":
		return models.AnalysisChapters
	case "highlights":
		return models.AnalysisHighlights
	case "custom":
		return models.AnalysisCustom
	default:
		return ""
	}
}

// RunAnalysis produces (or returns the cached copy of) one analysis for a
// video. Results are cached per (video, kind); force=true in the body
// regenerates.
func (h *ApplicationHandler) RunAnalysis(c *fiber.Ctx) error {
	providerVideoID := c.Params("videoId")
	kind := analysisKind(c.Params("kind"))
	if kind == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Unknown analysis kind %q, expected summary, chapters, highlights or custom", c.Params("kind")))
	}

	record, err := h.Store.VideoByProviderID(providerVideoID)
	if err != nil {
		h.Logger.Errorf("Error loading video %s: %v", providerVideoID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not load video")
	}
	if record == nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, fmt.Sprintf("No video with id %s", providerVideoID))
	}

	payload := new(AnalysisRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		}
	}

	if !payload.Force {
		cached, err := h.Store.Analysis(record.ID, kind)
		if err != nil {
			h.Logger.Errorf("Error reading cached analysis: %v", err)
			return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not read cached analysis")
		}
		if cached != nil {
			return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
				"kind":   kind,
				"cached": true,
				"result": json.RawMessage(cached),
			})
		}
	}

	result, err := h.generateAnalysis(c, providerVideoID, kind, payload.Prompt)
	if err != nil {
		h.Logger.WithError(err).Errorf("Analysis %s failed for %s", kind, providerVideoID)
		return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
	}

	if err := h.Store.SaveAnalysis(record.ID, kind, result); err != nil {
		h.Logger.Errorf("Error caching analysis: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not store analysis")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"kind":   kind,
		"cached": false,
		"result": json.RawMessage(result),
	})
}

func (h *ApplicationHandler) generateAnalysis(c *fiber.Ctx, providerVideoID, kind, prompt string) (json.RawMessage, error) {
	ctx := c.Context()
	switch kind {
	case models.AnalysisSummary:
		text, err := h.Provider.Summarize(ctx, providerVideoID, prompt)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fiber.Map{"summary": text})
	case models.AnalysisChapters:
		chapters, err := h.Provider.Chapters(ctx, providerVideoID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fiber.Map{"chapters": chapters})
	case models.AnalysisHighlights:
		highlights, err := h.Provider.Highlights(ctx, providerVideoID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fiber.Map{"highlights": highlights})
	default: // custom
		if strings.TrimSpace(prompt) == "" {
			return nil, fmt.Errorf("custom analysis requires a prompt")
		}
		text, err := h.Provider.Analyze(ctx, providerVideoID, prompt)
		if err != nil {
			return nil, err
		}
		return json.Marshal(fiber.Map{"prompt": prompt, "result": text})
	}
}

// GetTimestamps renders the video's chapters as a timestamp text block, one
// "MM:SS-title" line per chapter. The block round-trips through the segment
// parser, which is what the extraction endpoint consumes.
func (h *ApplicationHandler) GetTimestamps(c *fiber.Ctx) error {
	providerVideoID := c.Params("videoId")

	chapters, err := h.chaptersFor(c, providerVideoID)
	if err != nil {
		h.Logger.WithError(err).Errorf("Chapter lookup failed for %s", providerVideoID)
		return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
	}

	var b strings.Builder
	for _, ch := range chapters {
		fmt.Fprintf(&b, "%s-%s\n", segment.ToClock(int(ch.StartSec)), ch.Title)
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"video_id":   providerVideoID,
		"timestamps": b.String(),
		"chapters":   chapters,
	})
}

// chaptersFor returns the video's chapters, preferring the cached analysis.
func (h *ApplicationHandler) chaptersFor(c *fiber.Ctx, providerVideoID string) ([]provider.Chapter, error) {
	record, err := h.Store.VideoByProviderID(providerVideoID)
	if err != nil {
		return nil, fmt.Errorf("loading video: %w", err)
	}

	if record != nil {
		cached, err := h.Store.Analysis(record.ID, models.AnalysisChapters)
		if err == nil && cached != nil {
			var payload struct {
				Chapters []provider.Chapter `json:"chapters"`
			}
			if json.Unmarshal(cached, &payload) == nil && len(payload.Chapters) > 0 {
				return payload.Chapters, nil
			}
		}
	}

	chapters, err := h.Provider.Chapters(c.Context(), providerVideoID)
	if err != nil {
		return nil, err
	}

	if record != nil {
		if raw, err := json.Marshal(fiber.Map{"chapters": chapters}); err == nil {
			if err := h.Store.SaveAnalysis(record.ID, models.AnalysisChapters, raw); err != nil {
				h.Logger.Warnf("Could not cache chapters for %s: %v", providerVideoID, err)
			}
		}
	}
	return chapters, nil
}
