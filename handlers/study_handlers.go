package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"hootqna/internal/study"
	"hootqna/models"
	"hootqna/utils"
)

// StudyGuideRequest configures a study guide build. Zero values fall back to
// the generators' defaults.
type StudyGuideRequest struct {
	NumFlashcards int    `json:"num_flashcards"`
	Difficulty    string `json:"difficulty"`
	NumQuestions  int    `json:"num_questions"`
	QuizType      string `json:"quiz_type"`

	SkipFlashcards bool `json:"skip_flashcards"`
	SkipQuiz       bool `json:"skip_quiz"`
	Force          bool `json:"force"`

	SendToDiscord bool   `json:"send_to_discord"`
	Message       string `json:"message"`
}

// BuildStudyGuide assembles a PDF study guide for a video: summary, chapters,
// highlights, and optionally flashcards and a quiz, then hands it to the
// Discord relay if asked.
func (h *ApplicationHandler) BuildStudyGuide(c *fiber.Ctx) error {
	providerVideoID := c.Params("videoId")
	ctx := c.Context()

	payload := new(StudyGuideRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		}
	}

	info, err := h.Provider.VideoInfo(ctx, providerVideoID)
	if err != nil {
		h.Logger.WithError(err).Errorf("Provider lookup failed for %s", providerVideoID)
		return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
	}

	content := study.GuideContent{VideoTitle: info.Name}

	if summary, err := h.Provider.Summarize(ctx, providerVideoID, ""); err != nil {
		h.Logger.WithError(err).Warnf("Summary unavailable for %s", providerVideoID)
	} else {
		content.Summary = summary
	}
	if chapters, err := h.Provider.Chapters(ctx, providerVideoID); err != nil {
		h.Logger.WithError(err).Warnf("Chapters unavailable for %s", providerVideoID)
	} else {
		content.Chapters = chapters
	}
	if highlights, err := h.Provider.Highlights(ctx, providerVideoID); err != nil {
		h.Logger.WithError(err).Warnf("Highlights unavailable for %s", providerVideoID)
	} else {
		content.Highlights = highlights
	}

	// Flashcards and quizzes are cached like the other analyses, one per
	// (video, kind); force=true regenerates.
	record, err := h.Store.VideoByProviderID(providerVideoID)
	if err != nil {
		h.Logger.Errorf("Error loading video %s: %v", providerVideoID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not load video")
	}

	if !payload.SkipFlashcards {
		cards := new(study.FlashcardSet)
		if !h.cachedStudyItem(record, models.AnalysisFlashcards, payload.Force, cards) {
			cards, err = study.GenerateFlashcards(ctx, h.Provider, providerVideoID, payload.NumFlashcards, payload.Difficulty)
			if err != nil {
				h.Logger.WithError(err).Errorf("Flashcard generation failed for %s", providerVideoID)
				return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
			}
			h.cacheStudyItem(record, models.AnalysisFlashcards, cards)
		}
		content.Flashcards = cards
	}
	if !payload.SkipQuiz {
		quiz := new(study.Quiz)
		if !h.cachedStudyItem(record, models.AnalysisQuiz, payload.Force, quiz) {
			quiz, err = study.GenerateQuiz(ctx, h.Provider, providerVideoID, payload.NumQuestions, payload.QuizType)
			if err != nil {
				h.Logger.WithError(err).Errorf("Quiz generation failed for %s", providerVideoID)
				return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
			}
			h.cacheStudyItem(record, models.AnalysisQuiz, quiz)
		}
		content.Quiz = quiz
	}

	pdfPath, err := study.BuildGuidePDF(h.GuideDir, content)
	if err != nil {
		h.Logger.Errorf("Error building study guide: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not build study guide PDF")
	}

	response := fiber.Map{
		"video_id": providerVideoID,
		"title":    info.Name,
		"pdf_path": pdfPath,
	}

	if payload.SendToDiscord {
		if !h.Discord.Configured() {
			return utils.RespondWithError(c, fiber.StatusConflict,
				"Discord relay is not configured: set DISCORD_CHANNEL_ID and DISCORD_BOT_TOKEN")
		}
		message := payload.Message
		if message == "" {
			message = fmt.Sprintf("Study guide for %s", info.Name)
		}
		if err := h.Discord.SendPDF(ctx, pdfPath, message); err != nil {
			h.Logger.WithError(err).Error("Discord send failed")
			response["discord_error"] = err.Error()
		} else {
			response["discord_sent"] = true
		}
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, response)
}

// cachedStudyItem loads a cached flashcard set or quiz into out. It reports
// false when the video is unregistered, force is set, or nothing is cached.
func (h *ApplicationHandler) cachedStudyItem(record *models.VideoRecord, kind string, force bool, out any) bool {
	if record == nil || force {
		return false
	}
	cached, err := h.Store.Analysis(record.ID, kind)
	if err != nil || cached == nil {
		return false
	}
	return json.Unmarshal(cached, out) == nil
}

// cacheStudyItem stores a generated flashcard set or quiz for reuse. Videos
// not in the registry are served without caching.
func (h *ApplicationHandler) cacheStudyItem(record *models.VideoRecord, kind string, item any) {
	if record == nil {
		return
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := h.Store.SaveAnalysis(record.ID, kind, raw); err != nil {
		h.Logger.Warnf("Could not cache %s for video %d: %v", kind, record.ID, err)
	}
}

// DiscordStatus probes the relay's health endpoint.
func (h *ApplicationHandler) DiscordStatus(c *fiber.Ctx) error {
	if h.Discord == nil || h.Discord.Endpoint == "" {
		return utils.RespondWithError(c, fiber.StatusConflict, "Discord relay is not configured")
	}

	status, err := h.Discord.Status(c.Context())
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadGateway, err.Error())
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, status)
}
