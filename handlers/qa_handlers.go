package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"hootqna/internal/extract"
	"hootqna/internal/provider"
	"hootqna/internal/segment"
	"hootqna/utils"
)

// SearchRequest is the Q&A search payload. An empty video_id searches the
// whole index. WithSnippets additionally cuts a video snippet per hit and
// therefore needs a single video to cut from.
type SearchRequest struct {
	VideoID      string `json:"video_id"`
	Query        string `json:"query" validate:"required"`
	MaxResults   int    `json:"max_results"`
	WithSnippets bool   `json:"with_snippets"`
}

// SearchVideo runs a semantic search over one video and optionally extracts
// a snippet for each hit so the answer can be watched, not just read.
func (h *ApplicationHandler) SearchVideo(c *fiber.Ctx) error {
	payload := new(SearchRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
	}
	if err := validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			strings.Join(utils.FormatValidationErrors(err), "; "))
	}
	if payload.MaxResults <= 0 {
		payload.MaxResults = 5
	}
	if payload.WithSnippets && payload.VideoID == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest,
			"Snippets require a video_id; index-wide search cannot cut snippets")
	}

	hits, err := h.Provider.Search(c.Context(), payload.VideoID, payload.Query, payload.MaxResults)
	if err != nil {
		h.Logger.WithError(err).Errorf("Search failed for %s", payload.VideoID)
		return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
	}

	if !payload.WithSnippets || len(hits) == 0 {
		return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
			"query": payload.Query,
			"hits":  hits,
		})
	}

	info, err := h.Provider.VideoInfo(c.Context(), payload.VideoID)
	if err != nil {
		h.Logger.WithError(err).Errorf("Provider lookup failed for %s", payload.VideoID)
		return utils.RespondWithError(c, utils.StatusForError(err), err.Error())
	}
	if info.HLSURL == "" {
		return utils.RespondWithError(c, fiber.StatusConflict,
			fmt.Sprintf("Video %s has no stream URL, snippets are unavailable", payload.VideoID))
	}

	ranges := rangesForHits(payload.Query, hits)
	b := h.Extractor.Extract(extract.Source{URL: info.HLSURL}, "qa", ranges)

	type hitEntry struct {
		provider.SearchHit
		SnippetPath  string `json:"snippet_path,omitempty"`
		SnippetError string `json:"snippet_error,omitempty"`
	}
	entries := make([]hitEntry, len(hits))
	for i, hit := range hits {
		entries[i] = hitEntry{SearchHit: hit}
	}

	for i := range entries {
		art, err := b.Next(c.Context())
		if err != nil {
			// Snippets are best effort on top of the answer. Mark the
			// remaining hits and keep the search results usable.
			for j := i; j < len(entries); j++ {
				entries[j].SnippetError = err.Error()
			}
			b.Abandon()
			break
		}
		if art == nil {
			break
		}
		entries[i].SnippetPath = art.Path
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"query": payload.Query,
		"hits":  entries,
	})
}

// rangesForHits converts search hits into extraction ranges. Titles get a
// sequence prefix so equal-scoring hits on the same query never collide.
func rangesForHits(query string, hits []provider.SearchHit) []segment.TimeRange {
	ranges := make([]segment.TimeRange, len(hits))
	for i, hit := range hits {
		end := hit.End
		ranges[i] = segment.TimeRange{
			Start: hit.Start,
			End:   &end,
			Label: fmt.Sprintf("%02d_%s", i+1, query),
		}
	}
	return ranges
}
