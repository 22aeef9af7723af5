package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultBaseURL is the production endpoint of the video-understanding API.
const DefaultBaseURL = "https://api.twelvelabs.io/v1.3"

// Client is an HTTP client for the video-understanding API, scoped to one
// index.
type Client struct {
	apiKey  string
	indexID string
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the given index. baseURL may be empty to
// use the production endpoint.
func NewClient(apiKey, indexID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		indexID: indexID,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

type summarizeRequest struct {
	VideoID     string  `json:"video_id"`
	Type        string  `json:"type"`
	Prompt      string  `json:"prompt,omitempty"`
	Temperature float64 `json:"temperature"`
}

// Summarize produces a prose summary of the video. prompt may be empty.
func (c *Client) Summarize(ctx context.Context, videoID, prompt string) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	req := summarizeRequest{VideoID: videoID, Type: "summary", Prompt: prompt, Temperature: 0.3}
	if err := c.postJSON(ctx, "summarize", "/summarize", req, &resp); err != nil {
		return "", err
	}
	if resp.Summary == "" {
		return "", &Error{Op: "summarize", Message: "response carried no summary text"}
	}
	return resp.Summary, nil
}

// Chapters produces chronological chapters with timestamps and titles.
func (c *Client) Chapters(ctx context.Context, videoID string) ([]Chapter, error) {
	var resp struct {
		Chapters []Chapter `json:"chapters"`
	}
	req := summarizeRequest{VideoID: videoID, Type: "chapter", Temperature: 0.3}
	if err := c.postJSON(ctx, "chapters", "/summarize", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Chapters) == 0 {
		return nil, &Error{Op: "chapters", Message: "response carried no chapters"}
	}
	return resp.Chapters, nil
}

// Highlights produces the most significant moments with timestamps.
func (c *Client) Highlights(ctx context.Context, videoID string) ([]Highlight, error) {
	var resp struct {
		Highlights []Highlight `json:"highlights"`
	}
	req := summarizeRequest{VideoID: videoID, Type: "highlight", Temperature: 0.3}
	if err := c.postJSON(ctx, "highlights", "/summarize", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Highlights) == 0 {
		return nil, &Error{Op: "highlights", Message: "response carried no highlights"}
	}
	return resp.Highlights, nil
}

// Analyze runs an open-ended prompt against the video and returns the raw
// generated text.
func (c *Client) Analyze(ctx context.Context, videoID, prompt string) (string, error) {
	var resp struct {
		ID   string `json:"id"`
		Data string `json:"data"`
	}
	req := struct {
		VideoID     string  `json:"video_id"`
		Prompt      string  `json:"prompt"`
		Temperature float64 `json:"temperature"`
	}{videoID, prompt, 0.3}
	if err := c.postJSON(ctx, "analyze", "/analyze", req, &resp); err != nil {
		return "", err
	}
	if resp.Data == "" {
		return "", &Error{Op: "analyze", Message: "response carried no generated text"}
	}
	return resp.Data, nil
}

// Search runs a semantic query over the index. If videoID is non-empty only
// hits from that video are returned. Hits come back sorted by score,
// highest first, capped at maxResults.
func (c *Client) Search(ctx context.Context, videoID, query string, maxResults int) ([]SearchHit, error) {
	var resp struct {
		Data []SearchHit `json:"data"`
	}
	req := struct {
		IndexID       string   `json:"index_id"`
		QueryText     string   `json:"query_text"`
		SearchOptions []string `json:"search_options"`
	}{c.indexID, query, []string{"visual", "audio"}}
	if err := c.postJSON(ctx, "search", "/search", req, &resp); err != nil {
		return nil, err
	}

	var hits []SearchHit
	for _, hit := range resp.Data {
		if videoID != "" && hit.VideoID != videoID {
			continue
		}
		hits = append(hits, hit)
		if maxResults > 0 && len(hits) == maxResults {
			break
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// CreateTask uploads a local video file for indexing and returns the task id.
func (c *Client) CreateTask(ctx context.Context, videoPath string) (string, error) {
	f, err := os.Open(videoPath)
	if err != nil {
		return "", &Error{Op: "create task", Message: err.Error()}
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("video_file", filepath.Base(videoPath))
	if err != nil {
		return "", &Error{Op: "create task", Message: err.Error()}
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", &Error{Op: "create task", Message: err.Error()}
	}
	writer.WriteField("index_id", c.indexID)
	writer.WriteField("enable_video_stream", "true")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", body)
	if err != nil {
		return "", &Error{Op: "create task", Message: err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", c.apiKey)

	var resp struct {
		ID string `json:"_id"`
	}
	if err := c.do(req, "create task", &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &Error{Op: "create task", Message: "response carried no task id"}
	}
	return resp.ID, nil
}

// TaskStatus fetches the current state of an indexing task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return nil, &Error{Op: "task status", Message: err.Error()}
	}
	req.Header.Set("x-api-key", c.apiKey)

	var resp struct {
		ID      string `json:"_id"`
		VideoID string `json:"video_id"`
		Status  string `json:"status"`
	}
	if err := c.do(req, "task status", &resp); err != nil {
		return nil, err
	}
	return &Task{ID: resp.ID, VideoID: resp.VideoID, Status: resp.Status}, nil
}

// WaitForTask polls an indexing task until it reaches a terminal status or
// ctx is cancelled.
func (c *Client) WaitForTask(ctx context.Context, taskID string, interval time.Duration) (*Task, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		task, err := c.TaskStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case TaskStatusReady, "failed", "error":
			return task, nil
		}

		select {
		case <-ctx.Done():
			return nil, &Error{Op: "wait for task", Message: ctx.Err().Error()}
		case <-ticker.C:
		}
	}
}

// VideoInfo fetches metadata for one indexed video, including its HLS
// streaming URL when the video was indexed with streaming enabled.
func (c *Client) VideoInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	url := fmt.Sprintf("%s/indexes/%s/videos/%s", c.baseURL, c.indexID, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Op: "video info", Message: err.Error()}
	}
	req.Header.Set("x-api-key", c.apiKey)

	var resp struct {
		ID         string `json:"_id"`
		SystemMeta struct {
			Filename string  `json:"filename"`
			Duration float64 `json:"duration"`
		} `json:"system_metadata"`
		HLS struct {
			VideoURL string `json:"video_url"`
		} `json:"hls"`
	}
	if err := c.do(req, "video info", &resp); err != nil {
		return nil, err
	}

	name := resp.SystemMeta.Filename
	if name == "" {
		name = "Video " + videoID
	}
	return &VideoInfo{
		ID:       videoID,
		Name:     name,
		Duration: resp.SystemMeta.Duration,
		HLSURL:   resp.HLS.VideoURL,
	}, nil
}

// ListVideos returns the most recently indexed videos, newest first.
func (c *Client) ListVideos(ctx context.Context, limit int) ([]VideoInfo, error) {
	if limit <= 0 {
		limit = 10
	}
	url := fmt.Sprintf("%s/indexes/%s/videos?page=1&page_limit=%d&sort_by=created_at&sort_option=desc",
		c.baseURL, c.indexID, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Op: "list videos", Message: err.Error()}
	}
	req.Header.Set("x-api-key", c.apiKey)

	var resp struct {
		Data []struct {
			ID         string `json:"_id"`
			SystemMeta struct {
				Filename string  `json:"filename"`
				Duration float64 `json:"duration"`
			} `json:"system_metadata"`
		} `json:"data"`
	}
	if err := c.do(req, "list videos", &resp); err != nil {
		return nil, err
	}

	videos := make([]VideoInfo, 0, len(resp.Data))
	for _, v := range resp.Data {
		videos = append(videos, VideoInfo{ID: v.ID, Name: v.SystemMeta.Filename, Duration: v.SystemMeta.Duration})
	}
	return videos, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Op: op, Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &Error{Op: op, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: op, Status: resp.StatusCode, Message: apiMessage(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode,
			Message: fmt.Sprintf("unexpected response shape: %v", err)}
	}
	return nil
}

// apiMessage pulls the human-readable message out of an API error body,
// falling back to the raw body.
func apiMessage(body []byte) string {
	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return string(body)
}
