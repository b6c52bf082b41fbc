// Package chat is the HTTP client for the Guidee tutor server: the /chat
// endpoint family that drives a lesson conversation, plus the authoring-side
// chapter submission.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	csrfHeader         = "X-CSRF-TOKEN"
	defaultHTTPTimeout = 60 * time.Second
)

// Config describes how to reach the tutor server.
type Config struct {
	BaseURL    string
	LessonID   string
	CSRFToken  string
	HTTPClient *http.Client
}

// Client issues the /chat endpoint family requests for one lesson.
type Client struct {
	baseURL   string
	lessonID  string
	csrfToken string
	client    *http.Client
}

// NewClient builds a client for the given server and lesson.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		lessonID:  cfg.LessonID,
		csrfToken: cfg.CSRFToken,
		client:    httpClient,
	}
}

// LessonID reports which lesson this client is bound to.
func (c *Client) LessonID() string { return c.lessonID }

// Chat submits one turn. userInput is nil for the automatic lesson-flow
// probe issued at startup.
func (c *Client) Chat(ctx context.Context, userInput *string, requestType RequestType) (*Response, error) {
	body := Request{LessonID: c.lessonID, UserInput: userInput, RequestType: requestType}
	var resp Response
	if err := c.postJSON(ctx, "/chat", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClassifyIntent runs the intent step that disambiguates free text into a
// media request or a generic question before the main endpoint is invoked.
func (c *Client) ClassifyIntent(ctx context.Context, userInput string) (*Intent, error) {
	body := map[string]string{"user_input": userInput, "lesson_id": c.lessonID}
	var intent Intent
	if err := c.postJSON(ctx, "/chat/intent", body, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// Reset abandons the server-side conversation for this lesson.
func (c *Client) Reset(ctx context.Context) (*ActionResult, error) {
	return c.postAction(ctx, "/chat/reset")
}

// DeleteLastTurn removes the most recent student and tutor pair.
func (c *Client) DeleteLastTurn(ctx context.Context) (*ActionResult, error) {
	return c.postAction(ctx, "/chat/delete_last_turn")
}

func (c *Client) postAction(ctx context.Context, path string) (*ActionResult, error) {
	body := map[string]string{"lesson_id": c.lessonID}
	var result ActionResult
	if err := c.postJSON(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrapf(err, "encode %s request", path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "build %s request", path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(csrfHeader, c.csrfToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "post %s", path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "read %s response", path)
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("tutor server error on %s: %s (%s)", path, resp.Status, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decode %s response", path)
	}
	return nil
}

// MediaFile is one ordered attachment of a chapter submission.
type MediaFile struct {
	Name    string
	Content io.Reader
}

// ChapterSubmission carries everything the authoring surface produced. The
// Nth entry of Files must correspond to the Nth markup token in Script;
// the server resolves tokens to uploads by position.
type ChapterSubmission struct {
	CourseID string
	Title    string
	RawHTML  string
	Script   string
	Files    []MediaFile
}

// SubmitChapter posts an authored chapter as a multipart form.
func (c *Client) SubmitChapter(ctx context.Context, sub ChapterSubmission) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"title", sub.Title},
		{"editor_html", sub.RawHTML},
		{"script", sub.Script},
	}
	for _, field := range fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return errors.Wrapf(err, "write form field %s", field.name)
		}
	}
	for _, file := range sub.Files {
		part, err := writer.CreateFormFile("media_files", file.Name)
		if err != nil {
			return errors.Wrapf(err, "create form file %s", file.Name)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return errors.Wrapf(err, "copy form file %s", file.Name)
		}
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "finish multipart body")
	}

	path := "/course/" + sub.CourseID + "/save_chapter"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return errors.Wrap(err, "build chapter submission")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(csrfHeader, c.csrfToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post chapter submission")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("chapter submission rejected: %s (%s)", resp.Status, strings.TrimSpace(string(raw)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
