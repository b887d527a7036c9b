// Package chatpdf is a small client for the ChatPDF document-QA API.
package chatpdf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dom/studyhub/internal/domain"
)

const DefaultBaseURL = "https://api.chatpdf.com"

var ErrMissingAPIKey = errors.New("chatpdf api key is not configured")

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatpdf returned status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type addFileResponse struct {
	SourceID string `json:"sourceId"`
}

type chatRequest struct {
	SourceID string               `json:"sourceId"`
	Messages []domain.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Content string `json:"content"`
}

// AddFile uploads a PDF and returns the source id ChatPDF assigned to it.
func (c *Client) AddFile(ctx context.Context, filename string, file io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	var resp addFileResponse
	if err := c.do(ctx, "/v1/sources/add-file", mw.FormDataContentType(), &body, &resp); err != nil {
		return "", err
	}
	if resp.SourceID == "" {
		return "", errors.New("chatpdf response missing sourceId")
	}
	return resp.SourceID, nil
}

// Chat sends the conversation so far and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, sourceID string, messages []domain.ChatMessage) (string, error) {
	payload, err := json.Marshal(chatRequest{SourceID: sourceID, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp chatResponse
	if err := c.do(ctx, "/v1/chats/message", "application/json", bytes.NewReader(payload), &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chatpdf request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode chatpdf response: %w", err)
	}
	return nil
}
