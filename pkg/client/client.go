// Package client is a Go SDK for the salama collaborator API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/muntakson/salama/internal/models"
)

// Client is a Go SDK for the salama API. Calls are stateless and never retried.
type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new salama API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithSession returns a copy of the client that acts with an admin session token
func (c *Client) WithSession(token string) *Client {
	cp := *c
	cp.sessionToken = token
	return &cp
}

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == status
}

// ListOptions narrows a card listing. CategoryID 0 and the default category both mean all cards.
type ListOptions struct {
	CategoryID int64
	Search     string
}

// --- Catalog ---

// ListCategories retrieves all categories
func (c *Client) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := c.doJSON(ctx, http.MethodGet, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListCards retrieves cards matching opts, newest first
func (c *Client) ListCards(ctx context.Context, opts ListOptions) ([]*models.TrainingCard, error) {
	query := url.Values{}
	if opts.CategoryID > 0 {
		query.Set("category_id", strconv.FormatInt(opts.CategoryID, 10))
	}
	if s := strings.TrimSpace(opts.Search); s != "" {
		query.Set("search", s)
	}

	path := "/api/cards"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var cards []*models.TrainingCard
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// GetCard retrieves one card. The API counts this as a view.
func (c *Client) GetCard(ctx context.Context, id int64) (*models.TrainingCard, error) {
	var card models.TrainingCard
	if err := c.doJSON(ctx, http.MethodGet, cardPath(id, ""), nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// --- Engagement ---

// LikeCard records a like from visitorID
func (c *Client) LikeCard(ctx context.Context, id int64, visitorID string) (*models.LikeResponse, error) {
	var resp models.LikeResponse
	req := models.LikeRequest{UserIdentifier: visitorID}
	if err := c.doJSON(ctx, http.MethodPost, cardPath(id, "/like"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListComments retrieves a card's comments, newest first
func (c *Client) ListComments(ctx context.Context, id int64) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := c.doJSON(ctx, http.MethodGet, cardPath(id, "/comments"), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment on a card
func (c *Client) AddComment(ctx context.Context, id int64, in models.CommentInput) (*models.Comment, error) {
	var comment models.Comment
	if err := c.doJSON(ctx, http.MethodPost, cardPath(id, "/comments"), in, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// AskAI sends a question with its card context. A nil error with Success=false
// means the assistant answered but could not process the question.
func (c *Client) AskAI(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/ai/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Admin ---

// Login exchanges the admin password for a session token
func (c *Client) Login(ctx context.Context, password string) (string, error) {
	var resp models.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/login", models.LoginRequest{Password: password}, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.SessionToken == "" {
		return "", &StatusError{StatusCode: http.StatusUnauthorized, Code: "invalid_password"}
	}
	return resp.SessionToken, nil
}

// Verify reports whether the client's session token is still valid
func (c *Client) Verify(ctx context.Context) (bool, error) {
	if c.sessionToken == "" {
		return false, nil
	}

	var resp models.VerifyResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/admin/verify", models.SessionRequest{SessionToken: c.sessionToken}, &resp)
	if IsUnauthorized(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Logout revokes the client's session token
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/admin/logout", models.SessionRequest{SessionToken: c.sessionToken}, nil)
}

// Stats retrieves the dashboard aggregate
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// CreateCategory creates a category
func (c *Client) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	var category models.Category
	if err := c.doJSON(ctx, http.MethodPost, "/api/categories", in, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory replaces a category
func (c *Client) UpdateCategory(ctx context.Context, id int64, in models.CategoryInput) (*models.Category, error) {
	var category models.Category
	path := "/api/categories/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, http.MethodPut, path, in, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory deletes a category
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/categories/"+strconv.FormatInt(id, 10), nil, nil)
}

// CreateCard creates a card
func (c *Client) CreateCard(ctx context.Context, in models.CardInput) (*models.TrainingCard, error) {
	var card models.TrainingCard
	if err := c.doJSON(ctx, http.MethodPost, "/api/cards", in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// UpdateCard replaces a card's content
func (c *Client) UpdateCard(ctx context.Context, id int64, in models.CardInput) (*models.TrainingCard, error) {
	var card models.TrainingCard
	if err := c.doJSON(ctx, http.MethodPut, cardPath(id, ""), in, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard deletes a card
func (c *Client) DeleteCard(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, cardPath(id, ""), nil, nil)
}

// Upload streams one file as multipart field "file" and returns its public URL
func (c *Client) Upload(ctx context.Context, kind models.UploadKind, filename string, r io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		fw, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(fw, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	body, err := c.doRequest(ctx, http.MethodPost, "/api/upload/"+string(kind), mw.FormDataContentType(), pr)
	// Unblock the writer if the request ended before the body was consumed
	pr.Close()
	if err != nil {
		return "", err
	}

	var resp models.UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.URL == "" {
		return "", errors.New("upload response has no url")
	}
	return resp.URL, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", "", nil)
	return err
}

func cardPath(id int64, suffix string) string {
	return "/api/cards/" + strconv.FormatInt(id, 10) + suffix
}

// doJSON sends in as JSON (when non-nil) and decodes the response into out (when non-nil)
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	resp, err := c.doRequest(ctx, method, path, "application/json", body)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			se.Code, se.Message = apiErr.Error, apiErr.Message
		}
		return respBody, se
	}

	return respBody, nil
}
