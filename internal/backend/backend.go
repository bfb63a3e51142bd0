package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/intake"
)

const (
	DefaultURL = "https://resume2job-1.onrender.com"
	userAgent  = "resume2job-cli"

	uploadPath = "/upload"
	queryPath  = "/query"
	healthPath = "/"

	defaultMaxLogLength = 200
)

// Client talks to the Resume 2 Job assistant service.
type Client struct {
	logger       *zap.Logger
	HTTPClient   *http.Client
	UserAgent    string
	BaseURL      string
	MaxLogLength int
}

// New creates a client for baseURL. A zero timeout means requests wait as long as the backend takes.
func New(logger *zap.Logger, baseURL string, timeout time.Duration) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}

	return &Client{
		logger:       logger,
		BaseURL:      baseURL,
		HTTPClient:   &http.Client{Timeout: timeout},
		UserAgent:    userAgent,
		MaxLogLength: defaultMaxLogLength,
	}
}

// Upload sends both documents under sessionID and returns the backend acknowledgement.
func (c *Client) Upload(ctx context.Context, sessionID string, resume, jobDescription intake.Document) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}
	if resume.IsZero() || jobDescription.IsZero() {
		return "", fmt.Errorf("resume and job description are required")
	}

	form := &form{
		fields: []formField{{name: "session_id", value: sessionID}},
		files: []formFile{
			{name: "resume", doc: resume},
			{name: "jd", doc: jobDescription},
		},
	}

	return c.postForm(ctx, uploadPath, sessionID, form)
}

// Query asks the assistant about the documents uploaded under sessionID.
func (c *Client) Query(ctx context.Context, sessionID, prompt string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id is required")
	}

	form := &form{
		fields: []formField{
			{name: "session_id", value: sessionID},
			{name: "prompt", value: prompt},
		},
	}

	return c.postForm(ctx, queryPath, sessionID, form)
}

// Health is the payload of the service root.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Health probes the service root.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	if err := c.getJSON(ctx, healthPath, &health); err != nil {
		return nil, err
	}

	return &health, nil
}
