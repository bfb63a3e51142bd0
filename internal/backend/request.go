package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/intake"
	"github.com/resume2job/resume2job/internal/logger"
	"github.com/resume2job/resume2job/internal/utils"
)

const maxResponseBytes = 4 << 20

// ErrResponseTooLarge is returned instead of a silently cut answer.
var ErrResponseTooLarge = fmt.Errorf("backend response exceeds %d bytes", maxResponseBytes)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	name string
	doc  intake.Document
}

type form struct {
	fields []formField
	files  []formFile
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (f *form) encode() (*bytes.Buffer, string, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}

	for _, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(file.name), quoteEscaper.Replace(file.doc.UploadName())))
		h.Set("Content-Type", file.doc.ContentType())

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}

		src, err := file.doc.Open()
		if err != nil {
			return nil, "", err
		}

		_, err = io.Copy(part, src)
		src.Close()
		if err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", file.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &b, w.FormDataContentType(), nil
}

func (c *Client) postForm(ctx context.Context, path, sessionID string, f *form) (string, error) {
	log := logger.WithSession(c.logger, sessionID, path)

	body, contentType, err := f.encode()
	if err != nil {
		return "", fmt.Errorf("encoding form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return "", err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.request(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp.Body)
	if errors.Is(err, ErrResponseTooLarge) {
		log.Warn("backend response too large", zap.Int("limit", maxResponseBytes))
	}
	if err != nil {
		return "", fmt.Errorf("reading %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("backend rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("body_preview", utils.TruncateForLog(string(data), c.MaxLogLength)),
		)
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(data)}
	}

	log.Debug("got response from backend",
		zap.Int("status", resp.StatusCode),
		zap.Int("body_length", len(data)),
	)

	return string(data), nil
}

func (c *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.request(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status, Body: string(data)}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	return nil
}

// readBody reads at most maxResponseBytes and fails when the body is longer.
func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResponseBytes {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)

	return req
}
