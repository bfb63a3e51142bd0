package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/conversation"
	"github.com/resume2job/resume2job/internal/intake"
	"github.com/resume2job/resume2job/internal/workspace"
)

type messageView struct {
	conversation.Message
	HTML string `json:"html"`
}

type stateResponse struct {
	workspace.View
	Messages        []messageView `json:"messages"`
	ShowUploadCards bool          `json:"show_upload_cards"`
	ComposerVisible bool          `json:"composer_visible"`
	BothUploaded    bool          `json:"both_uploaded"`
	Hint            string        `json:"hint,omitempty"`
	EmptyTranscript string        `json:"empty_transcript"`
	Disclaimer      string        `json:"disclaimer"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

type sendRequest struct {
	Prompt string `mapstructure:"prompt"`
}

func (s *Server) indexHandler(w http.ResponseWriter, _ *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "resume2job-web",
	})
}

func (s *Server) stateHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) state() stateResponse {
	v := s.ws.View()

	messages := make([]messageView, 0, len(v.Messages))
	for _, msg := range v.Messages {
		messages = append(messages, messageView{Message: msg, HTML: s.renderMarkdown(msg.Content)})
	}

	return stateResponse{
		View:            v,
		Messages:        messages,
		ShowUploadCards: v.ShowUploadCards(),
		ComposerVisible: v.ComposerVisible(),
		BothUploaded:    v.BothUploaded(),
		Hint:            v.Hint(),
		EmptyTranscript: workspace.EmptyTranscript,
		Disclaimer:      workspace.Disclaimer,
	}
}

func (s *Server) renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		s.logger.Debug("rendering markdown", zap.Error(err))
		return ""
	}
	return buf.String()
}

func (s *Server) resumeHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := formDocument(w, r, "resume")
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	if err := s.ws.SelectResume(doc); err != nil {
		s.fail(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusAccepted, s.state())
}

// jobDescriptionHandler takes the dialog result: a "text" field or a "file" part.
// A file wins over text, as in the dialog.
func (s *Server) jobDescriptionHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("parsing form: %w", err))
		return
	}

	var capture intake.Capture
	capture.Open()
	capture.SetText(r.FormValue("text"))

	if len(r.MultipartForm.File["file"]) > 0 {
		doc, err := formDocument(w, r, "file")
		if err != nil {
			s.fail(w, http.StatusBadRequest, err)
			return
		}
		capture.SetFile(doc)
	}

	doc, err := capture.Confirm()
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	if err := s.ws.SubmitJobDescription(doc); err != nil {
		s.fail(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusAccepted, s.state())
}

func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&raw); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("invalid JSON format: %w", err))
		return
	}

	var req sendRequest
	if err := mapstructure.Decode(raw, &req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Errorf("decoding message: %w", err))
		return
	}

	if err := s.ws.Send(req.Prompt); err != nil {
		s.fail(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusAccepted, s.state())
}

func (s *Server) resetHandler(w http.ResponseWriter, _ *http.Request) {
	s.ws.Reset()
	writeJSON(w, http.StatusOK, s.state())
}

func formDocument(w http.ResponseWriter, r *http.Request, field string) (intake.Document, error) {
	if r.MultipartForm == nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return intake.Document{}, fmt.Errorf("parsing form: %w", err)
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return intake.Document{}, fmt.Errorf("%s file is required: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return intake.Document{}, fmt.Errorf("reading %s: %w", field, err)
	}

	return intake.FromBytes(header.Filename, data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workspace.ErrUploadInProgress),
		errors.Is(err, workspace.ErrSessionActive),
		errors.Is(err, conversation.ErrBusy),
		errors.Is(err, conversation.ErrNoSession):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, errorResponse{Error: err.Error(), Status: "error"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
