package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/intake"
	"github.com/resume2job/resume2job/internal/workspace"
)

const (
	menuResume = iota
	menuJobDescription
	menuQuit
)

const (
	dialogPaste = iota
	dialogFile
	dialogConfirm
	dialogCancel
)

const (
	commandChange = "/change"
	commandQuit   = "/quit"
	commandHelp   = "/help"

	continuation = `\`
	redrawEvery  = 300 * time.Millisecond
)

var errQuit = errors.New("quit requested")

// Shell is the interactive terminal front end over a workspace.
type Shell struct {
	ws       *workspace.Workspace
	renderer *Renderer
	ask      asker
	out      io.Writer
	logger   *zap.Logger

	capture intake.Capture
	tick    int
	status  string
}

// New creates a shell reading from in and drawing to out.
func New(ws *workspace.Workspace, renderer *Renderer, in io.ReadCloser, out io.WriteCloser, logger *zap.Logger) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Shell{
		ws:       ws,
		renderer: renderer,
		ask:      &promptAsker{in: in, out: out},
		out:      out,
		logger:   logger,
	}
}

// Run draws the workspace and handles input until the user quits or ctx ends.
func (s *Shell) Run(ctx context.Context) error {
	changes, unsubscribe := s.ws.Subscribe()
	defer unsubscribe()

	for {
		if ctx.Err() != nil {
			return nil
		}

		v := s.ws.View()
		s.draw(v)

		var err error
		switch {
		case v.Uploading || v.Loading:
			s.await(ctx, changes)
			continue
		case !v.ComposerVisible():
			err = s.intake()
		default:
			err = s.compose()
		}

		if err != nil {
			if isQuit(err) {
				return nil
			}
			return err
		}
	}
}

func isQuit(err error) bool {
	return errors.Is(err, errQuit) ||
		errors.Is(err, promptui.ErrInterrupt) ||
		errors.Is(err, promptui.ErrEOF) ||
		errors.Is(err, io.EOF)
}

func (s *Shell) draw(v workspace.View) {
	frame := s.renderer.Frame(v, s.tick)
	fmt.Fprint(s.out, clearScreen, frame)

	if s.status != "" {
		fmt.Fprintf(s.out, "\n%s\n", s.status)
		s.status = ""
	}
}

// await blocks until the workspace changes, redrawing periodically for the animations.
func (s *Shell) await(ctx context.Context, changes <-chan struct{}) {
	timer := time.NewTimer(redrawEvery)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-changes:
	case <-timer.C:
		s.tick++
	}
}

func (s *Shell) intake() error {
	choice, err := s.ask.Select("Choose an action", []string{
		"Upload Resume (PDF, DOCX, or TXT files)",
		"Upload Job Description (paste text or upload file)",
		"Quit",
	})
	if err != nil {
		return err
	}

	switch choice {
	case menuResume:
		doc, err := s.chooseFile("Resume file path")
		if err != nil {
			return err
		}
		return s.report(s.ws.SelectResume(doc))
	case menuJobDescription:
		return s.jobDescriptionDialog()
	case menuQuit:
		return errQuit
	default:
		return fmt.Errorf("invalid action: %d", choice)
	}
}

func (s *Shell) jobDescriptionDialog() error {
	s.capture.Open()

	for s.capture.IsOpen() {
		s.drawDialog()

		confirm := "Add Job Description"
		if !s.capture.CanConfirm() {
			confirm += " (paste text or choose a file first)"
		}

		choice, err := s.ask.Select("Add Job Description", []string{
			"Paste Job Description",
			"Upload Job Description File",
			confirm,
			"Cancel",
		})
		if err != nil {
			return err
		}

		switch choice {
		case dialogPaste:
			text, err := s.readMultiline("Paste the job description here... (empty line to finish)")
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) != "" {
				s.capture.SetText(text)
			}
		case dialogFile:
			doc, err := s.chooseFile("Job description file path")
			if err != nil {
				return err
			}
			s.capture.SetFile(doc)
		case dialogConfirm:
			if !s.capture.CanConfirm() {
				continue
			}
			doc, err := s.capture.Confirm()
			if err != nil {
				return err
			}
			return s.report(s.ws.SubmitJobDescription(doc))
		case dialogCancel:
			s.capture.Cancel()
		}
	}

	return nil
}

func (s *Shell) drawDialog() {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString("Add Job Description\n\n")

	text := strings.TrimSpace(s.capture.Text())
	if text == "" {
		text = "(empty)"
	}
	fmt.Fprintf(&b, "  Paste Job Description:        %s\n", preview(text, 60))

	file := "PDF, DOCX, or TXT files"
	if doc, ok := s.capture.File(); ok {
		file = "✓ " + doc.DisplayName()
	}
	fmt.Fprintf(&b, "  Upload Job Description File:  %s\n\n", file)

	if s.status != "" {
		fmt.Fprintf(&b, "%s\n\n", s.status)
		s.status = ""
	}

	fmt.Fprint(s.out, b.String())
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// chooseFile is the terminal file picker. Unusual extensions only warn.
func (s *Shell) chooseFile(label string) (intake.Document, error) {
	path, err := s.ask.Input(label, func(in string) error {
		_, err := intake.FromFile(in)
		return err
	})
	if err != nil {
		return intake.Document{}, err
	}

	doc, err := intake.FromFile(path)
	if err != nil {
		return intake.Document{}, err
	}

	info, err := intake.Inspect(doc)
	if err != nil {
		s.logger.Warn("inspecting document", zap.String("path", path), zap.Error(err))
	}
	if !info.Accepted {
		s.status = fmt.Sprintf("warning: %s is not a PDF, DOCX, or TXT file", doc.DisplayName())
	} else {
		s.status = "selected " + info.String()
	}

	return doc, nil
}

// readMultiline reads lines until an empty one.
func (s *Shell) readMultiline(label string) (string, error) {
	var lines []string
	for {
		line, err := s.ask.Input(label, nil)
		if err != nil {
			return "", err
		}
		if line == "" {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
		label = "..."
	}
}

// compose reads one message. A trailing backslash continues onto a new line.
func (s *Shell) compose() error {
	var lines []string
	label := "Message Resume 2 Job..."
	for {
		line, err := s.ask.Input(label, nil)
		if err != nil {
			return err
		}
		if strings.HasSuffix(line, continuation) {
			lines = append(lines, strings.TrimSuffix(line, continuation))
			label = "..."
			continue
		}
		lines = append(lines, line)
		break
	}

	input := strings.Join(lines, "\n")

	switch strings.TrimSpace(input) {
	case commandQuit:
		return errQuit
	case commandChange:
		s.ws.Reset()
		return nil
	case commandHelp:
		s.status = "Enter sends. End a line with \\ to continue on the next one. /change picks new documents, /quit exits."
		return nil
	}

	if !s.ws.CanSend(input) {
		return nil
	}

	return s.report(s.ws.Send(input))
}

// report shows recoverable workspace errors in the status line.
func (s *Shell) report(err error) error {
	if err == nil {
		return nil
	}

	s.logger.Debug("action rejected", zap.Error(err))
	s.status = err.Error()
	return nil
}
