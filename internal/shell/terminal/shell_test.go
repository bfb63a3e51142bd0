package terminal

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/resume2job/resume2job/internal/backend"
	"github.com/resume2job/resume2job/internal/session"
	"github.com/resume2job/resume2job/internal/workspace"
)

type scriptedAsker struct {
	selects []int
	inputs  []string
	labels  []string
}

func (s *scriptedAsker) Select(label string, _ []string) (int, error) {
	s.labels = append(s.labels, label)
	if len(s.selects) == 0 {
		return 0, io.EOF
	}
	next := s.selects[0]
	s.selects = s.selects[1:]
	return next, nil
}

func (s *scriptedAsker) Input(label string, validate func(string) error) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.inputs) == 0 {
		return "", io.EOF
	}
	next := s.inputs[0]
	s.inputs = s.inputs[1:]
	if validate != nil {
		if err := validate(next); err != nil {
			return "", err
		}
	}
	return next, nil
}

type recordingBackend struct {
	mu      sync.Mutex
	jd      string
	prompts []string
}

func (b *recordingBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseMultipartForm(1 << 20)

	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.URL.Path {
	case "/upload":
		f, _, err := r.FormFile("jd")
		if err == nil {
			data, _ := io.ReadAll(f)
			b.jd = string(data)
		}
		io.WriteString(w, "ok")
	case "/query":
		b.prompts = append(b.prompts, r.FormValue("prompt"))
		io.WriteString(w, "**Verdict:** strong match")
	}
}

func newShell(t *testing.T, ask asker) (*Shell, *workspace.Workspace, *recordingBackend, *bytes.Buffer) {
	t.Helper()

	rb := &recordingBackend{}
	srv := httptest.NewServer(rb)
	t.Cleanup(srv.Close)

	client := backend.New(nil, srv.URL, 0)
	ws := workspace.New(session.NewUploader(client, nil), client,
		workspace.WithRevealDelay(0),
		workspace.WithNotificationTTL(0),
	)
	t.Cleanup(ws.Close)

	renderer, err := NewRenderer(false, 40)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	out := &bytes.Buffer{}
	return &Shell{ws: ws, renderer: renderer, ask: ask, out: out, logger: nil}, ws, rb, out
}

func TestShellIntakeAndConversation(t *testing.T) {
	resume := filepath.Join(t.TempDir(), "cv.txt")
	if err := os.WriteFile(resume, []byte("Go developer, 7 years"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	ask := &scriptedAsker{
		selects: []int{
			menuResume,
			menuJobDescription,
			dialogConfirm, // disabled while empty, the dialog stays open
			dialogPaste,
			dialogConfirm,
		},
		inputs: []string{
			resume,
			"Senior Go engineer",
			"Kubernetes a plus",
			"",
			`How well do I match? \`,
			"Be brief",
			"/quit",
		},
	}

	sh, ws, rb, out := newShell(t, ask)
	sh.logger = zapNop()

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	ws.Wait()

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.jd != "Senior Go engineer\nKubernetes a plus" {
		t.Fatalf("unexpected uploaded jd %q", rb.jd)
	}
	if len(rb.prompts) != 1 || rb.prompts[0] != "How well do I match? \nBe brief" {
		t.Fatalf("unexpected prompts %q", rb.prompts)
	}

	v := ws.View()
	if len(v.Messages) != 2 || v.Messages[1].Content != "**Verdict:** strong match" {
		t.Fatalf("unexpected transcript %+v", v.Messages)
	}

	screen := out.String()
	for _, want := range []string{
		"Upload your documents to get started",
		workspace.HintAddJobDescription,
		"Add Job Description",
		workspace.MessageUploadSuccess,
		"[cv.txt | pasted_job_description.txt]",
	} {
		if !strings.Contains(screen, want) {
			t.Fatalf("expected screen to contain %q", want)
		}
	}
}

func TestShellChangeDocumentsResets(t *testing.T) {
	resume := filepath.Join(t.TempDir(), "cv.pdf")
	if err := os.WriteFile(resume, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	ask := &scriptedAsker{
		selects: []int{menuResume, menuJobDescription, dialogPaste, dialogConfirm, menuQuit},
		inputs:  []string{resume, "Go engineer", "", "/change"},
	}

	sh, ws, _, _ := newShell(t, ask)
	sh.logger = zapNop()

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	v := ws.View()
	if v.SessionID != "" || v.ResumeName != "" || !v.ShowUploadCards() {
		t.Fatalf("expected intake view after /change, got %+v", v)
	}
}

func TestShellStopsOnEOF(t *testing.T) {
	sh, _, _, _ := newShell(t, &scriptedAsker{})
	sh.logger = zapNop()

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("expected clean exit on EOF, got %v", err)
	}
}
