package terminal

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/conversation"
	"github.com/resume2job/resume2job/internal/workspace"
)

func zapNop() *zap.Logger { return zap.NewNop() }

func plainRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(false, 20)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return r
}

func TestFrameStates(t *testing.T) {
	tests := []struct {
		name    string
		view    workspace.View
		want    []string
		notWant []string
	}{
		{
			name: "intake",
			view: workspace.View{},
			want: []string{"Upload your documents to get started", "PDF, DOCX, or TXT files", "Paste text or upload file"},
		},
		{
			name: "resume only",
			view: workspace.View{ResumeName: "cv.pdf"},
			want: []string{"✓ cv.pdf", workspace.HintAddJobDescription},
		},
		{
			name:    "uploading",
			view:    workspace.View{ResumeName: "cv.pdf", Uploading: true, PendingJD: true},
			want:    []string{uploadingLabel},
			notWant: []string{"Upload your documents"},
		},
		{
			name: "failed upload",
			view: workspace.View{ResumeName: "cv.pdf", PendingJD: true, Notification: &workspace.Notification{
				Kind: workspace.NotificationFailure, Text: workspace.MessageUploadFailure,
			}},
			want: []string{"✗ " + workspace.MessageUploadFailure, "added, not uploaded yet"},
		},
		{
			name: "ready",
			view: workspace.View{ResumeName: "cv.pdf", JobDescriptionName: "jd.pdf", SessionID: "s"},
			want: []string{"[cv.pdf | jd.pdf]", workspace.EmptyTranscript, workspace.Disclaimer},
		},
		{
			name: "conversing",
			view: workspace.View{ResumeName: "cv.pdf", JobDescriptionName: "jd.pdf", SessionID: "s", Messages: []conversation.Message{
				{ID: 1, Role: conversation.RoleUser, Content: "Hello"},
				{ID: 2, Role: conversation.RoleAssistant, Content: "Hi", Typing: true},
			}},
			want:    []string{"You:\nHello", "Resume 2 Job:\nHi\n.\n"},
			notWant: []string{workspace.EmptyTranscript},
		},
	}

	r := plainRenderer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := r.Frame(tt.view, 0)
			for _, want := range tt.want {
				if !strings.Contains(frame, want) {
					t.Fatalf("expected frame to contain %q, got:\n%s", want, frame)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(frame, notWant) {
					t.Fatalf("frame must not contain %q, got:\n%s", notWant, frame)
				}
			}
		})
	}
}

func TestTypingEllipsisAnimates(t *testing.T) {
	r := plainRenderer(t)
	v := workspace.View{ResumeName: "a", JobDescriptionName: "b", SessionID: "s", Messages: []conversation.Message{
		{ID: 1, Role: conversation.RoleAssistant, Typing: true},
	}}

	if !strings.Contains(r.Frame(v, 2), "...\n") {
		t.Fatalf("expected three dots on tick 2")
	}
	if strings.Contains(r.Frame(v, 0), "..\n") {
		t.Fatalf("expected a single dot on tick 0")
	}
}

func TestMarkdownRenderer(t *testing.T) {
	r, err := NewRenderer(true, 40)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	in := "- strong match"
	out := r.content(in)
	if out == in || !strings.Contains(out, "strong") {
		t.Fatalf("expected rendered markdown, got %q", out)
	}
}
