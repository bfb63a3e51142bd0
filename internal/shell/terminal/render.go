package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/resume2job/resume2job/internal/conversation"
	"github.com/resume2job/resume2job/internal/workspace"
)

const (
	title          = "Resume 2 Job"
	clearScreen    = "\033[H\033[2J"
	defaultWidth   = 80
	uploadingLabel = "Uploading Documents..."
)

var spinner = []string{"|", "/", "-", "\\"}

// Renderer turns a workspace view into a terminal frame.
type Renderer struct {
	md    *glamour.TermRenderer
	width int
}

// NewRenderer builds a renderer. With markdown off, message content is printed as is.
func NewRenderer(markdown bool, width int) (*Renderer, error) {
	if width <= 0 {
		width = defaultWidth
	}

	r := &Renderer{width: width}
	if !markdown {
		return r, nil
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	r.md = md

	return r, nil
}

// Frame renders the whole screen for v. tick drives the spinner and the typing ellipsis.
func (r *Renderer) Frame(v workspace.View, tick int) string {
	var b strings.Builder

	r.header(&b, v)

	if v.Notification != nil {
		mark := "✓"
		if v.Notification.Kind == workspace.NotificationFailure {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s\n\n", mark, v.Notification.Text)
	}

	switch {
	case v.Uploading:
		fmt.Fprintf(&b, "%s %s\n", spinner[tick%len(spinner)], uploadingLabel)
	case v.ShowUploadCards():
		r.cards(&b, v)
	default:
		r.transcript(&b, v, tick)
	}

	return b.String()
}

func (r *Renderer) header(b *strings.Builder, v workspace.View) {
	b.WriteString(title)
	if v.BothUploaded() {
		fmt.Fprintf(b, "  [%s | %s]  /change to change documents", v.ResumeName, v.JobDescriptionName)
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", r.width))
	b.WriteString("\n\n")
}

func (r *Renderer) cards(b *strings.Builder, v workspace.View) {
	b.WriteString("Upload your documents to get started\n\n")

	resume := "PDF, DOCX, or TXT files"
	if v.ResumeName != "" {
		resume = "✓ " + v.ResumeName
	}
	fmt.Fprintf(b, "  [Upload Resume]           %s\n", resume)

	jd := "Paste text or upload file"
	switch {
	case v.JobDescriptionName != "":
		jd = "✓ " + v.JobDescriptionName
	case v.PendingJD:
		jd = "added, not uploaded yet"
	}
	fmt.Fprintf(b, "  [Upload Job Description]  %s\n", jd)

	if hint := v.Hint(); hint != "" {
		fmt.Fprintf(b, "\n%s\n", hint)
	}
}

func (r *Renderer) transcript(b *strings.Builder, v workspace.View, tick int) {
	if len(v.Messages) == 0 {
		b.WriteString(workspace.EmptyTranscript)
		b.WriteString("\n")
	}

	for _, msg := range v.Messages {
		speaker := "You"
		if msg.Role == conversation.RoleAssistant {
			speaker = title
		}
		fmt.Fprintf(b, "%s:\n", speaker)

		if content := r.content(msg.Content); content != "" {
			b.WriteString(content)
			if !strings.HasSuffix(content, "\n") {
				b.WriteString("\n")
			}
		}
		if msg.Typing {
			b.WriteString(strings.Repeat(".", tick%3+1))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", r.width))
	b.WriteString("\n")
	b.WriteString(workspace.Disclaimer)
	b.WriteString("\n")
}

// Answer renders a single assistant answer outside of a frame.
func (r *Renderer) Answer(s string) string {
	return r.content(s)
}

func (r *Renderer) content(s string) string {
	if r.md == nil || strings.TrimSpace(s) == "" {
		return s
	}

	out, err := r.md.Render(s)
	if err != nil {
		return s
	}
	return out
}
