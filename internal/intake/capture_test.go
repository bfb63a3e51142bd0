package intake

import (
	"errors"
	"testing"
)

func mustBytes(t *testing.T, name, data string) Document {
	t.Helper()
	doc, err := FromBytes(name, []byte(data))
	if err != nil {
		t.Fatalf("building document: %v", err)
	}
	return doc
}

func TestCaptureFileClearsText(t *testing.T) {
	var c Capture
	c.SetText("Senior Go engineer")
	c.SetFile(mustBytes(t, "jd.pdf", "%PDF-1.4"))

	if c.Text() != "" {
		t.Fatalf("expected text to be cleared, got %q", c.Text())
	}
	if _, ok := c.File(); !ok {
		t.Fatalf("expected file to be set")
	}
}

func TestCaptureTextClearsFile(t *testing.T) {
	var c Capture
	c.SetFile(mustBytes(t, "jd.pdf", "%PDF-1.4"))
	c.SetText("Senior Go engineer")

	if _, ok := c.File(); ok {
		t.Fatalf("expected file to be cleared")
	}
	if c.Text() != "Senior Go engineer" {
		t.Fatalf("unexpected text %q", c.Text())
	}
}

func TestCaptureConfirm(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(c *Capture)
		wantErr     error
		wantDisplay string
		wantUpload  string
	}{
		{
			name:    "empty",
			setup:   func(*Capture) {},
			wantErr: ErrEmptyCapture,
		},
		{
			name:    "whitespace only",
			setup:   func(c *Capture) { c.SetText("  \n\t ") },
			wantErr: ErrEmptyCapture,
		},
		{
			name:        "pasted text",
			setup:       func(c *Capture) { c.SetText("Build services in Go") },
			wantDisplay: PastedDisplayName,
			wantUpload:  PastedUploadName,
		},
		{
			name:        "file",
			setup:       func(c *Capture) { c.SetFile(mustBytes(t, "backend.docx", "PK")) },
			wantDisplay: "backend.docx",
			wantUpload:  "backend.docx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Capture
			c.Open()
			tt.setup(&c)

			if c.CanConfirm() != (tt.wantErr == nil) {
				t.Fatalf("CanConfirm = %v, want %v", c.CanConfirm(), tt.wantErr == nil)
			}

			doc, err := c.Confirm()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if !c.IsOpen() {
					t.Fatalf("dialog must stay open after a rejected confirm")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if doc.DisplayName() != tt.wantDisplay || doc.UploadName() != tt.wantUpload {
				t.Fatalf("unexpected names: display=%q upload=%q", doc.DisplayName(), doc.UploadName())
			}
			if c.IsOpen() || c.CanConfirm() {
				t.Fatalf("expected dialog to be closed and cleared")
			}
		})
	}
}

func TestCaptureCancelKeepsInput(t *testing.T) {
	var c Capture
	c.Open()
	c.SetText("draft")
	c.Cancel()

	if c.IsOpen() {
		t.Fatalf("expected dialog to be closed")
	}
	if c.Text() != "draft" {
		t.Fatalf("expected draft to survive cancel, got %q", c.Text())
	}
}
