package intake

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Source tells where the content of a document lives.
type Source int

const (
	SourceFile Source = iota
	SourceBytes
	SourceText
)

const (
	// PastedUploadName is the file name pasted text is wrapped into for upload.
	PastedUploadName = "jd.txt"
	// PastedDisplayName is shown in place of a file name for pasted text.
	PastedDisplayName = "pasted_job_description.txt"

	textContentType    = "text/plain"
	defaultContentType = "application/octet-stream"
)

// AcceptedExtensions are the file types the backend understands. It is a hint for
// the user, not enforced.
var AcceptedExtensions = []string{".pdf", ".docx", ".txt"}

var knownContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  textContentType,
}

var ErrEmptyDocument = errors.New("document is empty")

// Document is an immutable reference to a resume or job description.
type Document struct {
	name   string
	source Source
	path   string
	data   []byte
	text   string
}

// FromFile references a file on disk. The file is read only when the document is opened.
func FromFile(path string) (Document, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Document{}, errors.New("file path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat %q: %w", path, err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%q is a directory", path)
	}

	return Document{name: filepath.Base(path), source: SourceFile, path: path}, nil
}

// FromBytes references an in-memory file such as a browser upload.
func FromBytes(name string, data []byte) (Document, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return Document{}, errors.New("file name is required")
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%s: %w", name, ErrEmptyDocument)
	}

	return Document{name: name, source: SourceBytes, data: bytes.Clone(data)}, nil
}

// FromText wraps pasted text. Blank text is rejected.
func FromText(text string) (Document, error) {
	if strings.TrimSpace(text) == "" {
		return Document{}, ErrEmptyDocument
	}

	return Document{name: PastedDisplayName, source: SourceText, text: text}, nil
}

func (d Document) IsZero() bool { return d.name == "" }

func (d Document) Source() Source { return d.source }

// DisplayName is the name shown to the user.
func (d Document) DisplayName() string { return d.name }

// UploadName is the file name sent in the multipart payload.
func (d Document) UploadName() string {
	if d.source == SourceText {
		return PastedUploadName
	}
	return d.name
}

// Text returns the pasted text, empty for file documents.
func (d Document) Text() string { return d.text }

func (d Document) Path() string { return d.path }

func (d Document) ContentType() string {
	if d.source == SourceText {
		return textContentType
	}

	ext := strings.ToLower(filepath.Ext(d.name))
	if ct, ok := knownContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return defaultContentType
}

// Open returns the document content. The caller closes the reader.
func (d Document) Open() (io.ReadCloser, error) {
	switch d.source {
	case SourceFile:
		f, err := os.Open(d.path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", d.name, err)
		}
		return f, nil
	case SourceBytes:
		return io.NopCloser(bytes.NewReader(d.data)), nil
	case SourceText:
		return io.NopCloser(strings.NewReader(d.text)), nil
	default:
		return nil, fmt.Errorf("unknown document source %d", d.source)
	}
}

// Accepted reports whether the file name carries one of AcceptedExtensions.
func Accepted(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}
