package intake

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Info is display metadata about a document.
type Info struct {
	Name        string
	Size        int64
	ContentType string
	Pages       int
	Accepted    bool
}

func (i Info) String() string {
	parts := []string{i.Name}
	if i.Pages > 0 {
		unit := "pages"
		if i.Pages == 1 {
			unit = "page"
		}
		parts = append(parts, fmt.Sprintf("%d %s", i.Pages, unit))
	}
	parts = append(parts, humanSize(i.Size))
	return strings.Join(parts, " · ")
}

// Inspect gathers Info for doc. A PDF that cannot be read still yields the
// size and content type alongside the error.
func Inspect(doc Document) (Info, error) {
	info := Info{
		Name:        doc.DisplayName(),
		ContentType: doc.ContentType(),
		Accepted:    doc.Source() == SourceText || Accepted(doc.DisplayName()),
	}

	switch doc.Source() {
	case SourceFile:
		st, err := os.Stat(doc.path)
		if err != nil {
			return info, fmt.Errorf("stat %s: %w", doc.name, err)
		}
		info.Size = st.Size()
	case SourceBytes:
		info.Size = int64(len(doc.data))
	case SourceText:
		info.Size = int64(len(doc.text))
		return info, nil
	}

	if strings.ToLower(filepath.Ext(doc.name)) != ".pdf" {
		return info, nil
	}

	pages, err := countPages(doc)
	if err != nil {
		return info, fmt.Errorf("reading pdf %s: %w", doc.name, err)
	}
	info.Pages = pages

	return info, nil
}

// countPages reports the page count. The pdf reader resolves objects lazily and
// panics on malformed ones, so a panic becomes an error.
func countPages(doc Document) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	if doc.source == SourceBytes {
		r, err := pdf.NewReader(bytes.NewReader(doc.data), int64(len(doc.data)))
		if err != nil {
			return 0, err
		}
		return r.NumPage(), nil
	}

	f, r, err := pdf.Open(doc.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return r.NumPage(), nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
