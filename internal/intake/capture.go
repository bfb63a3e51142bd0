package intake

import (
	"errors"
	"strings"
)

var ErrEmptyCapture = errors.New("paste the job description or choose a file")

// Capture holds the job description dialog inputs. Pasted text and a chosen
// file are mutually exclusive: setting one clears the other.
type Capture struct {
	open bool
	text string
	file *Document
}

func (c *Capture) Open() { c.open = true }

// Cancel closes the dialog and keeps its inputs.
func (c *Capture) Cancel() { c.open = false }

func (c *Capture) IsOpen() bool { return c.open }

func (c *Capture) SetText(text string) {
	c.text = text
	c.file = nil
}

func (c *Capture) SetFile(doc Document) {
	if doc.IsZero() {
		return
	}
	c.file = &doc
	c.text = ""
}

func (c *Capture) Text() string { return c.text }

// File returns the chosen file, if any.
func (c *Capture) File() (Document, bool) {
	if c.file == nil {
		return Document{}, false
	}
	return *c.file, true
}

func (c *Capture) CanConfirm() bool {
	return strings.TrimSpace(c.text) != "" || c.file != nil
}

// Confirm turns the current input into a document, clears the inputs and closes
// the dialog. A chosen file wins over text.
func (c *Capture) Confirm() (Document, error) {
	if !c.CanConfirm() {
		return Document{}, ErrEmptyCapture
	}

	var (
		doc Document
		err error
	)
	if c.file != nil {
		doc = *c.file
	} else {
		doc, err = FromText(c.text)
		if err != nil {
			return Document{}, err
		}
	}

	c.text = ""
	c.file = nil
	c.open = false

	return doc, nil
}
