package intake

import (
	"fmt"
	"net/http"
)

const megabyte = 1024 * 1024

// DefaultMaxFileBytes is the per-file ceiling when none is configured.
const DefaultMaxFileBytes = 2 * megabyte

// Document is a file selected on the form.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (d *Document) Size() int64 {
	return int64(len(d.Data))
}

// FileGate holds the current selection of one file input and refuses files
// over the ceiling, keeping whatever was selected before.
type FileGate struct {
	maxBytes int64
	allowed  map[string]bool
	current  *Document
	errMsg   string
}

// NewFileGate builds a gate. An empty allow-list accepts any content type.
func NewFileGate(maxBytes int64, allowedTypes []string) *FileGate {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	g := &FileGate{maxBytes: maxBytes}
	if len(allowedTypes) > 0 {
		g.allowed = make(map[string]bool, len(allowedTypes))
		for _, t := range allowedTypes {
			g.allowed[t] = true
		}
	}
	return g
}

// SizeMessage is the localized size-exceeded message for this gate.
func (g *FileGate) SizeMessage() string {
	if g.maxBytes%megabyte == 0 {
		return fmt.Sprintf("Ukuran file maksimal %dMB", g.maxBytes/megabyte)
	}
	return fmt.Sprintf("Ukuran file maksimal %.1fMB", float64(g.maxBytes)/megabyte)
}

// Select offers doc to the gate. On rejection the previous selection is
// retained and the message is returned; on success any prior error clears.
func (g *FileGate) Select(doc *Document) string {
	if doc == nil {
		return g.errMsg
	}
	if doc.Size() > g.maxBytes {
		g.errMsg = g.SizeMessage()
		return g.errMsg
	}
	if g.allowed != nil {
		sniffed := sniffContentType(doc.Data)
		if !g.allowed[sniffed] {
			g.errMsg = "Format file harus PDF atau gambar (JPG/PNG/WEBP)"
			return g.errMsg
		}
		doc.ContentType = sniffed
	}
	g.current = doc
	g.errMsg = ""
	return ""
}

// Current returns the accepted document, or nil.
func (g *FileGate) Current() *Document {
	return g.current
}

// Err returns the last rejection message, or "".
func (g *FileGate) Err() string {
	return g.errMsg
}

func sniffContentType(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	// DetectContentType may append parameters, e.g. "text/plain; charset=utf-8".
	for i := 0; i < len(ct); i++ {
		if ct[i] == ';' {
			return ct[:i]
		}
	}
	return ct
}
