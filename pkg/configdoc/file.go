package configdoc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// File binds a Document to its on-disk location. Patches accumulate in
// memory; Save writes the document back atomically so other readers
// never observe a half-written file.
type File struct {
	path string
	doc  *Document
}

// LoadFile reads the document at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config document: %w", err)
	}
	return &File{path: path, doc: New(string(data))}, nil
}

// NewFileFromTemplate prepares a fresh document destined for path.
// Nothing is written until Save.
func NewFileFromTemplate(path string) *File {
	return &File{path: path, doc: NewFromTemplate()}
}

// Exists reports whether a config document is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Document returns the in-memory document for patching.
func (f *File) Document() *Document {
	return f.doc
}

// Path returns the on-disk location.
func (f *File) Path() string {
	return f.path
}

// Save writes the document back via a temp-file-and-rename.
func (f *File) Save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader([]byte(f.doc.Text()))); err != nil {
		return fmt.Errorf("failed to write config document: %w", err)
	}
	return nil
}
