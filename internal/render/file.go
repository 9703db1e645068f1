package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptySource is returned for a .puml file with no content.
var ErrEmptySource = errors.New("source file is empty")

// OutputPath derives the image path for a source file: foo.puml becomes
// foo.png, any other name gets the extension appended.
func OutputPath(sourcePath string, f Format) string {
	if strings.EqualFold(filepath.Ext(sourcePath), ".puml") {
		return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + f.Ext()
	}
	return sourcePath + f.Ext()
}

// FileError wraps failures reading the source file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

// RenderFile renders the file at sourcePath next to itself and returns the
// output path.
func (c *Client) RenderFile(ctx context.Context, sourcePath string) (string, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", &FileError{Path: sourcePath, Err: err}
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", &FileError{Path: sourcePath, Err: ErrEmptySource}
	}
	out := OutputPath(sourcePath, c.format)
	if _, err := c.RenderAndSave(ctx, string(data), out); err != nil {
		return "", err
	}
	return out, nil
}
