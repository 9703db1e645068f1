// Package artifacts writes a diagram's generated files under its
// project's root: the .puml source, which is authoritative, and a
// best-effort rendered image next to it.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/HendryAvila/c4-hoofy/internal/c4"
	"github.com/HendryAvila/c4-hoofy/internal/logging"
	"github.com/HendryAvila/c4-hoofy/internal/plantuml"
)

// DocsDir is the directory under a project root that holds diagrams.
var DocsDir = filepath.Join("docs", "c4")

// Renderer is the subset of render.Client the publisher needs.
type Renderer interface {
	RenderAndSave(ctx context.Context, source, outputPath string) ([]byte, error)
}

// Result describes one publish.
type Result struct {
	Source     string
	SourcePath string
	// ImagePath is empty when rendering is disabled or failed.
	ImagePath string
	// RenderErr is a render failure. The source file is still current.
	RenderErr error
}

// Publisher regenerates and writes diagram artifacts.
type Publisher struct {
	renderer Renderer // nil disables rendering
	imageExt string
	log      *logging.Logger
}

// NewPublisher returns a Publisher. A nil renderer disables images;
// imageExt is the image extension with its dot (".png").
func NewPublisher(renderer Renderer, imageExt string, log *logging.Logger) *Publisher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Publisher{renderer: renderer, imageExt: imageExt, log: log}
}

// SourcePath returns where the .puml file for d lives.
func SourcePath(p *c4.Project, d *c4.Diagram) string {
	return filepath.Join(p.RootPath, DocsDir, string(d.Type), Slug(d.Name, d.ID)+".puml")
}

// Publish regenerates the source, writes it, then renders the image. Only
// generation and source write failures are returned as errors.
func (pub *Publisher) Publish(ctx context.Context, p *c4.Project, d *c4.Diagram) (*Result, error) {
	res, err := WriteSource(p, d)
	if err != nil {
		return nil, err
	}

	if pub.renderer == nil {
		return res, nil
	}
	image := strings.TrimSuffix(res.SourcePath, ".puml") + pub.imageExt
	if _, err := pub.renderer.RenderAndSave(ctx, res.Source, image); err != nil {
		pub.log.Warn("diagram render failed", "diagram_id", d.ID, "path", image, "error", err)
		res.RenderErr = err
		return res, nil
	}
	res.ImagePath = image
	return res, nil
}

// WriteSource regenerates the source for d and writes it to SourcePath.
func WriteSource(p *c4.Project, d *c4.Diagram) (*Result, error) {
	src, err := plantuml.Generate(p, d)
	if err != nil {
		return nil, err
	}

	res := &Result{Source: src, SourcePath: SourcePath(p, d)}
	if err := os.MkdirAll(filepath.Dir(res.SourcePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating diagram directory: %w", err)
	}
	if err := os.WriteFile(res.SourcePath, []byte(src), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", res.SourcePath, err)
	}
	return res, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a diagram name into a file name. The id suffix keeps two
// diagrams with the same name apart.
func Slug(name, id string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "-")
	}
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	switch {
	case s == "":
		return "diagram-" + short
	case short == "":
		return s
	default:
		return s + "-" + short
	}
}
