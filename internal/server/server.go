// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/c4-hoofy/internal/artifacts"
	"github.com/HendryAvila/c4-hoofy/internal/config"
	"github.com/HendryAvila/c4-hoofy/internal/diagram"
	"github.com/HendryAvila/c4-hoofy/internal/logging"
	"github.com/HendryAvila/c4-hoofy/internal/metrics"
	"github.com/HendryAvila/c4-hoofy/internal/prompts"
	"github.com/HendryAvila/c4-hoofy/internal/render"
	"github.com/HendryAvila/c4-hoofy/internal/resources"
	"github.com/HendryAvila/c4-hoofy/internal/store"
	"github.com/HendryAvila/c4-hoofy/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name.
const Name = "c4-hoofy"

// Components are the wired dependencies, exposed for the CLI commands
// that work without an MCP session.
type Components struct {
	Repo     store.Repository
	Diagrams *diagram.Service
	// Render is nil when rendering is disabled.
	Render    *render.Client
	Publisher *artifacts.Publisher
}

// Build opens the store and creates the domain services described by cfg.
// The returned cleanup closes the store and is always safe to call.
func Build(cfg config.Config, log *logging.Logger) (*Components, func(), error) {
	repo, err := store.Open(cfg.Store, cfg.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("opening %s store: %w", cfg.Store, err)
	}
	cleanup := func() {
		if err := repo.Close(); err != nil {
			log.Warn("closing store", "error", err)
		}
	}

	c := &Components{
		Repo:     repo,
		Diagrams: diagram.NewService(repo, log.With("component", "diagram")),
	}

	if cfg.Render.Enabled {
		format, err := render.ParseFormat(cfg.Render.Format)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		c.Render = render.New(render.Options{
			Server:       cfg.PlantUMLServer,
			Format:       format,
			MaxRetries:   retries(cfg.Render.MaxRetries),
			InitialDelay: cfg.Render.InitialDelay,
			Timeout:      cfg.Render.Timeout,
			Logger:       log.With("component", "render"),
		})
		c.Publisher = artifacts.NewPublisher(c.Render, format.Ext(), log)
	} else {
		c.Publisher = artifacts.NewPublisher(nil, "", log)
	}

	return c, cleanup, nil
}

// retries maps the configured count onto render.Options, where 0 means
// "use the default" and a negative value disables retries.
func retries(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the store and must be called on
// shutdown (typically via defer). It is always non-nil.
func New(cfg config.Config, log *logging.Logger) (*server.MCPServer, func(), error) {
	c, cleanup, err := Build(cfg, log)
	if err != nil {
		return nil, cleanup, err
	}

	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, c, log)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(c.Diagrams)
	s.AddResource(resourceHandler.ProjectsResource(), resourceHandler.HandleProjects)
	s.AddResource(resourceHandler.WorkflowResource(), resourceHandler.HandleWorkflow)

	log.Info("mcp server ready",
		"version", Version, "store", cfg.Store, "data_dir", cfg.DataDir, "render", cfg.Render.Enabled)
	return s, cleanup, nil
}

func registerTools(s *server.MCPServer, c *Components, log *logging.Logger) {
	deps := tools.Deps{
		Diagrams:  c.Diagrams,
		Publisher: c.Publisher,
		Render:    c.Render,
		Log:       log.With("component", "tools"),
	}

	// --- Projects and diagrams ---

	createProject := tools.NewCreateProjectTool(c.Diagrams)
	s.AddTool(createProject.Definition(), createProject.Handle)

	listProjects := tools.NewListProjectsTool(c.Diagrams)
	s.AddTool(listProjects.Definition(), listProjects.Handle)

	createDiagram := tools.NewCreateDiagramTool(deps)
	s.AddTool(createDiagram.Definition(), createDiagram.Handle)

	getDiagram := tools.NewGetDiagramTool(c.Diagrams)
	s.AddTool(getDiagram.Definition(), getDiagram.Handle)

	// --- Elements ---

	addElement := tools.NewAddElementTool(deps)
	s.AddTool(addElement.Definition(), addElement.Handle)

	updateElement := tools.NewUpdateElementTool(deps)
	s.AddTool(updateElement.Definition(), updateElement.Handle)

	deleteElement := tools.NewDeleteElementTool(deps)
	s.AddTool(deleteElement.Definition(), deleteElement.Handle)

	// --- Relationships ---

	addRel := tools.NewAddRelationshipTool(deps)
	s.AddTool(addRel.Definition(), addRel.Handle)

	updateRel := tools.NewUpdateRelationshipTool(deps)
	s.AddTool(updateRel.Definition(), updateRel.Handle)

	deleteRel := tools.NewDeleteRelationshipTool(deps)
	s.AddTool(deleteRel.Definition(), deleteRel.Handle)

	// --- Sequence timeline ---

	for _, name := range tools.SequenceMarkerToolNames() {
		marker := tools.NewSequenceMarkerTool(deps, name)
		s.AddTool(marker.Definition(), marker.Handle)
	}

	// --- Output ---

	generate := tools.NewGenerateDiagramTool(deps)
	s.AddTool(generate.Definition(), generate.Handle)

	export := tools.NewExportDiagramTool(deps)
	s.AddTool(export.Definition(), export.Handle)

	// --- Workflow ---

	status := tools.NewWorkflowStatusTool(c.Diagrams)
	s.AddTool(status.Definition(), status.Handle)

	advance := tools.NewWorkflowAdvanceTool(c.Diagrams)
	s.AddTool(advance.Definition(), advance.Handle)
}

// HTTPHandler serves the MCP streamable HTTP transport on /mcp and the
// Prometheus registry on /metrics.
func HTTPHandler(s *server.MCPServer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", server.NewStreamableHTTPServer(s))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use c4-hoofy effectively.
func serverInstructions() string {
	return `You have access to c4-hoofy, an MCP server for modeling software architecture
as C4 diagrams (https://c4model.com) rendered with C4-PlantUML.

## WHEN TO USE c4-hoofy

Suggest it when the user:
- Asks to document, diagram or explain the architecture of a system
- Wants a system context, container, component or code view
- Wants a sequence diagram of how a request flows between services
- Asks how the parts of a codebase fit together

## HOW IT WORKS

1. c4_create_project once per repository. Diagrams are written to
   <root_path>/docs/c4/<type>/<name>.puml after every change.
2. c4_create_diagram with a diagram_type:
   context, container, component, code, interface or sequence.
3. Build the diagram with c4_add_element and c4_add_relationship.
   Every element gets an id (el_...); relationships and parent_id use it.
4. Each diagram carries a guided workflow. Tool responses end with a
   "Next Step" section; follow it. The usual order is:
   system → people → external systems → relationships → refinement.
5. c4_workflow_advance with target_state=COMPLETE when the diagram is done.

## ELEMENT TYPES

- base_type: system, person, container, component, class, interface, note
- variant: standard (default), external, db, queue, boundary
- Containers and components need a technology ("Go", "PostgreSQL").
- A boundary groups elements: add it with variant=boundary
  (boundary_type=system|container), then pass its id as parent_id.
- Interface diagrams: set interface_type (interface, type, enum) and use
  the relationship tag (implements, extends, uses, returns).

## SEQUENCE DIAGRAMS

Participants are elements; messages are relationships, drawn in the order
they are added. Use c4_add_sequence_divider / c4_end_sequence_divider for
phases and c4_start_sequence_group / c4_end_sequence_group for boxes.

## OUTPUT

- c4_generate_diagram returns the current PlantUML source.
- c4_export_diagram renders PNG and SVG through the PlantUML server.
- A failed render never loses model changes; the .puml file is always current.

## RULES

- Look up ids with c4_get_diagram instead of guessing them.
- Keep names short; put detail in descriptions.
- One diagram per level of abstraction. Do not mix containers and classes.`
}
