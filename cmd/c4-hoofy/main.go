// c4-hoofy: C4 architecture modeling MCP server
//
// An MCP server that lets any AI coding tool build C4 model diagrams
// (context, container, component, code, interface, sequence) and keeps
// C4-PlantUML sources and rendered images under the project's docs/c4/.
//
// Usage:
//
//	c4-hoofy serve                  # Start MCP server (stdio transport)
//	c4-hoofy serve --transport http # Streamable HTTP on :8080, /metrics included
//	c4-hoofy generate <diagram-id>  # Print and write a diagram's .puml
//	c4-hoofy render <file.puml>     # Render a .puml file through PlantUML
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/HendryAvila/c4-hoofy/internal/render"
)

// Exit codes of the render command.
const (
	exitOK          = 0
	exitFailure     = 1 // file errors and everything else
	exitNetwork     = 2
	exitServerError = 3
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode classifies a command error.
func exitCode(err error) int {
	var se *render.ServiceError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &se):
		if se.Network() {
			return exitNetwork
		}
		return exitServerError
	case errors.Is(err, context.DeadlineExceeded):
		return exitNetwork
	default:
		return exitFailure
	}
}
