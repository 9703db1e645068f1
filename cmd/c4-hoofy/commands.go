package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/c4-hoofy/internal/config"
	"github.com/HendryAvila/c4-hoofy/internal/logging"
	"github.com/HendryAvila/c4-hoofy/internal/plantuml"
	"github.com/HendryAvila/c4-hoofy/internal/render"
	"github.com/HendryAvila/c4-hoofy/internal/server"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "c4-hoofy",
		Short: "C4 architecture modeling MCP server",
		Long: `c4-hoofy builds C4 model diagrams through MCP tools and writes
C4-PlantUML sources (and rendered images) to <project>/docs/c4/.

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "c4-hoofy": {
        "command": "c4-hoofy",
        "args": ["serve"]
      }
    }
  }`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.c4-hoofy/config.yaml)")

	root.AddCommand(
		newServeCmd(&configPath),
		newGenerateCmd(&configPath),
		newRenderCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger shared by the commands.
func setup(configPath string) (config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	var transport, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if transport != transportStdio && transport != transportHTTP {
				return fmt.Errorf("unknown transport %q: must be stdio or http", transport)
			}
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			s, cleanup, err := server.New(cfg, log)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			if transport == transportStdio {
				return mcpserver.ServeStdio(s)
			}
			return serveHTTP(cmd.Context(), s, addr, log)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", transportStdio, "transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address for the http transport")
	return cmd
}

// serveHTTP runs the streamable HTTP transport until SIGINT/SIGTERM.
func serveHTTP(parent context.Context, s *mcpserver.MCPServer, addr string, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.HTTPHandler(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http transport listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down http transport")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func newGenerateCmd(configPath *string) *cobra.Command {
	var withImage bool

	cmd := &cobra.Command{
		Use:   "generate <diagram-id>",
		Short: "Regenerate a diagram's .puml file and print its source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			if !withImage {
				cfg.Render.Enabled = false
			}

			c, cleanup, err := server.Build(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			p, d, err := c.Diagrams.Load(ctx, args[0])
			if err != nil {
				return err
			}
			res, err := c.Publisher.Publish(ctx, p, d)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), res.Source)
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", res.SourcePath)
			switch {
			case res.RenderErr != nil:
				return res.RenderErr
			case res.ImagePath != "":
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", res.ImagePath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withImage, "image", false, "also render the image through the PlantUML server")
	return cmd
}

// renderOptions are the flags of the render command.
type renderOptions struct {
	server     string
	format     string
	maxRetries int
	timeout    time.Duration
	verbose    bool
}

func newRenderCmd() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <file.puml>",
		Short: "Render a PlantUML file to an image next to it",
		Long: `Render a PlantUML file through a PlantUML server. foo.puml is written
to foo.png (or foo.svg); other names get the extension appended.

Exit codes: 0 success, 1 file error, 2 network error or timeout,
3 PlantUML server error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			log, err := logging.New("dev", level)
			if err != nil {
				return err
			}
			defer log.Sync()

			retries := opts.maxRetries
			if retries == 0 {
				retries = -1
			}
			client := render.New(render.Options{
				Server:     opts.server,
				Format:     format,
				MaxRetries: retries,
				Timeout:    opts.timeout,
				Logger:     log,
			})

			ctx := cmd.Context()
			out, err := client.RenderFile(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			if id, ok := owningProject(args[0]); ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "project %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", render.DefaultServer, "PlantUML server URL")
	cmd.Flags().StringVar(&opts.format, "format", string(render.FormatPNG), "image format: png or svg")
	cmd.Flags().IntVar(&opts.maxRetries, "max-retries", render.DefaultMaxRetries, "retries after the first attempt")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", render.DefaultTimeout, "per-request timeout")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every attempt")
	return cmd
}

// owningProject reads the project id embedded in a generated source file.
// Hand-written files have none.
func owningProject(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return plantuml.ParseProjectID(string(data))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "c4-hoofy v%s\n", server.Version)
		},
	}
}
