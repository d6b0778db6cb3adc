package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/opcmd"
	"github.com/aretw0/opcmd/internal/logging"
	"github.com/aretw0/opcmd/pkg/adapters/diagram"
	"github.com/aretw0/opcmd/pkg/server"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the diagram domain as an MCP Server.
This allows AI agents to drive the model through op-string tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		level, _ := cmd.Flags().GetString("log-level")

		// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
		logger := logging.New(logging.ParseLevel(level))

		srv := server.New[*diagram.Diagram, *diagram.Event](
			"diagram", opcmd.Version, diagram.Adapter{}, diagram.Verbs(),
			server.WithSections[*diagram.Diagram, *diagram.Event](diagram.Sections()),
			server.WithLogger[*diagram.Diagram, *diagram.Event](logger),
		)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			logger.Info("Starting opcmd MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP Server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("Starting opcmd MCP Server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					logger.Error("MCP Server execution failed", "error", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
