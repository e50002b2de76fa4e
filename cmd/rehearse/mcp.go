package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the Rehearse engine as an MCP Server.
This lets AI agents validate flows and rehearse them as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		flows, _ := cmd.Flags().GetStringSlice("flow")
		trainer, _ := cmd.Flags().GetString("trainer")

		svc, logger, err := buildService(cmd)
		if err != nil {
			return err
		}
		if err := seedFlows(cmd.Context(), svc, flows, trainer, logger); err != nil {
			return err
		}

		srv := mcp.NewServer(svc)

		switch transport {
		case "stdio":
			// Keep logs off Stdout so they don't corrupt JSON-RPC.
			log.SetOutput(os.Stderr)
			logger.Info("starting MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				return err
			}
		case "sse":
			logger.Info("starting MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				return err
			}
			logger.Info("MCP server stopped")
		default:
			slog.Error("unknown transport", "transport", transport)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("redis", "", "Redis URL for shared stores (empty runs in-memory)")
	mcpCmd.Flags().StringSlice("flow", nil, "Flow file(s) to load as drafts on startup")
	mcpCmd.Flags().String("trainer", "local", "Trainer id assigned to loaded flows without one")
}
