package main

import (
	"log/slog"
	"os"

	"github.com/felixgeelhaar/lessonplay/internal/app"
	"github.com/felixgeelhaar/lessonplay/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the lesson player as an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

			a, err := openApp(cmd, app.Options{UseQueue: true})
			if err != nil {
				return err
			}
			defer a.Close()

			server := mcp.NewServer(mcp.Config{
				Player:    a.Player,
				LearnerID: learnerFlag(cmd),
			})
			return server.ServeStdio(commandContext(cmd))
		},
	}
}
