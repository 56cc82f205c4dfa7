package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/aalifyx/internal"
	pkgconfig "github.com/starford/aalifyx/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, cmd.String("session"), internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func purgeSessions(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	n, err := internal.PurgeSessions(ctx, internal.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	fmt.Fprintf(os.Stdout, "purged %d expired sessions\n", n)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "aalifyx",
		Usage:  "Study desk backend: flashcards, goals, schedule, tasks, whiteboard and document summaries",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve one session's collections over MCP on stdin/stdout",
				Action: serveMCP,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "session",
						Usage:   "Session id the MCP tools operate on",
						Value:   "mcp",
						Sources: cli.EnvVars("AALIFYX_MCP_SESSION"),
					},
				},
			},
			{
				Name:   "purge-sessions",
				Usage:  "Remove expired sessions from the session store and exit",
				Action: purgeSessions,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
