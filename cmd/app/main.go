package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/homilyd/internal"
	pkgconfig "github.com/starford/homilyd/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return []internal.Option{internal.WithConfig(cfg)}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// printJSON writes v to stdout and returns err, so that partial results of a
// failed run are still shown.
func printJSON(v any, err error) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(v); encErr != nil {
		return errors.Join(err, encErr)
	}
	return err
}

func main() {
	cmd := &cli.Command{
		Name:   "homilyd",
		Usage:  "Homily extraction and weekend deviation monitor for recorded Masses",
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
				Name:   "serve",
				Usage:  "Watch the library, sweep finished weekends and serve the HTTP API",
				Action: serve,
			},
			{
				Name:  "test-alert",
				Usage: "Send a test alert",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd)
					if err != nil {
						return err
					}
					return internal.TestAlert(ctx, opts...)
				},
			},
			{
				Name:  "analyze-latest",
				Usage: "Analyze the newest transcript and store its summary",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd)
					if err != nil {
						return err
					}
					return printJSON(internal.AnalyzeLatest(ctx, opts...))
				},
			},
			{
				Name:  "extract-latest",
				Usage: "Extract the homily from the newest recording",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd)
					if err != nil {
						return err
					}
					return printJSON(internal.ExtractLatest(ctx, opts...))
				},
			},
			{
				Name:  "process-latest",
				Usage: "Analyze and extract the newest recording",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd)
					if err != nil {
						return err
					}
					return printJSON(internal.ProcessLatest(ctx, opts...))
				},
			},
			{
				Name:      "process",
				Usage:     "Analyze and extract one recording",
				ArgsUsage: "<media file name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return errors.New("process: media file name is required")
					}
					opts, err := loadOptions(cmd)
					if err != nil {
						return err
					}
					return printJSON(internal.Process(ctx, name, opts...))
				},
			},
			{
				Name:  "sweep",
				Usage: "Compare every finished weekend once",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd)
					if err != nil {
						return err
					}
					return printJSON(internal.Sweep(ctx, opts...))
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve MCP tools over stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					opts, err := loadOptions(cmd)
					if err != nil {
						return err
					}
					return internal.ServeMCP(ctx, append(opts, internal.WithLogOutput(os.Stderr))...)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
